package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/syedaatik8/LemmeWrite/internal/app/api/server"
	"github.com/syedaatik8/LemmeWrite/internal/app/service/eventlog"
	"github.com/syedaatik8/LemmeWrite/internal/app/service/ledger"
	"github.com/syedaatik8/LemmeWrite/internal/app/service/subscription"
	"github.com/syedaatik8/LemmeWrite/internal/app/service/webhook"
	"github.com/syedaatik8/LemmeWrite/internal/platform/db"
	"github.com/syedaatik8/LemmeWrite/internal/platform/redisconn"
	"github.com/syedaatik8/LemmeWrite/pkg/config"
	"github.com/syedaatik8/LemmeWrite/pkg/keylock"
	"github.com/syedaatik8/LemmeWrite/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	redisconn.Module,
	keylock.Module,
	server.Module,
	ledger.Module,
	subscription.Module,
	eventlog.Module,
	webhook.Module,
)
