package webhook

import (
	"go.uber.org/fx"

	"github.com/syedaatik8/LemmeWrite/internal/app/service/eventlog"
	"github.com/syedaatik8/LemmeWrite/internal/app/service/ledger"
	"github.com/syedaatik8/LemmeWrite/internal/app/service/subscription"
)

// Module exposes the webhook dispatcher via Fx, binding the concrete services
// to the dispatcher's consumer-side interfaces.
var Module = fx.Options(
	fx.Provide(func(s *ledger.Service) Ledger { return s }),
	fx.Provide(func(s *subscription.Service) Subscriptions { return s }),
	fx.Provide(func(s *eventlog.Service) EventRecorder { return s }),
	fx.Provide(NewDispatcher),
)
