package keylock

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/syedaatik8/LemmeWrite/pkg/config"
)

// Locker provides mutual exclusion scoped to an opaque string key. Two
// Acquire calls with the same key serialize; calls with different keys do not.
type Locker interface {
	// Acquire blocks until the mutex for key is held and returns a release
	// function. The release function must run on every exit path and is safe
	// to call more than once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type Params struct {
	fx.In

	Cfg   *config.Config
	DB    *gorm.DB
	Log   *zap.SugaredLogger
	Redis *redis.Client
}

// New selects the lock provider from configuration.
func New(p Params) (Locker, error) {
	switch p.Cfg.Lock.Provider {
	case "", "postgres":
		return NewAdvisoryLocker(p.DB), nil
	case "memory":
		return NewKeyedMutex(), nil
	case "redis":
		if p.Redis == nil {
			return nil, fmt.Errorf("lock.provider=redis requires redis.addr")
		}
		return NewRedisLocker(p.Redis), nil
	default:
		return nil, fmt.Errorf("unknown lock provider: %s", p.Cfg.Lock.Provider)
	}
}

var Module = fx.Options(
	fx.Provide(New),
)
