package redisconn

import (
	"context"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/syedaatik8/LemmeWrite/pkg/config"
)

// NewClient returns a redis client, or nil when redis is not configured.
// Only the redis lock provider needs it.
func NewClient(l *zap.SugaredLogger, cfg *cfgpkg.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		l.Warnw("redis ping failed, lock provider redis will be unavailable", "addr", cfg.Redis.Addr, "err", err)
	} else {
		l.Infow("connected to redis", "addr", cfg.Redis.Addr)
	}
	return client
}

func registerClose(lc fx.Lifecycle, l *zap.SugaredLogger, client *redis.Client) {
	if client == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			l.Infow("closing redis client")
			return client.Close()
		},
	})
}

var Module = fx.Options(
	fx.Provide(NewClient),
	fx.Invoke(registerClose),
)
