package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/syedaatik8/LemmeWrite/docs"
	"github.com/syedaatik8/LemmeWrite/internal/app/api/handlers"
	mw "github.com/syedaatik8/LemmeWrite/internal/app/api/middleware"
	"github.com/syedaatik8/LemmeWrite/internal/app/service/ledger"
	subsvc "github.com/syedaatik8/LemmeWrite/internal/app/service/subscription"
	"github.com/syedaatik8/LemmeWrite/internal/app/service/webhook"
	cfgpkg "github.com/syedaatik8/LemmeWrite/pkg/config"
	metrics "github.com/syedaatik8/LemmeWrite/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request tracing only; request logger & access log are attached per group
	// in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(lc fx.Lifecycle, r *gin.Engine, log *zap.SugaredLogger, dispatcher *webhook.Dispatcher, led *ledger.Service, sub *subsvc.Service, cfg *cfgpkg.Config) {
	// Prometheus: request instrumentation on the engine, scrape endpoint on
	// its own listener
	httpMetrics := metrics.NewHTTP()
	r.Use(httpMetrics.Middleware())
	metrics.Serve(lc, log, cfg.MetricsAddr)

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Processor webhooks: shared-secret gated when configured. The payment
	// sender retries on non-2xx, so these routes must classify failures
	// precisely (400 malformed, 503 transient).
	wh := r.Group("/api/v1/webhook")
	wh.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(), mw.WebhookSecretMiddleware(cfg))
	handlers.RegisterWebhookRoutes(wh, dispatcher)

	// UI read path: session-token authenticated
	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(), mw.SessionAuthMiddleware(cfg, log))
	handlers.RegisterPointsRoutes(apiV1.Group("/points"), led)
	handlers.RegisterSubscriptionRoutes(apiV1.Group("/subscription"), sub, cfg)

	// Admin APIs, key gated
	admin := r.Group("/api/v1/admin")
	admin.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(), mw.AdminKeyMiddleware(cfg))
	handlers.RegisterAdminRoutes(admin, led, sub)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
