package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLoggerMiddleware attaches a request-scoped logger enriched with
// trace_id (if present) to gin.Context and request context.
func RequestLoggerMiddleware(base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLogger := base
		if traceID := c.GetString("traceID"); traceID != "" {
			reqLogger = base.With("trace_id", traceID)
			// mirror trace id to response header for support lookups
			c.Writer.Header().Set("X-Request-ID", traceID)
		}
		c.Set("logger", reqLogger)

		// also attach to std context
		ctx := context.WithValue(c.Request.Context(), "logger", reqLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
