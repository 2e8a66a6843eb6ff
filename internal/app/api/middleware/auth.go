package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"

	cfgpkg "github.com/syedaatik8/LemmeWrite/pkg/config"
	"github.com/syedaatik8/LemmeWrite/pkg/response"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "user_id"

// SessionAuthMiddleware validates the identity provider's HS256 bearer token
// and puts its subject on the context as the user id. The ledger never
// authenticates callers itself; this middleware is the only auth boundary for
// the UI read path.
func SessionAuthMiddleware(cfg *cfgpkg.Config, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "missing bearer token"))
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, prefix), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.Auth.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "invalid session token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "invalid session claims"))
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "session token missing subject"))
			return
		}

		c.Set(UserIDKey, sub)
		ctx := context.WithValue(c.Request.Context(), UserIDKey, sub)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AdminKeyMiddleware gates admin routes on a shared key header. With no key
// configured the routes are disabled outright.
func AdminKeyMiddleware(cfg *cfgpkg.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Auth.AdminKey == "" || c.GetHeader("X-Admin-Key") != cfg.Auth.AdminKey {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorT[any](response.APIResponseCodeUnauthorized, "admin access denied"))
			return
		}
		c.Next()
	}
}

// WebhookSecretMiddleware optionally requires the processor's shared secret
// header. An empty configured secret disables the check.
func WebhookSecretMiddleware(cfg *cfgpkg.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Webhook.SharedSecret != "" && c.GetHeader("X-Webhook-Secret") != cfg.Webhook.SharedSecret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "webhook secret mismatch"))
			return
		}
		c.Next()
	}
}
