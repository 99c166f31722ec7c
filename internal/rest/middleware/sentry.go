package middleware

import (
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/types"
)

// SentryMiddleware captures panics and tags the request hub with the
// request id. It is a no-op when Sentry is disabled.
func SentryMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.Sentry.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// SentryScopeMiddleware copies the request id and the authenticated user onto
// the hub installed by SentryMiddleware. Run it after authentication.
func SentryScopeMiddleware(c *gin.Context) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		ctx := c.Request.Context()
		if requestID, ok := ctx.Value(types.CtxRequestID).(string); ok {
			hub.Scope().SetTag("request_id", requestID)
		}
		if actor, ok := types.GetActor(ctx); ok {
			hub.Scope().SetTag("role", actor.Role.String())
			hub.Scope().SetUser(sentry.User{ID: actor.UserID, Email: actor.Email})
		}
	}
	c.Next()
}
