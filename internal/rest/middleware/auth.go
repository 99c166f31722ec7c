package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rentdesk/rentdesk/internal/auth"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/types"
)

// AuthenticateMiddleware validates the Bearer token and stores the actor it
// names in the request context. Handlers read it back with types.GetActor.
func AuthenticateMiddleware(provider auth.Provider, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			abortUnauthorized(c, "Unauthorized")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := provider.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Debugw("failed to validate token", "error", err)
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Request = c.Request.WithContext(types.SetActor(c.Request.Context(), claims.Actor()))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, display string) {
	c.AbortWithStatusJSON(401, ierr.ErrorResponse{
		Success: false,
		Error: ierr.ErrorDetail{
			Code:    "unauthorized",
			Display: display,
		},
	})
}
