package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rentdesk/rentdesk/internal/auth"
	"github.com/rentdesk/rentdesk/internal/config"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/sentry"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, handler gin.HandlerFunc) (*gin.Engine, auth.Provider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.GetDefaultConfig()
	log := logger.NewNopLogger()
	provider := auth.NewProvider(cfg)

	r := gin.New()
	r.Use(RequestIDMiddleware, ErrorHandler(log, sentry.NewSentryService(cfg, log)))
	r.GET("/me", AuthenticateMiddleware(provider, log), handler)
	return r, provider
}

func TestAuthenticateMiddleware(t *testing.T) {
	var seen types.Actor
	r, provider := newEngine(t, func(c *gin.Context) {
		seen, _ = types.GetActor(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	actor := types.Actor{UserID: "tenant_1", Role: types.RoleTenant, Email: "t@example.com"}
	token, _, err := provider.IssueToken(t.Context(), actor)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "not bearer", header: "Token " + token, status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + token, status: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(types.HeaderAuthorization, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(types.HeaderRequestID))
		})
	}
	assert.Equal(t, actor, seen)
}

func TestErrorHandler(t *testing.T) {
	r, provider := newEngine(t, func(c *gin.Context) {
		_ = c.Error(ierr.NewError("invite answered").
			WithHint("This invite has already been accepted").
			WithReportableDetails(map[string]any{"current_status": "accepted"}).
			Mark(ierr.ErrInviteAlreadyProcessed))
	})
	token, _, err := provider.IssueToken(t.Context(), types.Actor{UserID: "u", Role: types.RoleTenant})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(types.HeaderAuthorization, "Bearer "+token)
	req.Header.Set(types.HeaderRequestID, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(types.HeaderRequestID))

	var body ierr.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, ierr.ErrCodeInviteAlreadyProcessed, body.Error.Code)
	assert.Equal(t, "This invite has already been accepted", body.Error.Display)
	assert.Equal(t, "accepted", body.Error.Details["current_status"])
}
