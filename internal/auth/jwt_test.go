package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rentdesk/rentdesk/internal/config"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth() *jwtAuth {
	return NewJWTAuth(config.GetDefaultConfig())
}

func TestIssueAndValidate(t *testing.T) {
	a := newTestAuth()
	actor := types.Actor{UserID: "landlord_1", Role: types.RoleLandlord, Email: "owner@example.com"}

	token, issued, err := a.IssueToken(context.Background(), actor)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, issued.ExpiresAt.After(time.Now()))

	claims, err := a.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, actor, claims.Actor())
	assert.Equal(t, issued.ExpiresAt, claims.ExpiresAt)
}

func TestValidateToken_Rejects(t *testing.T) {
	a := newTestAuth()
	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: sign(jwt.MapClaims{"user_id": "u", "role": "tenant", "exp": future, "iss": "rentdesk"}, "other")},
		{name: "expired", token: sign(jwt.MapClaims{"user_id": "u", "role": "tenant", "exp": time.Now().Add(-time.Minute).Unix(), "iss": "rentdesk"}, "local-development-secret")},
		{name: "missing user", token: sign(jwt.MapClaims{"role": "tenant", "exp": future, "iss": "rentdesk"}, "local-development-secret")},
		{name: "unknown role", token: sign(jwt.MapClaims{"user_id": "u", "role": "admin", "exp": future, "iss": "rentdesk"}, "local-development-secret")},
		{name: "wrong issuer", token: sign(jwt.MapClaims{"user_id": "u", "role": "tenant", "exp": future, "iss": "elsewhere"}, "local-development-secret")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.ValidateToken(context.Background(), tt.token)
			require.Error(t, err)
			assert.True(t, ierr.IsPermissionDenied(err))
		})
	}
}

func TestIssueToken_InvalidActor(t *testing.T) {
	_, _, err := newTestAuth().IssueToken(context.Background(), types.Actor{Role: types.RoleTenant})
	require.Error(t, err)
}
