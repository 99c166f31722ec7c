package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rentdesk/rentdesk/internal/config"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
)

const defaultTokenTTL = 24 * time.Hour

type jwtAuth struct {
	AuthConfig config.AuthConfig
	now        func() time.Time
}

// NewJWTAuth signs and checks HS256 tokens with the configured secret
func NewJWTAuth(cfg *config.Configuration) *jwtAuth {
	return &jwtAuth{
		AuthConfig: cfg.Auth,
		now:        time.Now,
	}
}

func (a *jwtAuth) IssueToken(ctx context.Context, actor types.Actor) (string, *Claims, error) {
	if err := actor.Validate(); err != nil {
		return "", nil, err
	}

	ttl := a.AuthConfig.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	issuedAt := a.now()
	expiration := issuedAt.Add(ttl)

	claims := jwt.MapClaims{
		"user_id": actor.UserID,
		"role":    string(actor.Role),
		"exp":     expiration.Unix(),
		"iat":     issuedAt.Unix(),
	}
	if actor.Email != "" {
		claims["email"] = actor.Email
	}
	if a.AuthConfig.Issuer != "" {
		claims["iss"] = a.AuthConfig.Issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.AuthConfig.Secret))
	if err != nil {
		return "", nil, ierr.WithError(err).
			WithHint("Failed to generate token").
			Mark(ierr.ErrSystem)
	}

	return signed, &Claims{
		UserID:    actor.UserID,
		Role:      actor.Role,
		Email:     actor.Email,
		ExpiresAt: time.Unix(expiration.Unix(), 0).UTC(),
	}, nil
}

func (a *jwtAuth) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"])).
				Mark(ierr.ErrPermissionDenied)
		}
		return []byte(a.AuthConfig.Secret), nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token parse error").
			Mark(ierr.ErrPermissionDenied)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrPermissionDenied)
	}

	if a.AuthConfig.Issuer != "" && !claims.VerifyIssuer(a.AuthConfig.Issuer, true) {
		return nil, ierr.NewError("token issued elsewhere").
			WithHint("Invalid token issuer").
			Mark(ierr.ErrPermissionDenied)
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, ierr.NewError("token missing user ID").
			WithHint("Token missing user ID").
			Mark(ierr.ErrPermissionDenied)
	}

	role, _ := claims["role"].(string)
	if err := types.Role(role).Validate(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token carries an unknown role").
			Mark(ierr.ErrPermissionDenied)
	}

	email, _ := claims["email"].(string)

	result := &Claims{UserID: userID, Role: types.Role(role), Email: email}
	if exp, ok := claims["exp"].(float64); ok {
		result.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	return result, nil
}
