package auth

import (
	"context"
	"time"

	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/types"
)

// Claims are the identity facts carried by an access token
type Claims struct {
	UserID    string
	Role      types.Role
	Email     string
	ExpiresAt time.Time
}

// Actor converts the claims into the actor passed to services
func (c *Claims) Actor() types.Actor {
	return types.Actor{UserID: c.UserID, Role: c.Role, Email: c.Email}
}

type Provider interface {
	// IssueToken signs an access token for the actor
	IssueToken(ctx context.Context, actor types.Actor) (string, *Claims, error)
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

func NewProvider(cfg *config.Configuration) Provider {
	return NewJWTAuth(cfg)
}
