package internal

import (
	"context"
	"fmt"
	"os"

	"github.com/rentdesk/rentdesk/internal/auth"
	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/types"
)

// IssueToken signs a token with the configured secret. Production tokens
// come from the identity service that shares the secret.
func IssueToken() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}

	actor := types.Actor{
		UserID: os.Getenv("USER_ID"),
		Role:   types.Role(os.Getenv("USER_ROLE")),
		Email:  os.Getenv("USER_EMAIL"),
	}

	token, claims, err := auth.NewProvider(cfg).IssueToken(context.Background(), actor)
	if err != nil {
		return err
	}

	logger.L.Infow("issued token",
		"user_id", claims.UserID,
		"role", claims.Role,
		"expires_at", claims.ExpiresAt,
	)
	fmt.Println(token)
	return nil
}
