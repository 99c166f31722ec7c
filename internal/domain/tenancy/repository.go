package tenancy

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/types"
)

type Repository interface {
	Create(ctx context.Context, t *Tenancy) error
	Get(ctx context.Context, id string) (*Tenancy, error)

	// ListIDsForActor returns the tenancies the actor is a party to
	ListIDsForActor(ctx context.Context, actor types.Actor) ([]string, error)
}
