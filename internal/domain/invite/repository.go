package invite

import (
	"context"
	"time"

	"github.com/rentdesk/rentdesk/internal/types"
)

type Repository interface {
	Create(ctx context.Context, invite *Invite) error
	Get(ctx context.Context, id string) (*Invite, error)
	GetByToken(ctx context.Context, token string) (*Invite, error)

	// UpdateStatus writes the response fields only if the stored status is still
	// expected. Otherwise it returns ErrVersionConflict and writes nothing.
	UpdateStatus(ctx context.Context, invite *Invite, expected types.InviteStatus) error

	// ExpirePending moves every pending invite with expires_at <= now to expired
	// and returns the affected invites.
	ExpirePending(ctx context.Context, now time.Time) ([]*Invite, error)

	// CountExpirable counts what ExpirePending would touch
	CountExpirable(ctx context.Context, now time.Time) (int, error)
}
