package meter

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/types"
)

type Repository interface {
	// Create fails with an already exists error when the room has a reading for the period
	Create(ctx context.Context, r *Reading) error
	Get(ctx context.Context, id string) (*Reading, error)
	GetForPeriod(ctx context.Context, roomID, period string) (*Reading, error)
	List(ctx context.Context, filter *types.MeterReadingFilter) ([]*Reading, error)
	Count(ctx context.Context, filter *types.MeterReadingFilter) (int, error)
}
