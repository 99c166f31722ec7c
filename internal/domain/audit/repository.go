package audit

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/types"
)

type Repository interface {
	// Create joins the transaction in ctx, so the entry commits or rolls back with the change
	Create(ctx context.Context, l *Log) error
	List(ctx context.Context, filter *types.AuditLogFilter) ([]*Log, error)
}
