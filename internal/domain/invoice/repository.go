package invoice

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/types"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// Create inserts the invoice together with its line items
	Create(ctx context.Context, invoice *Invoice) error

	// Get retrieves an invoice by ID with its line items
	Get(ctx context.Context, id string) (*Invoice, error)

	// GetForUpdate is Get with a row lock held until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id string) (*Invoice, error)

	// Update persists header fields if invoice.Version still matches the stored
	// row, then bumps the version. A stale version yields ErrVersionConflict.
	Update(ctx context.Context, invoice *Invoice) error

	// ReplaceLineItems deletes the current lines and inserts the given ones
	ReplaceLineItems(ctx context.Context, invoiceID string, items []*LineItem) error

	// ExistsForPeriod reports whether a non-void invoice is already billed for the tenancy and period
	ExistsForPeriod(ctx context.Context, tenancyID, period string) (bool, error)

	// List retrieves invoices based on filter criteria, without line items
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)

	// Count returns the total count of invoices based on filter criteria
	Count(ctx context.Context, filter *types.InvoiceFilter) (int, error)
}
