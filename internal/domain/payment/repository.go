package payment

import (
	"context"
)

// Repository defines the interface for payment persistence
type Repository interface {
	// Create appends a payment. A duplicate idempotency key yields ErrAlreadyExists.
	Create(ctx context.Context, payment *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	// UpdateStatus persists status and timestamps of a payment that is still pending
	UpdateStatus(ctx context.Context, payment *Payment) error
	GetByIdempotencyKey(ctx context.Context, key string) (*Payment, error)
	// ListByInvoice returns the full ledger of an invoice in creation order
	ListByInvoice(ctx context.Context, invoiceID string) ([]*Payment, error)
}
