package payment

import (
	"context"
	"time"

	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
)

// Payment is a ledger entry against an invoice. Only completed payments
// count toward the amount paid.
type Payment struct {
	ID             string              `db:"id" json:"id"`
	InvoiceID      string              `db:"invoice_id" json:"invoice_id"`
	Amount         decimal.Decimal     `db:"amount" json:"amount"`
	Method         types.PaymentMethod `db:"payment_method" json:"method"`
	PaymentStatus  types.PaymentStatus `db:"payment_status" json:"status"`
	IdempotencyKey string              `db:"idempotency_key" json:"-"`
	ProviderRef    string              `db:"provider_ref" json:"provider_ref,omitempty"`
	Note           string              `db:"note" json:"note,omitempty"`
	PaidAt         *time.Time          `db:"paid_at" json:"paid_at,omitempty"`
	FailedAt       *time.Time          `db:"failed_at" json:"failed_at,omitempty"`
	types.BaseModel
}

func (p *Payment) GetAmount() decimal.Decimal {
	return p.Amount
}

func (p *Payment) GetStatus() types.PaymentStatus {
	return p.PaymentStatus
}

// New builds a payment with the given initial status. Completed payments get
// paid_at stamped right away.
func New(ctx context.Context, invoiceID string, amount decimal.Decimal, method types.PaymentMethod, status types.PaymentStatus, key string, now time.Time) *Payment {
	p := &Payment{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		InvoiceID:      invoiceID,
		Amount:         amount,
		Method:         method,
		PaymentStatus:  status,
		IdempotencyKey: key,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
	if status == types.PaymentStatusCompleted {
		p.PaidAt = &now
	}
	return p
}

// Matches reports whether a replayed request carries the same parameters
func (p *Payment) Matches(invoiceID string, amount decimal.Decimal, method types.PaymentMethod) bool {
	return p.InvoiceID == invoiceID && p.Amount.Equal(amount) && p.Method == method
}

// Transition moves a pending payment to completed or failed.
// Anything else is rejected and the payment is left untouched.
func (p *Payment) Transition(to types.PaymentStatus, now time.Time) error {
	if p.PaymentStatus != types.PaymentStatusPending {
		return ierr.NewError("payment is no longer pending").
			WithHintf("A %s payment cannot change status", p.PaymentStatus).
			WithReportableDetails(map[string]any{"status": p.PaymentStatus}).
			Mark(ierr.ErrImmutableState)
	}

	switch to {
	case types.PaymentStatusCompleted:
		p.PaidAt = &now
	case types.PaymentStatusFailed:
		p.FailedAt = &now
	default:
		return ierr.NewError("unsupported payment status transition").
			WithHint("A pending payment can only be completed or failed").
			WithReportableDetails(map[string]any{"from": p.PaymentStatus, "to": to}).
			WithField("status").
			Mark(ierr.ErrValidation)
	}
	p.PaymentStatus = to
	return nil
}
