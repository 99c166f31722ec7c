package dto

import (
	"strings"
	"time"

	"github.com/rentdesk/rentdesk/internal/billing"
	"github.com/rentdesk/rentdesk/internal/domain/payment"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/rentdesk/rentdesk/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// RecordPaymentRequest represents a payment submitted against an invoice.
// The idempotency key may also arrive in the Idempotency-Key header.
type RecordPaymentRequest struct {
	Amount         decimal.Decimal     `json:"amount"`
	Method         types.PaymentMethod `json:"method" validate:"required"`
	IdempotencyKey string              `json:"idempotency_key" validate:"max=100"`
	ProviderRef    string              `json:"provider_ref,omitempty" validate:"omitempty,max=100"`
	Note           string              `json:"note,omitempty" validate:"omitempty,max=500"`
	// Pending records the payment unconfirmed. It does not count toward the
	// amount paid until confirmed.
	Pending bool `json:"pending,omitempty"`
}

func (r *RecordPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if !r.Amount.IsPositive() {
		return ierr.NewError("payment amount must be positive").
			WithHint("Amount must be greater than zero").
			WithReportableDetails(map[string]any{"amount": r.Amount.String()}).
			WithField("amount").
			Mark(ierr.ErrValidation)
	}
	if !billing.FitsPrecision(r.Amount, billing.AmountPrecision) {
		return ierr.NewError("payment amount has too many decimals").
			WithHintf("Amount can have at most %d decimals", billing.AmountPrecision).
			WithReportableDetails(map[string]any{"amount": r.Amount.String()}).
			WithField("amount").
			Mark(ierr.ErrValidation)
	}
	if strings.TrimSpace(r.IdempotencyKey) == "" {
		return ierr.NewError("idempotency key is required").
			WithHint("Send an Idempotency-Key header or idempotency_key field").
			WithField("idempotency_key").
			Mark(ierr.ErrValidation)
	}
	return r.Method.Validate()
}

// InitialStatus is the ledger status the payment is created with
func (r *RecordPaymentRequest) InitialStatus() types.PaymentStatus {
	if r.Pending {
		return types.PaymentStatusPending
	}
	return types.PaymentStatusCompleted
}

// UpdatePaymentStatusRequest confirms or fails a pending payment
type UpdatePaymentStatusRequest struct {
	Status types.PaymentStatus `json:"status" validate:"required,oneof=completed failed"`
}

func (r *UpdatePaymentStatusRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// PaymentResponse represents a payment response
type PaymentResponse struct {
	ID          string              `json:"id"`
	InvoiceID   string              `json:"invoice_id"`
	Amount      decimal.Decimal     `json:"amount"`
	Method      types.PaymentMethod `json:"method"`
	Status      types.PaymentStatus `json:"status"`
	ProviderRef string              `json:"provider_ref,omitempty"`
	Note        string              `json:"note,omitempty"`
	PaidAt      *time.Time          `json:"paid_at,omitempty"`
	FailedAt    *time.Time          `json:"failed_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	CreatedBy   string              `json:"created_by"`
}

func NewPaymentResponse(p *payment.Payment) *PaymentResponse {
	if p == nil {
		return nil
	}
	return &PaymentResponse{
		ID:          p.ID,
		InvoiceID:   p.InvoiceID,
		Amount:      p.Amount,
		Method:      p.Method,
		Status:      p.PaymentStatus,
		ProviderRef: p.ProviderRef,
		Note:        p.Note,
		PaidAt:      p.PaidAt,
		FailedAt:    p.FailedAt,
		CreatedAt:   p.CreatedAt,
		CreatedBy:   p.CreatedBy,
	}
}

// RecordPaymentResponse carries the payment and the invoice as it stands after it.
// Replayed is set when the idempotency key matched an earlier submission.
type RecordPaymentResponse struct {
	Payment  *PaymentResponse       `json:"payment"`
	Invoice  *InvoiceViewResponse   `json:"invoice"`
	Warnings []types.InvoiceWarning `json:"warnings,omitempty"`
	Replayed bool                   `json:"replayed"`
}

// PaymentStatusResponse is returned after a pending payment is settled
type PaymentStatusResponse struct {
	Payment  *PaymentResponse       `json:"payment"`
	Invoice  *InvoiceViewResponse   `json:"invoice"`
	Warnings []types.InvoiceWarning `json:"warnings,omitempty"`
}

// ListPaymentsResponse represents the ledger of one invoice
type ListPaymentsResponse = types.ListResponse[*PaymentResponse]

func NewListPaymentsResponse(payments []*payment.Payment) *ListPaymentsResponse {
	items := lo.Map(payments, func(p *payment.Payment, _ int) *PaymentResponse {
		return NewPaymentResponse(p)
	})
	resp := types.NewListResponse(items, len(items), len(items), 0)
	return &resp
}
