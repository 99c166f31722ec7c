package dto

import (
	"time"

	"github.com/rentdesk/rentdesk/internal/billing"
	"github.com/rentdesk/rentdesk/internal/domain/invoice"
	"github.com/rentdesk/rentdesk/internal/domain/payment"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/rentdesk/rentdesk/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// InvoiceLineRequest is one charge as entered by the landlord. Amount is what
// the client displayed and is only checked, never stored.
type InvoiceLineRequest struct {
	ItemType    types.InvoiceLineItemType `json:"item_type" validate:"required"`
	Description string                    `json:"description,omitempty" validate:"omitempty,max=255"`
	Quantity    decimal.Decimal           `json:"quantity"`
	UnitPrice   decimal.Decimal           `json:"unit_price"`
	Amount      *decimal.Decimal          `json:"amount,omitempty"`
	Meta        types.JSONMap             `json:"meta,omitempty"`
}

// CreateInvoiceRequest represents the request to bill a tenancy for a period
type CreateInvoiceRequest struct {
	TenancyID string               `json:"tenancy_id" validate:"required"`
	Period    string               `json:"period" validate:"required"`
	Lines     []InvoiceLineRequest `json:"lines" validate:"dive"`
	DueDate   *string              `json:"due_date,omitempty"`
	Notes     string               `json:"notes,omitempty" validate:"omitempty,max=2000"`
	// Draft keeps the invoice unissued. It is not visible as payable until issued.
	Draft bool `json:"draft,omitempty"`
	// Meter appends electricity and water lines priced from the room's reading for the period
	Meter *MeterChargesRequest `json:"meter,omitempty"`
}

func (r *CreateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if _, err := types.ParsePeriod(r.Period); err != nil {
		return err
	}
	if _, err := r.ParsedDueDate(); err != nil {
		return err
	}
	return nil
}

// ParsedDueDate returns the due date as midnight UTC, or nil when omitted
func (r *CreateInvoiceRequest) ParsedDueDate() (*time.Time, error) {
	return parseOptionalDate("due_date", r.DueDate)
}

// LineInputs converts the request lines into billing inputs
func (r *CreateInvoiceRequest) LineInputs() []billing.LineInput {
	return toLineInputs(r.Lines)
}

// UpdateInvoiceLinesRequest replaces every line of an invoice. Due date and
// notes are only changed when present.
type UpdateInvoiceLinesRequest struct {
	Lines   []InvoiceLineRequest `json:"lines" validate:"dive"`
	DueDate *string              `json:"due_date,omitempty"`
	Notes   *string              `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func (r *UpdateInvoiceLinesRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if _, err := r.ParsedDueDate(); err != nil {
		return err
	}
	return nil
}

func (r *UpdateInvoiceLinesRequest) ParsedDueDate() (*time.Time, error) {
	return parseOptionalDate("due_date", r.DueDate)
}

func (r *UpdateInvoiceLinesRequest) LineInputs() []billing.LineInput {
	return toLineInputs(r.Lines)
}

func toLineInputs(lines []InvoiceLineRequest) []billing.LineInput {
	return lo.Map(lines, func(l InvoiceLineRequest, _ int) billing.LineInput {
		return billing.LineInput{
			ItemType:        l.ItemType,
			Description:     l.Description,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DisplayedAmount: l.Amount,
			Meta:            l.Meta,
		}
	})
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := types.ParseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// InvoiceLineResponse is a stored line with its derived amount
type InvoiceLineResponse struct {
	ID          string                    `json:"id"`
	Position    int                       `json:"position"`
	ItemType    types.InvoiceLineItemType `json:"item_type"`
	Description string                    `json:"description,omitempty"`
	Quantity    decimal.Decimal           `json:"quantity"`
	UnitPrice   decimal.Decimal           `json:"unit_price"`
	Amount      decimal.Decimal           `json:"amount"`
	Meta        types.JSONMap             `json:"meta,omitempty"`
}

// InvoiceViewResponse is the authoritative state of an invoice. Status, paid
// and due amounts are derived from the ledger at response time.
type InvoiceViewResponse struct {
	ID            string                 `json:"id"`
	InvoiceNumber string                 `json:"invoice_number"`
	TenancyID     string                 `json:"tenancy_id"`
	Period        string                 `json:"period"`
	Status        types.InvoiceStatus    `json:"status"`
	TotalAmount   decimal.Decimal        `json:"total_amount"`
	AmountPaid    decimal.Decimal        `json:"amount_paid"`
	AmountDue     decimal.Decimal        `json:"amount_due"`
	DueDate       *time.Time             `json:"due_date,omitempty"`
	Notes         string                 `json:"notes,omitempty"`
	IssuedAt      *time.Time             `json:"issued_at,omitempty"`
	PaidAt        *time.Time             `json:"paid_at,omitempty"`
	VoidedAt      *time.Time             `json:"voided_at,omitempty"`
	Version       int                    `json:"version"`
	Lines         []*InvoiceLineResponse `json:"lines,omitempty"`
	Payments      []*PaymentResponse     `json:"payments,omitempty"`
	Warnings      []types.InvoiceWarning `json:"warnings,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// NewInvoiceViewResponse renders an invoice whose derived fields are already current
func NewInvoiceViewResponse(inv *invoice.Invoice, payments []*payment.Payment, warnings []types.InvoiceWarning) *InvoiceViewResponse {
	if inv == nil {
		return nil
	}
	resp := &InvoiceViewResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		TenancyID:     inv.TenancyID,
		Period:        inv.Period,
		Status:        inv.InvoiceStatus,
		TotalAmount:   inv.TotalAmount,
		AmountPaid:    inv.AmountPaid,
		AmountDue:     inv.AmountDue,
		DueDate:       inv.DueDate,
		Notes:         inv.Notes,
		IssuedAt:      inv.IssuedAt,
		PaidAt:        inv.PaidAt,
		VoidedAt:      inv.VoidedAt,
		Version:       inv.Version,
		Warnings:      warnings,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	resp.Lines = lo.Map(inv.LineItems, func(l *invoice.LineItem, _ int) *InvoiceLineResponse {
		return &InvoiceLineResponse{
			ID:          l.ID,
			Position:    l.Position,
			ItemType:    l.ItemType,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Amount:      l.Amount,
			Meta:        l.Meta,
		}
	})
	if payments != nil {
		resp.Payments = lo.Map(payments, func(p *payment.Payment, _ int) *PaymentResponse {
			return NewPaymentResponse(p)
		})
	}
	return resp
}

// ListInvoicesResponse represents the response for listing invoices
type ListInvoicesResponse = types.ListResponse[*InvoiceViewResponse]

// OverdueSweepResponse summarizes one run of the overdue sweep
type OverdueSweepResponse struct {
	DryRun         bool     `json:"dry_run"`
	Checked        int      `json:"checked"`
	Marked         int      `json:"marked"`
	InvoiceIDs     []string `json:"invoice_ids,omitempty"`
	InvitesExpired int      `json:"invites_expired"`
}
