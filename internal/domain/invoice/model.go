package invoice

import (
	"context"
	"time"

	"github.com/rentdesk/rentdesk/internal/billing"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice represents the invoice domain model. AmountPaid, AmountDue and
// Status are a cache of the payment ledger and are recomputed on every write.
type Invoice struct {
	ID            string              `db:"id" json:"id"`
	InvoiceNumber string              `db:"invoice_number" json:"invoice_number"`
	TenancyID     string              `db:"tenancy_id" json:"tenancy_id"`
	Period        string              `db:"period" json:"period"`
	InvoiceStatus types.InvoiceStatus `db:"invoice_status" json:"invoice_status"`
	TotalAmount   decimal.Decimal     `db:"total_amount" json:"total_amount"`
	AmountPaid    decimal.Decimal     `db:"amount_paid" json:"amount_paid"`
	AmountDue     decimal.Decimal     `db:"amount_due" json:"amount_due"`
	DueDate       *time.Time          `db:"due_date" json:"due_date,omitempty"`
	Notes         string              `db:"notes" json:"notes,omitempty"`
	IssuedAt      *time.Time          `db:"issued_at" json:"issued_at,omitempty"`
	PaidAt        *time.Time          `db:"paid_at" json:"paid_at,omitempty"`
	VoidedAt      *time.Time          `db:"voided_at" json:"voided_at,omitempty"`
	Version       int                 `db:"version" json:"version"`
	LineItems     []*LineItem         `db:"-" json:"line_items,omitempty"`
	types.BaseModel
}

// New builds a fresh invoice from a priced line set
func New(ctx context.Context, tenancyID, period string, set *billing.LineSet, dueDate *time.Time, notes string) *Invoice {
	inv := &Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		InvoiceNumber: types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_INVOICE),
		TenancyID:     tenancyID,
		Period:        period,
		InvoiceStatus: types.InvoiceStatusDraft,
		TotalAmount:   set.Total,
		AmountPaid:    decimal.Zero,
		AmountDue:     set.Total,
		DueDate:       dueDate,
		Notes:         notes,
		Version:       1,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	inv.LineItems = NewLineItems(ctx, inv.ID, set)
	return inv
}

// IsIssued is false while the invoice is a draft
func (i *Invoice) IsIssued() bool {
	return i.IssuedAt != nil
}

func (i *Invoice) IsVoided() bool {
	return i.VoidedAt != nil
}

// State returns the inputs status derivation works from, given the ledger sum
func (i *Invoice) State(paid decimal.Decimal) billing.State {
	return billing.State{
		Total:   i.TotalAmount,
		Paid:    paid,
		DueDate: i.DueDate,
		Issued:  i.IsIssued(),
		Voided:  i.IsVoided(),
	}
}

// Apply copies derived values onto the invoice and stamps paid_at the first
// time the invoice settles.
func (i *Invoice) Apply(d billing.Derived, now time.Time) {
	i.InvoiceStatus = d.Status
	i.AmountPaid = d.AmountPaid
	i.AmountDue = d.AmountDue
	if d.Status == types.InvoiceStatusPaid && i.PaidAt == nil {
		i.PaidAt = &now
	}
}

// Refresh re-derives status against the given ledger sum and clock
func (i *Invoice) Refresh(paid decimal.Decimal, now time.Time) {
	i.Apply(billing.Derive(i.State(paid), now), now)
}

// ReplaceLines swaps the line set and the total that goes with it
func (i *Invoice) ReplaceLines(ctx context.Context, set *billing.LineSet) {
	i.TotalAmount = set.Total
	i.LineItems = NewLineItems(ctx, i.ID, set)
}
