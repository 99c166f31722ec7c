package billing

import (
	"time"

	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
)

// State is the source-of-truth input for status derivation
type State struct {
	Total   decimal.Decimal
	Paid    decimal.Decimal
	DueDate *time.Time
	// Issued is false while the invoice is still a draft
	Issued bool
	Voided bool
}

// Derived holds the fields that must be recomputed on every read
type Derived struct {
	Status     types.InvoiceStatus
	AmountPaid decimal.Decimal
	AmountDue  decimal.Decimal
}

// Derive computes status and amount due from totals and the completed ledger sum.
// Overdue is a view on pending or partial once the due date has passed.
func Derive(s State, now time.Time) Derived {
	d := Derived{
		AmountPaid: s.Paid,
		AmountDue:  AmountDue(s.Total, s.Paid),
	}
	pastDue := types.IsPastDue(s.DueDate, now)
	hasPayments := s.Paid.IsPositive()

	switch {
	case s.Voided:
		d.Status = types.InvoiceStatusVoid
	case !s.Issued && !hasPayments:
		d.Status = types.InvoiceStatusDraft
	case d.AmountDue.IsZero():
		d.Status = types.InvoiceStatusPaid
	case hasPayments && pastDue:
		d.Status = types.InvoiceStatusOverdue
	case hasPayments:
		d.Status = types.InvoiceStatusPartial
	case pastDue:
		d.Status = types.InvoiceStatusOverdue
	default:
		d.Status = types.InvoiceStatusPending
	}
	return d
}

var transitions = map[types.InvoiceStatus][]types.InvoiceStatus{
	types.InvoiceStatusDraft: {
		types.InvoiceStatusPending,
		types.InvoiceStatusOverdue,
		types.InvoiceStatusPaid,
		types.InvoiceStatusVoid,
	},
	types.InvoiceStatusPending: {
		types.InvoiceStatusPartial,
		types.InvoiceStatusPaid,
		types.InvoiceStatusOverdue,
		types.InvoiceStatusVoid,
	},
	types.InvoiceStatusPartial: {
		types.InvoiceStatusPaid,
		types.InvoiceStatusOverdue,
	},
	types.InvoiceStatusOverdue: {
		types.InvoiceStatusPartial,
		types.InvoiceStatusPaid,
		types.InvoiceStatusPending,
		types.InvoiceStatusVoid,
	},
	types.InvoiceStatusPaid: {},
	types.InvoiceStatusVoid: {},
}

// ValidateTransition rejects moves out of final states and any move the
// lifecycle does not define. Staying in the same state is always allowed.
func ValidateTransition(from, to types.InvoiceStatus) error {
	if from == to {
		return nil
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	if from.IsFinal() {
		return immutable(from)
	}
	return ierr.NewError("invalid invoice status transition").
		WithHintf("Invoice cannot move from %s to %s", from, to).
		WithReportableDetails(map[string]any{"from": from, "to": to}).
		Mark(ierr.ErrInvalidOperation)
}

// CheckEditable guards line, due date and notes edits
func CheckEditable(status types.InvoiceStatus) error {
	if status.IsFinal() {
		return immutable(status)
	}
	return nil
}

// CheckPayable guards new ledger entries against the invoice
func CheckPayable(status types.InvoiceStatus) error {
	switch status {
	case types.InvoiceStatusPaid, types.InvoiceStatusVoid:
		return immutable(status)
	case types.InvoiceStatusDraft:
		return ierr.NewError("invoice has not been issued").
			WithHint("Issue the invoice before recording payments").
			WithReportableDetails(map[string]any{"status": status}).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}

// EditWarnings reports non-fatal conditions of a line edit
func EditWarnings(newTotal, paid decimal.Decimal) []types.InvoiceWarning {
	if paid.IsPositive() && newTotal.LessThan(paid) {
		return []types.InvoiceWarning{types.WarningTotalBelowPaid}
	}
	return nil
}

// PaymentWarnings reports non-fatal conditions of a new payment against the due before it
func PaymentWarnings(amount, dueBefore decimal.Decimal) []types.InvoiceWarning {
	if amount.GreaterThan(dueBefore) {
		return []types.InvoiceWarning{types.WarningOverpayment}
	}
	return nil
}

func immutable(status types.InvoiceStatus) error {
	return ierr.NewError("invoice is in a final state").
		WithHintf("A %s invoice can no longer be changed", status).
		WithReportableDetails(map[string]any{"status": status}).
		Mark(ierr.ErrImmutableState)
}
