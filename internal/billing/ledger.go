package billing

import (
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
)

// LedgerEntry is anything recorded against an invoice that may carry money
type LedgerEntry interface {
	GetAmount() decimal.Decimal
	GetStatus() types.PaymentStatus
}

// TotalCompleted sums completed entries only
func TotalCompleted[E LedgerEntry](entries []E) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.GetStatus() == types.PaymentStatusCompleted {
			total = total.Add(e.GetAmount())
		}
	}
	return total
}

// AmountDue is what remains to be paid, never below zero
func AmountDue(total, paid decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, total.Sub(paid))
}
