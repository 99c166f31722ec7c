package billing

import (
	"testing"

	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type entry struct {
	amount decimal.Decimal
	status types.PaymentStatus
}

func (e entry) GetAmount() decimal.Decimal     { return e.amount }
func (e entry) GetStatus() types.PaymentStatus { return e.status }

func TestTotalCompleted(t *testing.T) {
	entries := []entry{
		{amount: dec("1175000"), status: types.PaymentStatusCompleted},
		{amount: dec("500000"), status: types.PaymentStatusPending},
		{amount: dec("300000"), status: types.PaymentStatusFailed},
		{amount: dec("100000"), status: types.PaymentStatusRefunded},
		{amount: dec("2500000"), status: types.PaymentStatusCompleted},
	}

	assert.True(t, dec("3675000").Equal(TotalCompleted(entries)))
	assert.True(t, decimal.Zero.Equal(TotalCompleted([]entry{})))
}

func TestAmountDue(t *testing.T) {
	tests := []struct {
		name  string
		total string
		paid  string
		want  string
	}{
		{name: "nothing paid", total: "3175000", paid: "0", want: "3175000"},
		{name: "partially paid", total: "3175000", paid: "1175000", want: "2000000"},
		{name: "fully paid", total: "3675000", paid: "3675000", want: "0"},
		{name: "overpaid clamps at zero", total: "100", paid: "150", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, dec(tt.want).Equal(AmountDue(dec(tt.total), dec(tt.paid))))
		})
	}
}
