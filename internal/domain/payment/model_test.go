package payment

import (
	"context"
	"testing"
	"time"

	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentTransition(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		from    types.PaymentStatus
		to      types.PaymentStatus
		wantErr func(error) bool
	}{
		{name: "pending to completed", from: types.PaymentStatusPending, to: types.PaymentStatusCompleted},
		{name: "pending to failed", from: types.PaymentStatusPending, to: types.PaymentStatusFailed},
		{name: "pending to refunded", from: types.PaymentStatusPending, to: types.PaymentStatusRefunded, wantErr: ierr.IsValidation},
		{name: "completed is immutable", from: types.PaymentStatusCompleted, to: types.PaymentStatusFailed, wantErr: ierr.IsImmutableState},
		{name: "failed is immutable", from: types.PaymentStatusFailed, to: types.PaymentStatusCompleted, wantErr: ierr.IsImmutableState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(context.Background(), "inv_1", decimal.NewFromInt(100), types.PaymentMethodCash, tt.from, "key", now)
			err := p.Transition(tt.to, now)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err))
				assert.Equal(t, tt.from, p.PaymentStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, p.PaymentStatus)
		})
	}
}

func TestPaymentMatches(t *testing.T) {
	p := New(context.Background(), "inv_1", decimal.RequireFromString("1175000"), types.PaymentMethodCash, types.PaymentStatusCompleted, "key", time.Now())

	assert.True(t, p.Matches("inv_1", decimal.RequireFromString("1175000.00"), types.PaymentMethodCash))
	assert.False(t, p.Matches("inv_2", decimal.RequireFromString("1175000"), types.PaymentMethodCash))
	assert.False(t, p.Matches("inv_1", decimal.RequireFromString("1175001"), types.PaymentMethodCash))
	assert.False(t, p.Matches("inv_1", decimal.RequireFromString("1175000"), types.PaymentMethodMomo))
	assert.NotNil(t, p.PaidAt)
}
