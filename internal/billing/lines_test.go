package billing

import (
	"testing"

	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(itemType types.InvoiceLineItemType, qty, price string) LineInput {
	return LineInput{ItemType: itemType, Quantity: dec(qty), UnitPrice: dec(price)}
}

func TestComputeLines(t *testing.T) {
	tests := []struct {
		name      string
		inputs    []LineInput
		wantTotal string
		wantLines []string
		wantField string
	}{
		{
			name: "rent and metered electricity",
			inputs: []LineInput{
				line(types.InvoiceLineItemTypeRent, "1", "3000000"),
				line(types.InvoiceLineItemTypeElectricity, "50", "3500"),
			},
			wantTotal: "3175000",
			wantLines: []string{"3000000", "175000"},
		},
		{
			name: "fractional quantity rounds half up",
			inputs: []LineInput{
				line(types.InvoiceLineItemTypeWater, "2.5", "1.01"),
			},
			wantTotal: "2.53",
			wantLines: []string{"2.53"},
		},
		{
			name: "total is the sum of rounded line amounts",
			inputs: []LineInput{
				line(types.InvoiceLineItemTypeService, "0.5", "0.01"),
				line(types.InvoiceLineItemTypeService, "0.5", "0.01"),
				line(types.InvoiceLineItemTypeService, "0.5", "0.01"),
			},
			wantTotal: "0.03",
			wantLines: []string{"0.01", "0.01", "0.01"},
		},
		{
			name: "adjustment credit reduces total",
			inputs: []LineInput{
				line(types.InvoiceLineItemTypeRent, "1", "3000000"),
				line(types.InvoiceLineItemTypeAdjustment, "1", "-200000"),
			},
			wantTotal: "2800000",
			wantLines: []string{"3000000", "-200000"},
		},
		{
			name: "zero quantity is allowed",
			inputs: []LineInput{
				line(types.InvoiceLineItemTypeRent, "1", "100"),
				line(types.InvoiceLineItemTypeInternet, "0", "150000"),
			},
			wantTotal: "100",
			wantLines: []string{"100", "0"},
		},
		{
			name: "trailing zeros beyond the stored precision",
			inputs: []LineInput{
				line(types.InvoiceLineItemTypeWater, "10.50000", "0.1200"),
			},
			wantTotal: "1.26",
			wantLines: []string{"1.26"},
		},
		{
			name: "unit price below a cent",
			inputs: []LineInput{
				line(types.InvoiceLineItemTypeElectricity, "10", "0.125"),
			},
			wantField: "lines[0].unit_price",
		},
		{
			name: "quantity beyond four decimals",
			inputs: []LineInput{
				line(types.InvoiceLineItemTypeRent, "1", "100"),
				line(types.InvoiceLineItemTypeWater, "1.00005", "100"),
			},
			wantField: "lines[1].quantity",
		},
		{
			name:      "no lines",
			inputs:    nil,
			wantField: "lines",
		},
		{
			name: "negative quantity",
			inputs: []LineInput{
				line(types.InvoiceLineItemTypeRent, "1", "100"),
				line(types.InvoiceLineItemTypeWater, "-1", "100"),
			},
			wantField: "lines[1].quantity",
		},
		{
			name: "negative price outside adjustment",
			inputs: []LineInput{
				line(types.InvoiceLineItemTypeCleaning, "1", "-5"),
			},
			wantField: "lines[0].unit_price",
		},
		{
			name: "unknown item type",
			inputs: []LineInput{
				line(types.InvoiceLineItemType("parking"), "1", "5"),
			},
			wantField: "lines[0].item_type",
		},
		{
			name: "credits exceeding charges",
			inputs: []LineInput{
				line(types.InvoiceLineItemTypeRent, "1", "100"),
				line(types.InvoiceLineItemTypeAdjustment, "1", "-150"),
			},
			wantField: "lines",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := ComputeLines(tt.inputs, DefaultDisplayTolerance)
			if tt.wantField != "" {
				require.Error(t, err)
				assert.True(t, ierr.IsValidation(err))
				assert.Equal(t, tt.wantField, ierr.Field(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tt.wantTotal).Equal(set.Total), "total %s", set.Total)
			require.Len(t, set.Lines, len(tt.wantLines))

			sum := decimal.Zero
			for i, l := range set.Lines {
				assert.True(t, dec(tt.wantLines[i]).Equal(l.Amount), "line %d amount %s", i, l.Amount)
				assert.True(t, LineAmount(l.Quantity, l.UnitPrice).Equal(l.Amount))
				sum = sum.Add(l.Amount)
			}
			assert.True(t, sum.Equal(set.Total))
		})
	}
}

func TestComputeLines_DisplayedAmountTolerance(t *testing.T) {
	tests := []struct {
		name      string
		displayed string
		wantErr   bool
	}{
		{name: "exact", displayed: "175000"},
		{name: "within a cent", displayed: "175000.01"},
		{name: "within a cent below", displayed: "174999.99"},
		{name: "stale ui value", displayed: "174999.98", wantErr: true},
		{name: "old unit price", displayed: "150000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := line(types.InvoiceLineItemTypeElectricity, "50", "3500")
			in.DisplayedAmount = lo.ToPtr(dec(tt.displayed))

			_, err := ComputeLines([]LineInput{in}, DefaultDisplayTolerance)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, ierr.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFitsPrecision(t *testing.T) {
	assert.True(t, FitsPrecision(dec("1.25"), AmountPrecision))
	assert.True(t, FitsPrecision(dec("1.2500"), AmountPrecision))
	assert.True(t, FitsPrecision(dec("-200000"), AmountPrecision))
	assert.False(t, FitsPrecision(dec("1.245"), AmountPrecision))
	assert.False(t, FitsPrecision(dec("0.00001"), QuantityPrecision))
}

func TestRoundAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "1.005", want: "1.01"},
		{in: "1.004", want: "1"},
		{in: "2.345", want: "2.35"},
		{in: "-2.345", want: "-2.35"},
		{in: "3175000", want: "3175000"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.True(t, dec(tt.want).Equal(RoundAmount(dec(tt.in))))
		})
	}
}
