package meter

import (
	"context"
	"testing"

	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(eOld, eNew, wOld, wNew string) *Reading {
	return New(context.Background(), "tncy_1", "room_1", "2025-03",
		decimal.RequireFromString(eOld), decimal.RequireFromString(eNew),
		decimal.RequireFromString(wOld), decimal.RequireFromString(wNew),
		types.MeterReadingSourceManual, "")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		reading *Reading
		field   string
	}{
		{name: "valid", reading: reading("1200", "1320.5", "40", "45")},
		{name: "no usage", reading: reading("1200", "1200", "40", "40")},
		{name: "electricity backwards", reading: reading("1200", "1100", "40", "45"), field: "electricity_new"},
		{name: "water backwards", reading: reading("1200", "1300", "40", "39.99"), field: "water_new"},
		{name: "negative index", reading: reading("-1", "10", "40", "45"), field: "electricity_old"},
		{name: "too many decimals", reading: reading("1200", "1300", "40", "45.001"), field: "water_new"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reading.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, ierr.IsValidation(err))
			assert.Equal(t, tt.field, ierr.Field(err))
		})
	}
}

func TestLines_PricesUsage(t *testing.T) {
	r := reading("1200", "1320.5", "40", "40")
	lines := r.Lines(decimal.NewFromInt(3500), decimal.NewFromInt(20000))

	require.Len(t, lines, 1)
	assert.Equal(t, types.InvoiceLineItemTypeElectricity, lines[0].ItemType)
	assert.True(t, lines[0].Quantity.Equal(decimal.RequireFromString("120.5")))
	assert.True(t, lines[0].UnitPrice.Equal(decimal.NewFromInt(3500)))
	assert.Equal(t, r.ID, lines[0].Meta["meter_reading_id"])
	assert.Equal(t, "1200", lines[0].Meta["old"])
	assert.Equal(t, "1320.5", lines[0].Meta["new"])
}
