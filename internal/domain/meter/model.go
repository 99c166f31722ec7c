package meter

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/billing"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Reading is the electricity and water meter state of a room for one billing
// period. A room has at most one reading per period.
type Reading struct {
	ID             string                   `db:"id" json:"id"`
	TenancyID      string                   `db:"tenancy_id" json:"tenancy_id"`
	RoomID         string                   `db:"room_id" json:"room_id"`
	Period         string                   `db:"period" json:"period"`
	ElectricityOld decimal.Decimal          `db:"electricity_old" json:"electricity_old"`
	ElectricityNew decimal.Decimal          `db:"electricity_new" json:"electricity_new"`
	WaterOld       decimal.Decimal          `db:"water_old" json:"water_old"`
	WaterNew       decimal.Decimal          `db:"water_new" json:"water_new"`
	Source         types.MeterReadingSource `db:"source" json:"source"`
	Notes          string                   `db:"notes" json:"notes,omitempty"`
	types.BaseModel
}

// New records a reading against the room of the tenancy
func New(ctx context.Context, tenancyID, roomID, period string, electricityOld, electricityNew, waterOld, waterNew decimal.Decimal, source types.MeterReadingSource, notes string) *Reading {
	return &Reading{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_METER_READING),
		TenancyID:      tenancyID,
		RoomID:         roomID,
		Period:         period,
		ElectricityOld: electricityOld,
		ElectricityNew: electricityNew,
		WaterOld:       waterOld,
		WaterNew:       waterNew,
		Source:         source,
		Notes:          notes,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
}

func (r *Reading) ElectricityUsage() decimal.Decimal {
	return r.ElectricityNew.Sub(r.ElectricityOld)
}

func (r *Reading) WaterUsage() decimal.Decimal {
	return r.WaterNew.Sub(r.WaterOld)
}

// Validate rejects negative indexes, a meter running backwards and indexes
// finer than two decimals.
func (r *Reading) Validate() error {
	meters := []struct {
		name     string
		old, new decimal.Decimal
	}{
		{"electricity", r.ElectricityOld, r.ElectricityNew},
		{"water", r.WaterOld, r.WaterNew},
	}
	for _, m := range meters {
		for i, v := range []decimal.Decimal{m.old, m.new} {
			field := m.name + lo.Ternary(i == 0, "_old", "_new")
			if v.IsNegative() {
				return ierr.NewError("meter index is negative").
					WithHint("Meter indexes cannot be negative").
					WithField(field).
					Mark(ierr.ErrValidation)
			}
			if !billing.FitsPrecision(v, billing.AmountPrecision) {
				return ierr.NewError("meter index has too many decimals").
					WithHint("Meter indexes have at most two decimals").
					WithField(field).
					Mark(ierr.ErrValidation)
			}
		}
		if m.new.LessThan(m.old) {
			return ierr.NewError("meter ran backwards").
				WithHintf("The new %s index must not be lower than the old one", m.name).
				WithField(m.name + "_new").
				WithReportableDetails(map[string]any{
					"old": m.old.String(),
					"new": m.new.String(),
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// Lines prices the usage of the period. A meter with no usage yields no line.
func (r *Reading) Lines(electricityPrice, waterPrice decimal.Decimal) []billing.LineInput {
	var lines []billing.LineInput
	if usage := r.ElectricityUsage(); usage.IsPositive() {
		lines = append(lines, r.line(types.InvoiceLineItemTypeElectricity, "Electricity", usage, electricityPrice, r.ElectricityOld, r.ElectricityNew))
	}
	if usage := r.WaterUsage(); usage.IsPositive() {
		lines = append(lines, r.line(types.InvoiceLineItemTypeWater, "Water", usage, waterPrice, r.WaterOld, r.WaterNew))
	}
	return lines
}

func (r *Reading) line(itemType types.InvoiceLineItemType, description string, usage, price, old, new decimal.Decimal) billing.LineInput {
	return billing.LineInput{
		ItemType:    itemType,
		Description: description + " " + r.Period,
		Quantity:    usage,
		UnitPrice:   price,
		Meta: types.JSONMap{
			"meter_reading_id": r.ID,
			"old":              old.String(),
			"new":              new.String(),
		},
	}
}
