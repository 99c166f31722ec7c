package dto

import (
	"time"

	"github.com/rentdesk/rentdesk/internal/domain/meter"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/rentdesk/rentdesk/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// SubmitMeterReadingRequest records the meter indexes of the tenancy's room for a period
type SubmitMeterReadingRequest struct {
	TenancyID      string                   `json:"tenancy_id" validate:"required"`
	Period         string                   `json:"period" validate:"required"`
	ElectricityOld decimal.Decimal          `json:"electricity_old"`
	ElectricityNew decimal.Decimal          `json:"electricity_new"`
	WaterOld       decimal.Decimal          `json:"water_old"`
	WaterNew       decimal.Decimal          `json:"water_new"`
	Source         types.MeterReadingSource `json:"source,omitempty"`
	Notes          string                   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func (r *SubmitMeterReadingRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if _, err := types.ParsePeriod(r.Period); err != nil {
		return err
	}
	if r.Source == "" {
		r.Source = types.MeterReadingSourceManual
	}
	return r.Source.Validate()
}

// MeterChargesRequest bills the usage of the period's meter reading at the given unit prices
type MeterChargesRequest struct {
	ElectricityUnitPrice decimal.Decimal `json:"electricity_unit_price"`
	WaterUnitPrice       decimal.Decimal `json:"water_unit_price"`
}

type MeterReadingResponse struct {
	ID               string                   `json:"id"`
	TenancyID        string                   `json:"tenancy_id"`
	RoomID           string                   `json:"room_id"`
	Period           string                   `json:"period"`
	ElectricityOld   decimal.Decimal          `json:"electricity_old"`
	ElectricityNew   decimal.Decimal          `json:"electricity_new"`
	ElectricityUsage decimal.Decimal          `json:"electricity_usage"`
	WaterOld         decimal.Decimal          `json:"water_old"`
	WaterNew         decimal.Decimal          `json:"water_new"`
	WaterUsage       decimal.Decimal          `json:"water_usage"`
	Source           types.MeterReadingSource `json:"source"`
	Notes            string                   `json:"notes,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
}

func NewMeterReadingResponse(r *meter.Reading) *MeterReadingResponse {
	return &MeterReadingResponse{
		ID:               r.ID,
		TenancyID:        r.TenancyID,
		RoomID:           r.RoomID,
		Period:           r.Period,
		ElectricityOld:   r.ElectricityOld,
		ElectricityNew:   r.ElectricityNew,
		ElectricityUsage: r.ElectricityUsage(),
		WaterOld:         r.WaterOld,
		WaterNew:         r.WaterNew,
		WaterUsage:       r.WaterUsage(),
		Source:           r.Source,
		Notes:            r.Notes,
		CreatedAt:        r.CreatedAt,
	}
}

type ListMeterReadingsResponse = types.ListResponse[*MeterReadingResponse]

func NewListMeterReadingsResponse(readings []*meter.Reading, total int, filter *types.MeterReadingFilter) *ListMeterReadingsResponse {
	items := lo.Map(readings, func(r *meter.Reading, _ int) *MeterReadingResponse {
		return NewMeterReadingResponse(r)
	})
	resp := types.NewListResponse(items, total, filter.GetLimit(), filter.GetOffset())
	return &resp
}
