package service

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/api/dto"
	"github.com/rentdesk/rentdesk/internal/billing"
	"github.com/rentdesk/rentdesk/internal/domain/audit"
	"github.com/rentdesk/rentdesk/internal/domain/events"
	"github.com/rentdesk/rentdesk/internal/domain/meter"
	"github.com/rentdesk/rentdesk/internal/domain/tenancy"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
)

type MeterService interface {
	SubmitMeterReading(ctx context.Context, actor types.Actor, req dto.SubmitMeterReadingRequest) (*dto.MeterReadingResponse, error)
	ListMeterReadings(ctx context.Context, actor types.Actor, filter *types.MeterReadingFilter) (*dto.ListMeterReadingsResponse, error)
}

type meterService struct {
	ServiceParams
}

func NewMeterService(params ServiceParams) MeterService {
	return &meterService{
		ServiceParams: params,
	}
}

// SubmitMeterReading records the room's meter indexes for a period and tells
// the tenant. A room takes one reading per period.
func (s *meterService) SubmitMeterReading(ctx context.Context, actor types.Actor, req dto.SubmitMeterReadingRequest) (*dto.MeterReadingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := s.TenancyRepo.Get(ctx, req.TenancyID)
	if err != nil {
		return nil, err
	}
	if err := t.Manageable(actor); err != nil {
		return nil, err
	}
	if t.TenancyStatus != types.TenancyStatusActive {
		return nil, ierr.NewError("tenancy is not active").
			WithHint("Meter readings can only be recorded for an active tenancy").
			WithReportableDetails(map[string]any{"tenancy_id": t.ID, "status": t.TenancyStatus}).
			Mark(ierr.ErrInvalidOperation)
	}

	r := meter.New(ctx, t.ID, t.RoomID, req.Period,
		req.ElectricityOld, req.ElectricityNew, req.WaterOld, req.WaterNew, req.Source, req.Notes)
	if err := r.Validate(); err != nil {
		return nil, err
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.MeterRepo.Create(ctx, r); err != nil {
			return err
		}
		return s.recordAudit(ctx, types.AuditActionCreate, types.AuditObjectMeterReading, r.ID,
			audit.Changes{}.
				Set("electricity_usage", nil, r.ElectricityUsage()).
				Set("water_usage", nil, r.WaterUsage()),
			types.JSONMap{"tenancy_id": t.ID, "room_id": r.RoomID, "period": r.Period})
	})
	if err != nil {
		if ierr.IsAlreadyExists(err) {
			return nil, ierr.WithError(err).
				WithHintf("A meter reading for %s was already recorded for this room", req.Period).
				WithReportableDetails(map[string]any{"room_id": t.RoomID, "period": req.Period}).
				WithField("period").
				Mark(ierr.ErrAlreadyExists)
		}
		return nil, err
	}

	s.Logger.Infow("recorded meter reading",
		"meter_reading_id", r.ID,
		"tenancy_id", t.ID,
		"room_id", r.RoomID,
		"period", r.Period,
		"electricity_usage", r.ElectricityUsage(),
		"water_usage", r.WaterUsage(),
	)

	s.publishMeterEvent(ctx, r, t)
	return dto.NewMeterReadingResponse(r), nil
}

func (s *meterService) ListMeterReadings(ctx context.Context, actor types.Actor, filter *types.MeterReadingFilter) (*dto.ListMeterReadingsResponse, error) {
	if filter == nil {
		filter = types.NewMeterReadingFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	t, err := s.TenancyRepo.Get(ctx, filter.TenancyID)
	if err != nil {
		return nil, err
	}
	if err := t.Viewable(actor); err != nil {
		return nil, err
	}

	readings, err := s.MeterRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.MeterRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewListMeterReadingsResponse(readings, total, filter), nil
}

func (s *meterService) publishMeterEvent(ctx context.Context, r *meter.Reading, t *tenancy.Tenancy) {
	s.publish(ctx, events.New(ctx, types.TemplateMeterSubmitted, types.AuditObjectMeterReading, r.ID, map[string]any{
		"meter_reading_id":  r.ID,
		"tenancy_id":        t.ID,
		"room_id":           r.RoomID,
		"period":            r.Period,
		"electricity_usage": r.ElectricityUsage().String(),
		"water_usage":       r.WaterUsage().String(),
	}, t.TenantID))
}

// meterLines prices the room's reading for the period. A missing reading is a
// validation error on the request.
func (p ServiceParams) meterLines(ctx context.Context, t *tenancy.Tenancy, period string, charges *dto.MeterChargesRequest) ([]billing.LineInput, error) {
	r, err := p.MeterRepo.GetForPeriod(ctx, t.RoomID, period)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewError("no meter reading for period").
				WithHintf("Record the meter reading for %s before billing usage", period).
				WithReportableDetails(map[string]any{"room_id": t.RoomID, "period": period}).
				WithField("meter").
				Mark(ierr.ErrValidation)
		}
		return nil, err
	}
	return r.Lines(charges.ElectricityUnitPrice, charges.WaterUnitPrice), nil
}
