package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rentdesk/rentdesk/internal/domain/meter"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/postgres"
	"github.com/rentdesk/rentdesk/internal/types"
)

type meterRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewMeterRepository(db *postgres.DB, logger *logger.Logger) meter.Repository {
	return &meterRepository{
		db:     db,
		logger: logger,
	}
}

func (r *meterRepository) Create(ctx context.Context, m *meter.Reading) error {
	query := `
		INSERT INTO meter_readings (
			id, tenancy_id, room_id, period, electricity_old, electricity_new, water_old, water_new,
			source, notes, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenancy_id, :room_id, :period, :electricity_old, :electricity_new, :water_old, :water_new,
			:source, :notes, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating meter reading",
		"meter_reading_id", m.ID,
		"room_id", m.RoomID,
		"period", m.Period,
	)

	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return translate(err, "meter reading", "create")
	}
	return nil
}

func (r *meterRepository) Get(ctx context.Context, id string) (*meter.Reading, error) {
	return r.getOne(ctx, id, `SELECT * FROM meter_readings WHERE id = $1`, id)
}

func (r *meterRepository) GetForPeriod(ctx context.Context, roomID, period string) (*meter.Reading, error) {
	return r.getOne(ctx, roomID+"/"+period, `SELECT * FROM meter_readings WHERE room_id = $1 AND period = $2`, roomID, period)
}

func (r *meterRepository) getOne(ctx context.Context, ref, query string, args ...interface{}) (*meter.Reading, error) {
	var m meter.Reading
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &m, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("meter reading", ref)
		}
		return nil, translate(err, "meter reading", "get")
	}
	return &m, nil
}

func (r *meterRepository) List(ctx context.Context, filter *types.MeterReadingFilter) ([]*meter.Reading, error) {
	where, params := meterWhere(filter)
	query := `SELECT * FROM meter_readings` + where + ` ORDER BY period DESC, created_at DESC, id DESC`
	if !filter.IsUnlimited() {
		query += ` LIMIT :limit OFFSET :offset`
		params["limit"] = filter.GetLimit()
		params["offset"] = filter.GetOffset()
	}

	readings := []*meter.Reading{}
	if err := r.db.NamedSelectContext(ctx, &readings, query, params); err != nil {
		return nil, translate(err, "meter reading", "list")
	}
	return readings, nil
}

func (r *meterRepository) Count(ctx context.Context, filter *types.MeterReadingFilter) (int, error) {
	where, params := meterWhere(filter)
	counts := []int{}
	if err := r.db.NamedSelectContext(ctx, &counts, `SELECT COUNT(*) FROM meter_readings`+where, params); err != nil {
		return 0, translate(err, "meter reading", "count")
	}
	if len(counts) == 0 {
		return 0, nil
	}
	return counts[0], nil
}

func meterWhere(filter *types.MeterReadingFilter) (string, map[string]interface{}) {
	where := ` WHERE tenancy_id = :tenancy_id`
	params := map[string]interface{}{"tenancy_id": filter.TenancyID}
	if filter.Period != "" {
		where += ` AND period = :period`
		params["period"] = filter.Period
	}
	return where, params
}
