package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rentdesk/rentdesk/internal/domain/tenancy"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/postgres"
	"github.com/rentdesk/rentdesk/internal/types"
)

type tenancyRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewTenancyRepository(db *postgres.DB, logger *logger.Logger) tenancy.Repository {
	return &tenancyRepository{
		db:     db,
		logger: logger,
	}
}

func (r *tenancyRepository) Create(ctx context.Context, t *tenancy.Tenancy) error {
	query := `
		INSERT INTO tenancies (
			id, property_id, room_id, landlord_id, tenant_id, start_date, end_date,
			base_rent, deposit, tenancy_status, invite_id, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :property_id, :room_id, :landlord_id, :tenant_id, :start_date, :end_date,
			:base_rent, :deposit, :tenancy_status, :invite_id, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating tenancy",
		"tenancy_id", t.ID,
		"landlord_id", t.LandlordID,
		"tenant_id", t.TenantID,
	)

	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		return translate(err, "tenancy", "create")
	}
	return nil
}

func (r *tenancyRepository) Get(ctx context.Context, id string) (*tenancy.Tenancy, error) {
	var t tenancy.Tenancy
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &t, `SELECT * FROM tenancies WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("tenancy", id)
		}
		return nil, translate(err, "tenancy", "get")
	}
	return &t, nil
}

func (r *tenancyRepository) ListIDsForActor(ctx context.Context, actor types.Actor) ([]string, error) {
	var query string
	switch {
	case actor.IsSystem():
		query = `SELECT id FROM tenancies ORDER BY created_at`
	case actor.IsLandlord():
		query = `SELECT id FROM tenancies WHERE landlord_id = :user_id ORDER BY created_at`
	default:
		query = `SELECT id FROM tenancies WHERE tenant_id = :user_id ORDER BY created_at`
	}

	ids := []string{}
	if err := r.db.NamedSelectContext(ctx, &ids, query, map[string]interface{}{"user_id": actor.UserID}); err != nil {
		return nil, translate(err, "tenancy", "list")
	}
	return ids, nil
}
