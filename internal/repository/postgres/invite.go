package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rentdesk/rentdesk/internal/domain/invite"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/postgres"
	"github.com/rentdesk/rentdesk/internal/types"
)

type inviteRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInviteRepository(db *postgres.DB, logger *logger.Logger) invite.Repository {
	return &inviteRepository{
		db:     db,
		logger: logger,
	}
}

func (r *inviteRepository) Create(ctx context.Context, inv *invite.Invite) error {
	query := `
		INSERT INTO invites (
			id, token, landlord_id, property_id, room_id, email, phone, base_rent, deposit,
			invite_status, expires_at, responded_at, responded_by, tenancy_id,
			created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :token, :landlord_id, :property_id, :room_id, :email, :phone, :base_rent, :deposit,
			:invite_status, :expires_at, :responded_at, :responded_by, :tenancy_id,
			:created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating invite", "invite_id", inv.ID, "landlord_id", inv.LandlordID)

	if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
		return translate(err, "invite", "create")
	}
	return nil
}

func (r *inviteRepository) Get(ctx context.Context, id string) (*invite.Invite, error) {
	return r.getBy(ctx, "id", id)
}

func (r *inviteRepository) GetByToken(ctx context.Context, token string) (*invite.Invite, error) {
	return r.getBy(ctx, "token", token)
}

func (r *inviteRepository) getBy(ctx context.Context, column, value string) (*invite.Invite, error) {
	var inv invite.Invite
	query := `SELECT * FROM invites WHERE ` + column + ` = $1`
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &inv, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("invite", value)
		}
		return nil, translate(err, "invite", "get")
	}
	return &inv, nil
}

func (r *inviteRepository) UpdateStatus(ctx context.Context, inv *invite.Invite, expected types.InviteStatus) error {
	query := `
		UPDATE invites SET
			invite_status = :invite_status,
			responded_at = :responded_at,
			responded_by = :responded_by,
			tenancy_id = :tenancy_id,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND invite_status = :expected`

	params := map[string]interface{}{
		"id":            inv.ID,
		"invite_status": inv.InviteStatus,
		"responded_at":  inv.RespondedAt,
		"responded_by":  inv.RespondedBy,
		"tenancy_id":    inv.TenancyID,
		"updated_at":    inv.UpdatedAt,
		"updated_by":    inv.UpdatedBy,
		"expected":      expected,
	}

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return translate(err, "invite", "update")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return translate(err, "invite", "update")
	}
	if rows == 0 {
		return ierr.NewError("invite status changed concurrently").
			WithHint("The invite was answered by someone else").
			WithReportableDetails(map[string]any{"invite_id": inv.ID}).
			Mark(ierr.ErrVersionConflict)
	}
	return nil
}

func (r *inviteRepository) ExpirePending(ctx context.Context, now time.Time) ([]*invite.Invite, error) {
	query := `
		UPDATE invites SET
			invite_status = $1,
			responded_at = $2,
			updated_at = $2,
			updated_by = $3
		WHERE invite_status = $4 AND expires_at <= $2
		RETURNING *`

	expired := []*invite.Invite{}
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &expired, query,
		types.InviteStatusExpired, now, types.GetUserID(ctx), types.InviteStatusPending)
	if err != nil {
		return nil, translate(err, "invite", "expire")
	}
	return expired, nil
}

func (r *inviteRepository) CountExpirable(ctx context.Context, now time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM invites WHERE invite_status = $1 AND expires_at <= $2`
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query, types.InviteStatusPending, now); err != nil {
		return 0, translate(err, "invite", "count")
	}
	return count, nil
}
