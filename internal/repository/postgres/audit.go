package postgres

import (
	"context"

	"github.com/lib/pq"
	"github.com/rentdesk/rentdesk/internal/domain/audit"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/postgres"
	"github.com/rentdesk/rentdesk/internal/types"
)

type auditRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewAuditRepository(db *postgres.DB, logger *logger.Logger) audit.Repository {
	return &auditRepository{
		db:     db,
		logger: logger,
	}
}

func (r *auditRepository) Create(ctx context.Context, l *audit.Log) error {
	query := `
		INSERT INTO audit_logs (
			id, actor_id, action_type, model_name, object_id, changes, metadata, request_id, created_at
		) VALUES (
			:id, :actor_id, :action_type, :model_name, :object_id, :changes, :metadata, :request_id, :created_at
		)`
	if _, err := r.db.NamedExecContext(ctx, query, l); err != nil {
		return translate(err, "audit log", "create")
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, filter *types.AuditLogFilter) ([]*audit.Log, error) {
	logs := []*audit.Log{}
	if len(filter.ObjectIDs) == 0 {
		return logs, nil
	}
	query := `SELECT * FROM audit_logs WHERE object_id = ANY($1) ORDER BY created_at ASC, id ASC`
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &logs, query, pq.Array(filter.ObjectIDs)); err != nil {
		return nil, translate(err, "audit log", "list")
	}
	return logs, nil
}
