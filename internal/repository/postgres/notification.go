package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rentdesk/rentdesk/internal/domain/notification"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/postgres"
	"github.com/rentdesk/rentdesk/internal/types"
)

var notificationSortColumns = map[string]string{
	"created_at": "created_at",
}

type notificationRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewNotificationRepository(db *postgres.DB, logger *logger.Logger) notification.Repository {
	return &notificationRepository{
		db:     db,
		logger: logger,
	}
}

const notificationInsert = `
	INSERT INTO notifications (
		id, user_id, channel, template, payload, priority, is_read, read_at,
		related_object_type, related_object_id, created_at
	) VALUES (
		:id, :user_id, :channel, :template, :payload, :priority, :is_read, :read_at,
		:related_object_type, :related_object_id, :created_at
	) ON CONFLICT (id) DO NOTHING`

func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	if _, err := r.db.NamedExecContext(ctx, notificationInsert, n); err != nil {
		return translate(err, "notification", "create")
	}
	return nil
}

func (r *notificationRepository) CreateMany(ctx context.Context, ns []*notification.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	if _, err := r.db.NamedExecContext(ctx, notificationInsert, ns); err != nil {
		return translate(err, "notification", "create")
	}
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, id, userID string) (*notification.Notification, error) {
	var n notification.Notification
	query := `SELECT * FROM notifications WHERE id = $1 AND user_id = $2`
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &n, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("notification", id)
		}
		return nil, translate(err, "notification", "get")
	}
	return &n, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string, now time.Time) error {
	query := `UPDATE notifications SET is_read = TRUE, read_at = $3
		WHERE id = $1 AND user_id = $2 AND is_read = FALSE`
	if _, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, userID, now); err != nil {
		return translate(err, "notification", "update")
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string, now time.Time) (int, error) {
	query := `UPDATE notifications SET is_read = TRUE, read_at = $2
		WHERE user_id = $1 AND is_read = FALSE`
	return r.execCount(ctx, query, userID, now)
}

func (r *notificationRepository) MarkReadByObject(ctx context.Context, userID, objectType, objectID string, now time.Time) (int, error) {
	query := `UPDATE notifications SET is_read = TRUE, read_at = $2
		WHERE user_id = $1 AND is_read = FALSE AND related_object_type = $3 AND related_object_id = $4`
	return r.execCount(ctx, query, userID, now, objectType, objectID)
}

func (r *notificationRepository) execCount(ctx context.Context, query string, args ...interface{}) (int, error) {
	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translate(err, "notification", "update")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, translate(err, "notification", "update")
	}
	return int(rows), nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query, userID); err != nil {
		return 0, translate(err, "notification", "count")
	}
	return count, nil
}

func (r *notificationRepository) List(ctx context.Context, filter *types.NotificationFilter) ([]*notification.Notification, error) {
	where, params := notificationWhere(filter)
	query := `SELECT * FROM notifications` + where +
		orderClause(filter.GetSort(), filter.GetOrder(), notificationSortColumns)
	if !filter.IsUnlimited() {
		query += ` LIMIT :limit OFFSET :offset`
		params["limit"] = filter.GetLimit()
		params["offset"] = filter.GetOffset()
	}

	ns := []*notification.Notification{}
	if err := r.db.NamedSelectContext(ctx, &ns, query, params); err != nil {
		return nil, translate(err, "notification", "list")
	}
	return ns, nil
}

func (r *notificationRepository) Count(ctx context.Context, filter *types.NotificationFilter) (int, error) {
	where, params := notificationWhere(filter)
	counts := []int{}
	if err := r.db.NamedSelectContext(ctx, &counts, `SELECT COUNT(*) FROM notifications`+where, params); err != nil {
		return 0, translate(err, "notification", "count")
	}
	if len(counts) == 0 {
		return 0, nil
	}
	return counts[0], nil
}

func notificationWhere(filter *types.NotificationFilter) (string, map[string]interface{}) {
	where := ` WHERE user_id = :user_id`
	params := map[string]interface{}{"user_id": filter.UserID}
	if filter.UnreadOnly {
		where += ` AND is_read = FALSE`
	}
	return where, params
}
