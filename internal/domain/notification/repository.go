package notification

import (
	"context"
	"time"

	"github.com/rentdesk/rentdesk/internal/types"
)

type Repository interface {
	// Create and CreateMany skip ids that already exist, so redelivered events
	// do not duplicate notifications.
	Create(ctx context.Context, n *Notification) error
	CreateMany(ctx context.Context, ns []*Notification) error

	// Get returns the notification only when it belongs to userID
	Get(ctx context.Context, id, userID string) (*Notification, error)

	// MarkRead flags one unread notification as read. Already read rows are left as is.
	MarkRead(ctx context.Context, id, userID string, now time.Time) error

	// MarkAllRead flags every unread notification of the user in one statement
	MarkAllRead(ctx context.Context, userID string, now time.Time) (int, error)

	// MarkReadByObject flags the user's unread notifications about one object
	MarkReadByObject(ctx context.Context, userID, objectType, objectID string, now time.Time) (int, error)

	CountUnread(ctx context.Context, userID string) (int, error)
	List(ctx context.Context, filter *types.NotificationFilter) ([]*Notification, error)
	Count(ctx context.Context, filter *types.NotificationFilter) (int, error)
}
