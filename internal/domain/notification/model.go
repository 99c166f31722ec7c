package notification

import (
	"time"

	"github.com/rentdesk/rentdesk/internal/types"
)

// Notification is a message addressed to a single user. Read state only ever
// moves from unread to read.
type Notification struct {
	ID                string                     `db:"id" json:"id"`
	UserID            string                     `db:"user_id" json:"user_id"`
	Channel           types.NotificationChannel  `db:"channel" json:"channel"`
	Template          types.NotificationTemplate `db:"template" json:"template"`
	Payload           types.JSONMap              `db:"payload" json:"payload,omitempty"`
	Priority          types.NotificationPriority `db:"priority" json:"priority"`
	IsRead            bool                       `db:"is_read" json:"is_read"`
	ReadAt            *time.Time                 `db:"read_at" json:"read_at,omitempty"`
	RelatedObjectType string                     `db:"related_object_type" json:"related_object_type,omitempty"`
	RelatedObjectID   string                     `db:"related_object_id" json:"related_object_id,omitempty"`
	CreatedAt         time.Time                  `db:"created_at" json:"created_at"`
}

// New builds an unread in-app notification with the template's priority
func New(userID string, template types.NotificationTemplate, payload types.JSONMap, objectType, objectID string) *Notification {
	return &Notification{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_NOTIFICATION),
		UserID:            userID,
		Channel:           types.NotificationChannelInApp,
		Template:          template,
		Payload:           payload,
		Priority:          template.Priority(),
		RelatedObjectType: objectType,
		RelatedObjectID:   objectID,
		CreatedAt:         time.Now().UTC(),
	}
}

// MarkRead flips the read flag and reports whether anything changed
func (n *Notification) MarkRead(now time.Time) bool {
	if n.IsRead {
		return false
	}
	n.IsRead = true
	n.ReadAt = &now
	return true
}
