package dto

import (
	"time"

	"github.com/rentdesk/rentdesk/internal/domain/notification"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
)

type NotificationResponse struct {
	ID                string                     `json:"id"`
	Channel           types.NotificationChannel  `json:"channel"`
	Template          types.NotificationTemplate `json:"template"`
	Payload           types.JSONMap              `json:"payload,omitempty"`
	Priority          types.NotificationPriority `json:"priority"`
	IsRead            bool                       `json:"is_read"`
	ReadAt            *time.Time                 `json:"read_at,omitempty"`
	RelatedObjectType string                     `json:"related_object_type,omitempty"`
	RelatedObjectID   string                     `json:"related_object_id,omitempty"`
	CreatedAt         time.Time                  `json:"created_at"`
}

func NewNotificationResponse(n *notification.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:                n.ID,
		Channel:           n.Channel,
		Template:          n.Template,
		Payload:           n.Payload,
		Priority:          n.Priority,
		IsRead:            n.IsRead,
		ReadAt:            n.ReadAt,
		RelatedObjectType: n.RelatedObjectType,
		RelatedObjectID:   n.RelatedObjectID,
		CreatedAt:         n.CreatedAt,
	}
}

type ListNotificationsResponse = types.ListResponse[*NotificationResponse]

func NewListNotificationsResponse(ns []*notification.Notification, total int, filter *types.NotificationFilter) *ListNotificationsResponse {
	items := lo.Map(ns, func(n *notification.Notification, _ int) *NotificationResponse {
		return NewNotificationResponse(n)
	})
	resp := types.NewListResponse(items, total, filter.GetLimit(), filter.GetOffset())
	return &resp
}

type MarkAllReadResponse struct {
	MarkedCount int `json:"marked_count"`
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}
