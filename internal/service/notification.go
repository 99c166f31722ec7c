package service

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/api/dto"
	"github.com/rentdesk/rentdesk/internal/cache"
	"github.com/rentdesk/rentdesk/internal/domain/events"
	"github.com/rentdesk/rentdesk/internal/domain/notification"
	"github.com/rentdesk/rentdesk/internal/idempotency"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
)

type NotificationService interface {
	// MarkNotificationRead is idempotent. Notifications of other users are not found.
	MarkNotificationRead(ctx context.Context, actor types.Actor, id string) (*dto.NotificationResponse, error)
	MarkAllNotificationsRead(ctx context.Context, actor types.Actor) (*dto.MarkAllReadResponse, error)
	UnreadCount(ctx context.Context, actor types.Actor) (*dto.UnreadCountResponse, error)
	ListNotifications(ctx context.Context, actor types.Actor, filter *types.NotificationFilter) (*dto.ListNotificationsResponse, error)

	// CreateFromEvent fans a domain event out to one notification per
	// recipient. Ids derive from the event, so redelivery creates nothing new.
	CreateFromEvent(ctx context.Context, event *events.Event) (int, error)
}

type notificationService struct {
	ServiceParams
	idempGen *idempotency.Generator
}

func NewNotificationService(params ServiceParams) NotificationService {
	return &notificationService{
		ServiceParams: params,
		idempGen:      idempotency.NewGenerator(),
	}
}

func (s *notificationService) MarkNotificationRead(ctx context.Context, actor types.Actor, id string) (*dto.NotificationResponse, error) {
	n, err := s.NotificationRepo.Get(ctx, id, actor.UserID)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return dto.NewNotificationResponse(n), nil
	}

	now := s.now()
	if err := s.NotificationRepo.MarkRead(ctx, id, actor.UserID, now); err != nil {
		return nil, err
	}
	s.invalidateUnread(ctx, actor.UserID)

	n.MarkRead(now)
	return dto.NewNotificationResponse(n), nil
}

func (s *notificationService) MarkAllNotificationsRead(ctx context.Context, actor types.Actor) (*dto.MarkAllReadResponse, error) {
	marked, err := s.NotificationRepo.MarkAllRead(ctx, actor.UserID, s.now())
	if err != nil {
		return nil, err
	}
	s.invalidateUnread(ctx, actor.UserID)

	s.Logger.Debugw("marked all notifications read", "user_id", actor.UserID, "marked_count", marked)
	return &dto.MarkAllReadResponse{MarkedCount: marked}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, actor types.Actor) (*dto.UnreadCountResponse, error) {
	key := cache.GenerateKey(cache.PrefixUnreadCount, actor.UserID)
	if v, ok := s.Cache.Get(ctx, key); ok {
		if count, ok := v.(int); ok {
			return &dto.UnreadCountResponse{UnreadCount: count}, nil
		}
	}

	count, err := s.NotificationRepo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, key, count, 0)
	return &dto.UnreadCountResponse{UnreadCount: count}, nil
}

func (s *notificationService) ListNotifications(ctx context.Context, actor types.Actor, filter *types.NotificationFilter) (*dto.ListNotificationsResponse, error) {
	if filter == nil {
		filter = types.NewNotificationFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	filter.UserID = actor.UserID

	ns, err := s.NotificationRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.NotificationRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewListNotificationsResponse(ns, total, filter), nil
}

func (s *notificationService) CreateFromEvent(ctx context.Context, event *events.Event) (int, error) {
	if err := event.Validate(); err != nil {
		return 0, err
	}

	ns := lo.Map(event.Recipients, func(userID string, _ int) *notification.Notification {
		n := notification.New(userID, event.Type, event.Payload, event.ObjectType, event.ObjectID)
		n.ID = s.idempGen.GenerateKey(idempotency.ScopeNotification, map[string]interface{}{
			"event_id": event.ID,
			"user_id":  userID,
		})
		return n
	})

	if err := s.NotificationRepo.CreateMany(ctx, ns); err != nil {
		return 0, err
	}
	for _, userID := range event.Recipients {
		s.invalidateUnread(ctx, userID)
	}

	s.Logger.Debugw("created notifications from event",
		"event_id", event.ID,
		"event_type", event.Type,
		"recipients", len(ns),
	)
	return len(ns), nil
}

func (s *notificationService) invalidateUnread(ctx context.Context, userID string) {
	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixUnreadCount, userID))
}
