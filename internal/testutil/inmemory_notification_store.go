package testutil

import (
	"context"
	"time"

	"github.com/rentdesk/rentdesk/internal/domain/notification"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
)

// InMemoryNotificationStore implements notification.Repository
type InMemoryNotificationStore struct {
	*InMemoryStore[*notification.Notification]
}

func NewInMemoryNotificationStore() *InMemoryNotificationStore {
	return &InMemoryNotificationStore{
		InMemoryStore: NewInMemoryStore[*notification.Notification](),
	}
}

func copyNotification(n *notification.Notification) *notification.Notification {
	c := *n
	return &c
}

// Create ignores ids that are already stored, like ON CONFLICT DO NOTHING
func (s *InMemoryNotificationStore) Create(ctx context.Context, n *notification.Notification) error {
	if _, err := s.InMemoryStore.Get(ctx, n.ID); err == nil {
		return nil
	}
	return s.InMemoryStore.Create(ctx, n.ID, copyNotification(n))
}

func (s *InMemoryNotificationStore) CreateMany(ctx context.Context, ns []*notification.Notification) error {
	for _, n := range ns {
		if err := s.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemoryNotificationStore) Get(ctx context.Context, id, userID string) (*notification.Notification, error) {
	n, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, notFound(id)
	}
	return copyNotification(n), nil
}

func (s *InMemoryNotificationStore) MarkRead(ctx context.Context, id, userID string, now time.Time) error {
	return s.InMemoryStore.Mutate(ctx, id, func(stored *notification.Notification) (*notification.Notification, error) {
		if stored.UserID == userID {
			stored.MarkRead(now)
		}
		return stored, nil
	})
}

func (s *InMemoryNotificationStore) MarkAllRead(ctx context.Context, userID string, now time.Time) (int, error) {
	return s.markWhere(ctx, now, func(n *notification.Notification) bool {
		return n.UserID == userID
	})
}

func (s *InMemoryNotificationStore) MarkReadByObject(ctx context.Context, userID, objectType, objectID string, now time.Time) (int, error) {
	return s.markWhere(ctx, now, func(n *notification.Notification) bool {
		return n.UserID == userID && n.RelatedObjectType == objectType && n.RelatedObjectID == objectID
	})
}

func (s *InMemoryNotificationStore) markWhere(ctx context.Context, now time.Time, match func(*notification.Notification) bool) (int, error) {
	items, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, n *notification.Notification, _ interface{}) bool {
		return !n.IsRead && match(n)
	}, nil)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, item := range items {
		err := s.InMemoryStore.Mutate(ctx, item.ID, func(stored *notification.Notification) (*notification.Notification, error) {
			if stored.MarkRead(now) {
				changed++
			}
			return stored, nil
		})
		if err != nil {
			return changed, err
		}
	}
	return changed, nil
}

func (s *InMemoryNotificationStore) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.InMemoryStore.Count(ctx, nil, func(_ context.Context, n *notification.Notification, _ interface{}) bool {
		return n.UserID == userID && !n.IsRead
	})
}

func (s *InMemoryNotificationStore) List(ctx context.Context, filter *types.NotificationFilter) ([]*notification.Notification, error) {
	items, err := s.InMemoryStore.List(ctx, filter, notificationFilterFn, func(i, j *notification.Notification) bool {
		return newerFirst(i.CreatedAt, j.CreatedAt, i.ID, j.ID)
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(n *notification.Notification, _ int) *notification.Notification {
		return copyNotification(n)
	}), nil
}

func (s *InMemoryNotificationStore) Count(ctx context.Context, filter *types.NotificationFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, notificationFilterFn)
}

func notificationFilterFn(_ context.Context, n *notification.Notification, filter interface{}) bool {
	f, ok := filter.(*types.NotificationFilter)
	if !ok {
		return true
	}
	return n.UserID == f.UserID && (!f.UnreadOnly || !n.IsRead)
}
