package testutil

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/domain/tenancy"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
)

// InMemoryTenancyStore implements tenancy.Repository
type InMemoryTenancyStore struct {
	*InMemoryStore[*tenancy.Tenancy]
}

func NewInMemoryTenancyStore() *InMemoryTenancyStore {
	return &InMemoryTenancyStore{
		InMemoryStore: NewInMemoryStore[*tenancy.Tenancy](),
	}
}

func (s *InMemoryTenancyStore) Create(ctx context.Context, t *tenancy.Tenancy) error {
	c := *t
	return s.InMemoryStore.Create(ctx, t.ID, &c)
}

func (s *InMemoryTenancyStore) Get(ctx context.Context, id string) (*tenancy.Tenancy, error) {
	t, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c := *t
	return &c, nil
}

func (s *InMemoryTenancyStore) ListIDsForActor(ctx context.Context, actor types.Actor) ([]string, error) {
	items, err := s.InMemoryStore.List(ctx, actor, func(_ context.Context, t *tenancy.Tenancy, _ interface{}) bool {
		switch {
		case actor.IsSystem():
			return true
		case actor.IsLandlord():
			return t.LandlordID == actor.UserID
		default:
			return t.TenantID == actor.UserID
		}
	}, func(i, j *tenancy.Tenancy) bool {
		return i.CreatedAt.Before(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(t *tenancy.Tenancy, _ int) string { return t.ID }), nil
}
