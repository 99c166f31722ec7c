package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/rentdesk/rentdesk/internal/domain/invite"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
)

// InMemoryInviteStore implements invite.Repository
type InMemoryInviteStore struct {
	*InMemoryStore[*invite.Invite]
}

func NewInMemoryInviteStore() *InMemoryInviteStore {
	return &InMemoryInviteStore{
		InMemoryStore: NewInMemoryStore[*invite.Invite](),
	}
}

func copyInvite(inv *invite.Invite) *invite.Invite {
	if inv == nil {
		return nil
	}
	c := *inv
	return &c
}

func (s *InMemoryInviteStore) Create(ctx context.Context, inv *invite.Invite) error {
	if inv == nil {
		return ierr.NewError("invite cannot be nil").
			WithHint("Invite cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, inv.ID, copyInvite(inv))
}

func (s *InMemoryInviteStore) Get(ctx context.Context, id string) (*invite.Invite, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyInvite(inv), nil
}

func (s *InMemoryInviteStore) GetByToken(ctx context.Context, token string) (*invite.Invite, error) {
	items, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, inv *invite.Invite, _ interface{}) bool {
		return inv.Token == token
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, notFound(token)
	}
	return copyInvite(items[0]), nil
}

func (s *InMemoryInviteStore) UpdateStatus(ctx context.Context, inv *invite.Invite, expected types.InviteStatus) error {
	return s.InMemoryStore.Mutate(ctx, inv.ID, func(stored *invite.Invite) (*invite.Invite, error) {
		if stored.InviteStatus != expected {
			return nil, ierr.NewError("invite status changed concurrently").
				WithHint("The invite was answered by someone else").
				Mark(ierr.ErrVersionConflict)
		}
		return copyInvite(inv), nil
	})
}

func (s *InMemoryInviteStore) ExpirePending(ctx context.Context, now time.Time) ([]*invite.Invite, error) {
	candidates, err := s.InMemoryStore.List(ctx, nil, expirableFn(now), nil)
	if err != nil {
		return nil, err
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	expired := make([]*invite.Invite, 0, len(candidates))
	for _, c := range candidates {
		var updated *invite.Invite
		err := s.InMemoryStore.Mutate(ctx, c.ID, func(stored *invite.Invite) (*invite.Invite, error) {
			if !stored.IsExpired(now) {
				return stored, nil
			}
			stored.Expire(now)
			stored.UpdatedAt = now
			stored.UpdatedBy = types.GetUserID(ctx)
			updated = copyInvite(stored)
			return stored, nil
		})
		if err != nil {
			return nil, err
		}
		if updated != nil {
			expired = append(expired, updated)
		}
	}
	return expired, nil
}

func (s *InMemoryInviteStore) CountExpirable(ctx context.Context, now time.Time) (int, error) {
	return s.InMemoryStore.Count(ctx, nil, expirableFn(now))
}

func expirableFn(now time.Time) FilterFunc[*invite.Invite] {
	return func(_ context.Context, inv *invite.Invite, _ interface{}) bool {
		return inv.IsExpired(now)
	}
}

// Statuses returns the stored status of every invite keyed by id
func (s *InMemoryInviteStore) Statuses(ctx context.Context) map[string]types.InviteStatus {
	items, _ := s.InMemoryStore.List(ctx, nil, nil, nil)
	return lo.SliceToMap(items, func(inv *invite.Invite) (string, types.InviteStatus) {
		return inv.ID, inv.InviteStatus
	})
}
