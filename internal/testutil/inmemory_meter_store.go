package testutil

import (
	"context"
	"strings"

	"github.com/rentdesk/rentdesk/internal/domain/meter"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
)

// InMemoryMeterStore implements meter.Repository
type InMemoryMeterStore struct {
	*InMemoryStore[*meter.Reading]
}

func NewInMemoryMeterStore() *InMemoryMeterStore {
	return &InMemoryMeterStore{
		InMemoryStore: NewInMemoryStore[*meter.Reading](),
	}
}

// Create enforces one reading per room and period like the unique index
func (s *InMemoryMeterStore) Create(ctx context.Context, r *meter.Reading) error {
	if _, err := s.GetForPeriod(ctx, r.RoomID, r.Period); err == nil {
		return ierr.NewError("meter reading already exists").
			WithReportableDetails(map[string]any{"room_id": r.RoomID, "period": r.Period}).
			Mark(ierr.ErrAlreadyExists)
	}
	c := *r
	return s.InMemoryStore.Create(ctx, r.ID, &c)
}

func (s *InMemoryMeterStore) Get(ctx context.Context, id string) (*meter.Reading, error) {
	r, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c := *r
	return &c, nil
}

func (s *InMemoryMeterStore) GetForPeriod(ctx context.Context, roomID, period string) (*meter.Reading, error) {
	items, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, r *meter.Reading, _ interface{}) bool {
		return r.RoomID == roomID && r.Period == period
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, notFound(roomID + "/" + period)
	}
	c := *items[0]
	return &c, nil
}

func (s *InMemoryMeterStore) List(ctx context.Context, filter *types.MeterReadingFilter) ([]*meter.Reading, error) {
	items, err := s.InMemoryStore.List(ctx, filter, meterFilterFn, func(i, j *meter.Reading) bool {
		if c := strings.Compare(i.Period, j.Period); c != 0 {
			return c > 0
		}
		return newerFirst(i.CreatedAt, j.CreatedAt, i.ID, j.ID)
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(r *meter.Reading, _ int) *meter.Reading {
		c := *r
		return &c
	}), nil
}

func (s *InMemoryMeterStore) Count(ctx context.Context, filter *types.MeterReadingFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, meterFilterFn)
}

func meterFilterFn(_ context.Context, r *meter.Reading, filter interface{}) bool {
	f, ok := filter.(*types.MeterReadingFilter)
	if !ok {
		return true
	}
	return r.TenancyID == f.TenancyID && (f.Period == "" || r.Period == f.Period)
}
