package testutil

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/domain/audit"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
)

// InMemoryAuditStore implements audit.Repository. Create refuses entries
// written outside a transaction, so tests catch a trail that could commit
// apart from its change.
type InMemoryAuditStore struct {
	*InMemoryStore[*audit.Log]
}

func NewInMemoryAuditStore() *InMemoryAuditStore {
	return &InMemoryAuditStore{
		InMemoryStore: NewInMemoryStore[*audit.Log](),
	}
}

func (s *InMemoryAuditStore) Create(ctx context.Context, l *audit.Log) error {
	if _, ok := ctx.Value(types.CtxDBTransaction).(*mockTx); !ok {
		return ierr.NewError("audit log written outside a transaction").
			WithReportableDetails(map[string]any{"object_id": l.ObjectID}).
			Mark(ierr.ErrSystem)
	}
	c := *l
	return s.InMemoryStore.Create(ctx, l.ID, &c)
}

func (s *InMemoryAuditStore) List(ctx context.Context, filter *types.AuditLogFilter) ([]*audit.Log, error) {
	items, err := s.InMemoryStore.List(ctx, filter, func(_ context.Context, l *audit.Log, _ interface{}) bool {
		return lo.Contains(filter.ObjectIDs, l.ObjectID)
	}, func(i, j *audit.Log) bool {
		return newerFirst(j.CreatedAt, i.CreatedAt, j.ID, i.ID)
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(l *audit.Log, _ int) *audit.Log {
		c := *l
		return &c
	}), nil
}

// ForObject returns the trail of one object, oldest first
func (s *InMemoryAuditStore) ForObject(ctx context.Context, objectID string) []*audit.Log {
	logs, _ := s.List(ctx, &types.AuditLogFilter{ObjectIDs: []string{objectID}})
	return logs
}
