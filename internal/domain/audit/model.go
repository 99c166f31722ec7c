package audit

import (
	"context"
	"reflect"
	"time"

	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
)

// Log is one entry of the append-only trail of billing writes. It is written
// in the transaction of the change it records.
type Log struct {
	ID         string            `db:"id" json:"id"`
	ActorID    string            `db:"actor_id" json:"actor_id"`
	Action     types.AuditAction `db:"action_type" json:"action"`
	ObjectType string            `db:"model_name" json:"object_type"`
	ObjectID   string            `db:"object_id" json:"object_id"`
	Changes    types.JSONMap     `db:"changes" json:"changes"`
	Metadata   types.JSONMap     `db:"metadata" json:"metadata,omitempty"`
	RequestID  string            `db:"request_id" json:"request_id,omitempty"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
}

// New stamps the entry with the user and request carried by ctx
func New(ctx context.Context, action types.AuditAction, objectType, objectID string, changes Changes, metadata types.JSONMap) *Log {
	actorID := types.GetUserID(ctx)
	if actorID == "" {
		actorID = types.SystemUserID
	}
	return &Log{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_AUDIT_LOG),
		ActorID:    actorID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		Changes:    changes.JSONMap(),
		Metadata:   metadata,
		RequestID:  types.GetRequestID(ctx),
		CreatedAt:  time.Now().UTC(),
	}
}

// Changes maps a field to its old and new value
type Changes map[string]Change

type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Set records the field only when the value moved. Decimals are compared by
// value and kept as strings.
func (c Changes) Set(field string, old, new any) Changes {
	if equal(old, new) {
		return c
	}
	c[field] = Change{Old: normalize(old), New: normalize(new)}
	return c
}

func (c Changes) JSONMap() types.JSONMap {
	m := make(types.JSONMap, len(c))
	for field, change := range c {
		m[field] = map[string]any{"old": change.Old, "new": change.New}
	}
	return m
}

func normalize(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.String()
	}
	return v
}

func equal(a, b any) bool {
	da, aok := a.(decimal.Decimal)
	db, bok := b.(decimal.Decimal)
	if aok && bok {
		return da.Equal(db)
	}
	return reflect.DeepEqual(a, b)
}
