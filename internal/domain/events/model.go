package events

import (
	"context"
	"time"

	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/rentdesk/rentdesk/internal/validator"
)

// Event is a domain fact published after a billing or onboarding change.
// The notification consumer turns it into one notification per recipient.
type Event struct {
	ID string `json:"id" validate:"required"`

	// Type doubles as the notification template name
	Type types.NotificationTemplate `json:"type" validate:"required"`

	// Recipients are user ids resolved by the producer, which knows the tenancy
	Recipients []string `json:"recipients" validate:"required,min=1"`

	ObjectType string         `json:"object_type"`
	ObjectID   string         `json:"object_id"`
	Payload    map[string]any `json:"payload,omitempty"`

	ActorID    string    `json:"actor_id"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at" validate:"required"`
}

// New stamps a fresh event with ids from ctx. Blank and repeated recipients are dropped.
func New(ctx context.Context, eventType types.NotificationTemplate, objectType, objectID string, payload map[string]any, recipients ...string) *Event {
	seen := make(map[string]struct{}, len(recipients))
	unique := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if _, ok := seen[r]; ok || r == "" {
			continue
		}
		seen[r] = struct{}{}
		unique = append(unique, r)
	}

	return &Event{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		Type:       eventType,
		Recipients: unique,
		ObjectType: objectType,
		ObjectID:   objectID,
		Payload:    payload,
		ActorID:    types.GetUserID(ctx),
		RequestID:  types.GetRequestID(ctx),
		OccurredAt: time.Now().UTC(),
	}
}

func (e *Event) Validate() error {
	if err := validator.ValidateRequest(e); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid domain event").
			Mark(ierr.ErrValidation)
	}
	return nil
}
