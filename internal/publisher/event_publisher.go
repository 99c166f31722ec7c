package publisher

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/domain/events"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/pubsub"
)

// Metadata keys set on every published message
const (
	MetadataEventType = "event_type"
	MetadataObjectID  = "object_id"
)

// EventPublisher hands domain events to the configured transport
type EventPublisher interface {
	Publish(ctx context.Context, event *events.Event) error
}

type eventPublisher struct {
	pubsub pubsub.Publisher
	topic  string
	logger *logger.Logger
}

func NewEventPublisher(cfg *config.Configuration, ps pubsub.PubSub, logger *logger.Logger) EventPublisher {
	return &eventPublisher{
		pubsub: ps,
		topic:  cfg.Events.Topic,
		logger: logger,
	}
}

func (p *eventPublisher) Publish(ctx context.Context, event *events.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to marshal event").
			Mark(ierr.ErrSystem)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set(MetadataEventType, string(event.Type))
	msg.Metadata.Set(MetadataObjectID, event.ObjectID)
	if event.RequestID != "" {
		middleware.SetCorrelationID(event.RequestID, msg)
	}

	p.logger.Debugw("publishing event",
		"event_id", event.ID,
		"event_type", event.Type,
		"object_id", event.ObjectID,
		"topic", p.topic,
	)

	if err := p.pubsub.Publish(ctx, p.topic, msg); err != nil {
		return ierr.WithError(err).
			WithMessagef("failed to publish %s", event.Type).
			Mark(ierr.ErrSystem)
	}
	return nil
}
