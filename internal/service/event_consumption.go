package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/domain/events"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	pubsubRouter "github.com/rentdesk/rentdesk/internal/pubsub/router"
	"github.com/rentdesk/rentdesk/internal/sentry"
	"github.com/rentdesk/rentdesk/internal/types"
)

// EventConsumptionService turns domain events from the transport into
// per-user notifications
type EventConsumptionService interface {
	// Register message handler with the router
	RegisterHandler(router *pubsubRouter.Router, subscriber message.Subscriber, cfg *config.Configuration)

	// ProcessRawEvent handles one serialized event outside the router
	ProcessRawEvent(ctx context.Context, payload []byte) error
}

type eventConsumptionService struct {
	ServiceParams
	notifications NotificationService
	sentryService *sentry.Service
}

func NewEventConsumptionService(
	params ServiceParams,
	notifications NotificationService,
	sentryService *sentry.Service,
) EventConsumptionService {
	return &eventConsumptionService{
		ServiceParams: params,
		notifications: notifications,
		sentryService: sentryService,
	}
}

func (s *eventConsumptionService) RegisterHandler(
	router *pubsubRouter.Router,
	subscriber message.Subscriber,
	cfg *config.Configuration,
) {
	router.AddNoPublishHandler(
		"notification_handler",
		cfg.Events.Topic,
		subscriber,
		s.processMessage,
	)

	s.Logger.Infow("registered notification handler",
		"topic", cfg.Events.Topic,
		"pubsub", cfg.Events.PubSub,
	)
}

func (s *eventConsumptionService) processMessage(msg *message.Message) error {
	ctx := msg.Context()
	if correlationID := middleware.MessageCorrelationID(msg); correlationID != "" {
		ctx = context.WithValue(ctx, types.CtxRequestID, correlationID)
	}
	return s.ProcessRawEvent(ctx, msg.Payload)
}

func (s *eventConsumptionService) ProcessRawEvent(ctx context.Context, payload []byte) error {
	var event events.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		s.Logger.Errorw("failed to unmarshal event",
			"error", err,
			"payload", string(payload),
		)
		// a malformed payload never parses on retry
		return ierr.WithError(err).
			WithHint("Event payload is not valid JSON").
			Mark(ierr.ErrValidation)
	}

	span, ctx := s.sentryService.StartEventSpan(ctx, string(event.Type), event.OccurredAt)
	if span != nil {
		defer span.Finish()
	}

	s.Logger.Debugw("processing event",
		"event_id", event.ID,
		"event_type", event.Type,
		"object_id", event.ObjectID,
		"recipients", len(event.Recipients),
	)

	created, err := s.notifications.CreateFromEvent(ctx, &event)
	if err != nil {
		s.Logger.Errorw("failed to create notifications",
			"error", err,
			"event_id", event.ID,
			"event_type", event.Type,
		)
		if ierr.IsValidation(err) {
			return err
		}
		return ierr.WithError(err).
			WithHint("Failed to store notifications").
			Mark(ierr.ErrDatabase)
	}

	s.Logger.Debugw("successfully processed event",
		"event_id", event.ID,
		"notifications", created,
		"lag_ms", s.now().Sub(event.OccurredAt).Milliseconds(),
	)
	return nil
}
