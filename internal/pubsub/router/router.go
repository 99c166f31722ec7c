package router

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/pubsub"
	"github.com/rentdesk/rentdesk/internal/sentry"
)

// Router manages all message routing
type Router struct {
	router *message.Router
	logger *logger.Logger
	sentry *sentry.Service
	config *config.EventsConfig
}

// NewRouter creates a message router whose poisoned messages land on
// "<topic>.dlq" of the same transport.
func NewRouter(cfg *config.Configuration, logger *logger.Logger, sentry *sentry.Service, ps pubsub.PubSub) (*Router, error) {
	wmLogger := logger.GetWatermillLogger()

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, err
	}

	poisonQueue, err := middleware.PoisonQueue(pubsub.AsWatermillPublisher(ps), DeadLetterTopic(cfg.Events.Topic))
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		poisonQueue,
		middleware.Recoverer,
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:          cfg.Events.MaxRetries,
			InitialInterval:     cfg.Events.InitialInterval,
			MaxInterval:         cfg.Events.MaxInterval,
			Multiplier:          cfg.Events.Multiplier,
			MaxElapsedTime:      cfg.Events.MaxElapsedTime,
			RandomizationFactor: 0.5,
			Logger:              wmLogger,
			OnRetryHook: func(retryNum int, delay time.Duration) {
				logger.Infow("retrying message",
					"retry_number", retryNum,
					"max_retries", cfg.Events.MaxRetries,
					"delay", delay,
				)
			},
		}.Middleware,
	)

	return &Router{
		router: router,
		logger: logger,
		sentry: sentry,
		config: &cfg.Events,
	}, nil
}

// DeadLetterTopic names the poison queue of a topic
func DeadLetterTopic(topic string) string {
	return topic + ".dlq"
}

// AddNoPublishHandler adds a handler that doesn't publish messages. Errors
// that a retry cannot fix are logged and the message is acked.
func (r *Router) AddNoPublishHandler(
	handlerName string,
	topicName string,
	subscriber message.Subscriber,
	handlerFunc func(msg *message.Message) error,
	middlewares ...message.HandlerMiddleware,
) {
	handler := r.router.AddNoPublisherHandler(
		handlerName,
		topicName,
		subscriber,
		func(msg *message.Message) error {
			err := handlerFunc(msg)
			if err == nil {
				return nil
			}

			r.logger.Errorw("handler failed",
				"handler", handlerName,
				"error", err,
				"correlation_id", middleware.MessageCorrelationID(msg),
				"message_uuid", msg.UUID,
			)
			if !shouldRetry(r.logger, err) {
				return nil
			}
			r.sentry.CaptureException(msg.Context(), err)
			return err
		},
	)

	for _, middleware := range middlewares {
		handler.AddMiddleware(middleware)
	}
}

// Run blocks until ctx is cancelled or Close is called
func (r *Router) Run(ctx context.Context) error {
	r.logger.Info("starting router")
	return r.router.Run(ctx)
}

// Running is closed once all handlers are subscribed
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Close gracefully shuts down the router
func (r *Router) Close() error {
	r.logger.Info("closing router")
	return r.router.Close()
}
