package kafka

import (
	"context"
	"crypto/tls"

	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rentdesk/rentdesk/internal/config"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/pubsub"
)

type PubSub struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *logger.Logger
}

// NewPubSub creates a kafka-backed pubsub. The subscriber joins the configured
// consumer group so several consumer processes share the load.
func NewPubSub(cfg *config.Configuration, logger *logger.Logger) (pubsub.PubSub, error) {
	wmLogger := logger.GetWatermillLogger()

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               cfg.Kafka.Brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaConfig(cfg, kafka.DefaultSaramaSyncPublisherConfig()),
		},
		wmLogger,
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to create kafka publisher").
			Mark(ierr.ErrSystem)
	}

	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:               cfg.Kafka.Brokers,
			ConsumerGroup:         cfg.Kafka.ConsumerGroup,
			Unmarshaler:           kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaConfig(cfg, kafka.DefaultSaramaSubscriberConfig()),
		},
		wmLogger,
	)
	if err != nil {
		_ = publisher.Close()
		return nil, ierr.WithError(err).
			WithMessage("failed to create kafka subscriber").
			Mark(ierr.ErrSystem)
	}

	return &PubSub{
		publisher:  publisher,
		subscriber: subscriber,
		logger:     logger,
	}, nil
}

// saramaConfig layers client id and SASL settings on top of watermill's defaults
func saramaConfig(cfg *config.Configuration, base *sarama.Config) *sarama.Config {
	base.Version = sarama.V2_1_0_0
	base.ClientID = cfg.Kafka.ClientID
	base.Consumer.Offsets.Initial = sarama.OffsetOldest

	if !cfg.Kafka.UseSASL {
		return base
	}

	base.Net.SASL.Enable = true
	base.Net.SASL.Mechanism = sarama.SASLTypePlaintext
	base.Net.SASL.User = cfg.Kafka.SASLUser
	base.Net.SASL.Password = cfg.Kafka.SASLPassword
	base.Net.TLS.Enable = true
	base.Net.TLS.Config = &tls.Config{MinVersion: tls.VersionTLS12}
	return base
}

func (p *PubSub) Publish(ctx context.Context, topic string, msg *message.Message) error {
	msg.SetContext(ctx)
	return p.publisher.Publish(topic, msg)
}

func (p *PubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return p.subscriber.Subscribe(ctx, topic)
}

func (p *PubSub) Close() error {
	if err := p.publisher.Close(); err != nil {
		p.logger.Errorw("failed to close kafka publisher", "error", err)
	}
	return p.subscriber.Close()
}
