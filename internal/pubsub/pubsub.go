package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher defines the interface for publishing domain events
type Publisher interface {
	Publish(ctx context.Context, topic string, msg *message.Message) error
	Close() error
}

// Subscriber defines the interface for consuming domain events
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	Close() error
}

// PubSub combines both Publisher and Subscriber interfaces
type PubSub interface {
	Publisher
	Subscriber
}

// AsWatermillPublisher exposes a Publisher through watermill's own interface,
// which the router's poison queue expects.
func AsWatermillPublisher(p Publisher) message.Publisher {
	return &watermillPublisher{p: p}
}

// AsWatermillSubscriber exposes a Subscriber through watermill's own interface
func AsWatermillSubscriber(s Subscriber) message.Subscriber {
	return &watermillSubscriber{s: s}
}

type watermillPublisher struct {
	p Publisher
}

func (w *watermillPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		if err := w.p.Publish(msg.Context(), topic, msg); err != nil {
			return err
		}
	}
	return nil
}

func (w *watermillPublisher) Close() error {
	return nil
}

type watermillSubscriber struct {
	s Subscriber
}

func (w *watermillSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return w.s.Subscribe(ctx, topic)
}

func (w *watermillSubscriber) Close() error {
	return nil
}
