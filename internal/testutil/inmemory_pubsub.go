package testutil

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rentdesk/rentdesk/internal/pubsub"
)

var _ pubsub.PubSub = (*InMemoryPubSub)(nil)

// InMemoryPubSub records every published message per topic and replays
// them to late subscribers. FailWith simulates a broker outage.
type InMemoryPubSub struct {
	mu          sync.RWMutex
	subscribers map[string][]chan *message.Message
	messages    map[string][]*message.Message
	failWith    error
}

// NewInMemoryPubSub creates a new instance of InMemoryPubSub
func NewInMemoryPubSub() *InMemoryPubSub {
	return &InMemoryPubSub{
		subscribers: make(map[string][]chan *message.Message),
		messages:    make(map[string][]*message.Message),
	}
}

// FailWith makes every following Publish return err. Pass nil to recover.
func (ps *InMemoryPubSub) FailWith(err error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.failWith = err
}

func (ps *InMemoryPubSub) Publish(ctx context.Context, topic string, msg *message.Message) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.failWith != nil {
		return ps.failWith
	}

	ps.messages[topic] = append(ps.messages[topic], msg)
	for _, ch := range ps.subscribers[topic] {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

func (ps *InMemoryPubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ch := make(chan *message.Message, 100)
	ps.subscribers[topic] = append(ps.subscribers[topic], ch)

	backlog := append([]*message.Message(nil), ps.messages[topic]...)
	go func() {
		for _, msg := range backlog {
			select {
			case ch <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (ps *InMemoryPubSub) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for _, subs := range ps.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	ps.subscribers = make(map[string][]chan *message.Message)
	ps.messages = make(map[string][]*message.Message)
	return nil
}

// GetMessages returns all messages published to a topic
func (ps *InMemoryPubSub) GetMessages(topic string) []*message.Message {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return append([]*message.Message(nil), ps.messages[topic]...)
}
