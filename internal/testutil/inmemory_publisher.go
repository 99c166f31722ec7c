package testutil

import (
	"context"
	"sync"

	"github.com/rentdesk/rentdesk/internal/domain/events"
	"github.com/rentdesk/rentdesk/internal/publisher"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
)

// InMemoryPublisherService records published events. A failing publisher
// still records nothing and returns the configured error.
type InMemoryPublisherService struct {
	mu       sync.RWMutex
	events   []*events.Event
	failWith error
}

var _ publisher.EventPublisher = (*InMemoryPublisherService)(nil)

// NewInMemoryEventPublisher creates a new instance of InMemoryPublisherService
func NewInMemoryEventPublisher() *InMemoryPublisherService {
	return &InMemoryPublisherService{
		events: make([]*events.Event, 0),
	}
}

func (p *InMemoryPublisherService) Publish(ctx context.Context, event *events.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.events = append(p.events, event)
	return nil
}

// FailWith makes every following Publish return err
func (p *InMemoryPublisherService) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failWith = err
}

// GetEvents returns all published events
func (p *InMemoryPublisherService) GetEvents() []*events.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*events.Event(nil), p.events...)
}

// EventsOfType returns the published events of one type in publish order
func (p *InMemoryPublisherService) EventsOfType(t types.NotificationTemplate) []*events.Event {
	return lo.Filter(p.GetEvents(), func(e *events.Event, _ int) bool {
		return e.Type == t
	})
}

// Clear removes all published events and any injected failure
func (p *InMemoryPublisherService) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = make([]*events.Event, 0)
	p.failWith = nil
}
