package locker

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker is a keyed mutex for a single process
type MemoryLocker struct {
	mu      sync.Mutex
	slots   map[string]*slot
	maxWait time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewMemoryLocker(maxWait time.Duration) *MemoryLocker {
	return &MemoryLocker{
		slots:   make(map[string]*slot),
		maxWait: maxWait,
	}
}

func (l *MemoryLocker) Obtain(ctx context.Context, key string) (Lock, error) {
	s := l.acquireSlot(key)

	var timeout <-chan time.Time
	if l.maxWait > 0 {
		timer := time.NewTimer(l.maxWait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case s.ch <- struct{}{}:
		return &memoryLock{locker: l, key: key, slot: s}, nil
	case <-ctx.Done():
		l.releaseSlot(key, s)
		return nil, notObtained(key, l.maxWait, ctx.Err())
	case <-timeout:
		l.releaseSlot(key, s)
		return nil, notObtained(key, l.maxWait, nil)
	}
}

func (l *MemoryLocker) acquireSlot(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

// releaseSlot drops the entry once nobody holds or waits for it
func (l *MemoryLocker) releaseSlot(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

type memoryLock struct {
	locker *MemoryLocker
	key    string
	slot   *slot
	once   sync.Once
}

func (m *memoryLock) Release(_ context.Context) error {
	m.once.Do(func() {
		<-m.slot.ch
		m.locker.releaseSlot(m.key, m.slot)
	})
	return nil
}
