package testutil

import (
	"context"
	"sync"

	"github.com/rentdesk/rentdesk/internal/domain/payment"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
)

// InMemoryPaymentStore implements payment.Repository
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.Payment]
	mu             sync.RWMutex
	byKey          map[string]string
	createdInOrder []string
}

// NewInMemoryPaymentStore creates a new in-memory payment repository
func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		InMemoryStore:  NewInMemoryStore[*payment.Payment](),
		byKey:          make(map[string]string),
		createdInOrder: make([]string, 0),
	}
}

// Clear resets all stored data
func (m *InMemoryPaymentStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InMemoryStore.Clear()
	m.byKey = make(map[string]string)
	m.createdInOrder = make([]string, 0)
}

func copyPayment(p *payment.Payment) *payment.Payment {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Create stores a new payment
func (m *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	if p == nil {
		return ierr.NewError("payment cannot be nil").
			WithHint("Payment cannot be nil").
			Mark(ierr.ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if p.IdempotencyKey != "" {
		if _, ok := m.byKey[p.IdempotencyKey]; ok {
			return ierr.NewError("payment with idempotency key already exists").
				WithReportableDetails(map[string]any{"constraint": "payments_idempotency_key_key"}).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	if err := m.InMemoryStore.Create(ctx, p.ID, copyPayment(p)); err != nil {
		return err
	}
	if p.IdempotencyKey != "" {
		m.byKey[p.IdempotencyKey] = p.ID
	}
	m.createdInOrder = append(m.createdInOrder, p.ID)
	return nil
}

func (m *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := m.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyPayment(p), nil
}

// UpdateStatus only touches payments that are still pending, like the SQL guard
func (m *InMemoryPaymentStore) UpdateStatus(ctx context.Context, p *payment.Payment) error {
	return m.InMemoryStore.Mutate(ctx, p.ID, func(stored *payment.Payment) (*payment.Payment, error) {
		if stored.PaymentStatus != types.PaymentStatusPending {
			return nil, ierr.NewError("payment is no longer pending").
				Mark(ierr.ErrVersionConflict)
		}
		return copyPayment(p), nil
	})
}

func (m *InMemoryPaymentStore) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	m.mu.RLock()
	id, ok := m.byKey[key]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(key)
	}
	return m.Get(ctx, id)
}

func (m *InMemoryPaymentStore) ListByInvoice(ctx context.Context, invoiceID string) ([]*payment.Payment, error) {
	m.mu.RLock()
	ids := append([]string(nil), m.createdInOrder...)
	m.mu.RUnlock()

	result := make([]*payment.Payment, 0)
	for _, id := range ids {
		p, err := m.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if p.InvoiceID == invoiceID {
			result = append(result, p)
		}
	}
	return result, nil
}

// Completed returns the completed payments of an invoice
func (m *InMemoryPaymentStore) Completed(ctx context.Context, invoiceID string) []*payment.Payment {
	all, _ := m.ListByInvoice(ctx, invoiceID)
	return lo.Filter(all, func(p *payment.Payment, _ int) bool {
		return p.PaymentStatus == types.PaymentStatusCompleted
	})
}
