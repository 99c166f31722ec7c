package testutil

import (
	"context"
	"time"

	"github.com/rentdesk/rentdesk/internal/domain/invoice"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

// NewInMemoryInvoiceStore creates a new in-memory invoice store
func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
	}
}

// Helper to copy invoice so callers never share pointers with the store
func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}
	c := *inv
	c.LineItems = copyLineItems(inv.LineItems)
	return &c
}

func copyLineItems(items []*invoice.LineItem) []*invoice.LineItem {
	if items == nil {
		return nil
	}
	return lo.Map(items, func(item *invoice.LineItem, _ int) *invoice.LineItem {
		c := *item
		return &c
	})
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			WithHint("Invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}

	// mirrors uq_invoices_tenancy_period
	if inv.InvoiceStatus != types.InvoiceStatusVoid {
		exists, err := s.ExistsForPeriod(ctx, inv.TenancyID, inv.Period)
		if err != nil {
			return err
		}
		if exists {
			return ierr.NewError("invoice already exists for period").
				WithReportableDetails(map[string]any{"constraint": "uq_invoices_tenancy_period"}).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	return s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv))
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) GetForUpdate(ctx context.Context, id string) (*invoice.Invoice, error) {
	return s.Get(ctx, id)
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	err := s.InMemoryStore.Mutate(ctx, inv.ID, func(stored *invoice.Invoice) (*invoice.Invoice, error) {
		if stored.Version != inv.Version {
			return nil, ierr.NewError("invoice version is stale").
				WithHint("The invoice was changed by someone else, please retry").
				Mark(ierr.ErrVersionConflict)
		}
		updated := copyInvoice(inv)
		updated.LineItems = stored.LineItems
		updated.Version++
		return updated, nil
	})
	if err != nil {
		return err
	}
	inv.Version++
	return nil
}

func (s *InMemoryInvoiceStore) ReplaceLineItems(ctx context.Context, invoiceID string, items []*invoice.LineItem) error {
	return s.InMemoryStore.Mutate(ctx, invoiceID, func(stored *invoice.Invoice) (*invoice.Invoice, error) {
		stored.LineItems = copyLineItems(items)
		return stored, nil
	})
}

func (s *InMemoryInvoiceStore) ExistsForPeriod(ctx context.Context, tenancyID, period string) (bool, error) {
	count, err := s.InMemoryStore.Count(ctx, nil, func(_ context.Context, inv *invoice.Invoice, _ interface{}) bool {
		return inv.TenancyID == tenancyID && inv.Period == period && inv.InvoiceStatus != types.InvoiceStatusVoid
	})
	return count > 0, err
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	items, err := s.InMemoryStore.List(ctx, filter, invoiceFilterFn, invoiceSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(inv *invoice.Invoice, _ int) *invoice.Invoice {
		c := copyInvoice(inv)
		c.LineItems = nil
		return c
	}), nil
}

func (s *InMemoryInvoiceStore) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	return s.InMemoryStore.Count(ctx, filter, invoiceFilterFn)
}

func invoiceFilterFn(ctx context.Context, inv *invoice.Invoice, filter interface{}) bool {
	f, ok := filter.(*types.InvoiceFilter)
	if !ok {
		return true
	}
	if f.TenancyIDs != nil && !lo.Contains(f.TenancyIDs, inv.TenancyID) {
		return false
	}
	if f.TenancyID != "" && inv.TenancyID != f.TenancyID {
		return false
	}
	if f.Period != "" && inv.Period != f.Period {
		return false
	}
	if len(f.Statuses) > 0 && !lo.Contains(f.Statuses, inv.InvoiceStatus) {
		return false
	}
	if f.IssuedOnly && !inv.IsIssued() {
		return false
	}
	if f.DueBefore != nil && (inv.DueDate == nil || !inv.DueDate.Before(*f.DueBefore)) {
		return false
	}
	return true
}

func invoiceSortFn(i, j *invoice.Invoice) bool {
	return newerFirst(i.CreatedAt, j.CreatedAt, i.ID, j.ID)
}

// newerFirst orders by creation time descending with the id as tie breaker
func newerFirst(ti, tj time.Time, idi, idj string) bool {
	if ti.Equal(tj) {
		return idi > idj
	}
	return ti.After(tj)
}
