package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rentdesk/rentdesk/internal/billing"
	"github.com/rentdesk/rentdesk/internal/domain/audit"
	"github.com/rentdesk/rentdesk/internal/domain/events"
	"github.com/rentdesk/rentdesk/internal/domain/invoice"
	"github.com/rentdesk/rentdesk/internal/domain/payment"
	"github.com/rentdesk/rentdesk/internal/domain/tenancy"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/locker"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
)

// invoiceMutation changes a locked invoice and may append to or update its
// ledger. It returns the ledger as it stands after the change.
type invoiceMutation func(ctx context.Context, inv *invoice.Invoice, ledger []*payment.Payment) ([]*payment.Payment, error)

// mutateInvoice is the single write path for an existing invoice. It holds the
// invoice lock and runs fn inside a transaction on a row locked FOR UPDATE
// together with a fresh ledger read. Status and amounts are then re-derived and
// written with a version check. Version conflicts retry the whole unit.
func (p ServiceParams) mutateInvoice(ctx context.Context, invoiceID string, fn invoiceMutation) (*invoice.Invoice, []*payment.Payment, error) {
	lock, err := p.Locker.Obtain(ctx, locker.InvoiceKey(invoiceID))
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			p.Logger.Warnw("failed to release invoice lock", "invoice_id", invoiceID, "error", err)
		}
	}()

	var (
		result *invoice.Invoice
		ledger []*payment.Payment
	)

	op := func() error {
		err := p.DB.WithTx(ctx, func(ctx context.Context) error {
			inv, err := p.InvoiceRepo.GetForUpdate(ctx, invoiceID)
			if err != nil {
				return err
			}
			current, err := p.PaymentRepo.ListByInvoice(ctx, invoiceID)
			if err != nil {
				return err
			}

			before := inv.InvoiceStatus
			snapshot := snapshotInvoice(inv)
			current, err = fn(ctx, inv, current)
			if err != nil {
				return err
			}

			now := p.now()
			inv.Refresh(billing.TotalCompleted(current), now)
			if err := billing.ValidateTransition(before, inv.InvoiceStatus); err != nil {
				return err
			}
			inv.Touch(ctx)
			if err := p.InvoiceRepo.Update(ctx, inv); err != nil {
				return err
			}

			action := types.AuditActionUpdate
			if before != inv.InvoiceStatus {
				action = types.AuditActionStatusChange
			}
			if err := p.recordAudit(ctx, action, types.AuditObjectInvoice, inv.ID,
				snapshot.changes(snapshotInvoice(inv)), types.JSONMap{"tenancy_id": inv.TenancyID}); err != nil {
				return err
			}

			result, ledger = inv, current
			return nil
		})
		if err != nil && !ierr.IsVersionConflict(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 25 * time.Millisecond
	expo.MaxInterval = time.Second
	retry := backoff.WithContext(backoff.WithMaxRetries(expo, p.Config.Billing.ConflictRetries), ctx)
	if err := backoff.Retry(op, retry); err != nil {
		if ierr.IsVersionConflict(err) {
			p.Logger.Warnw("invoice write gave up after conflicts",
				"invoice_id", invoiceID,
				"retries", p.Config.Billing.ConflictRetries,
			)
		}
		return nil, nil, err
	}
	return result, ledger, nil
}

// recordAudit appends to the audit trail in the caller's transaction. Updates
// that changed nothing are skipped.
func (p ServiceParams) recordAudit(ctx context.Context, action types.AuditAction, objectType, objectID string, changes audit.Changes, metadata types.JSONMap) error {
	if action != types.AuditActionCreate && len(changes) == 0 {
		return nil
	}
	return p.AuditRepo.Create(ctx, audit.New(ctx, action, objectType, objectID, changes, metadata))
}

// invoiceSnapshot is the audited part of an invoice
type invoiceSnapshot struct {
	status    types.InvoiceStatus
	total     decimal.Decimal
	paid      decimal.Decimal
	due       decimal.Decimal
	dueDate   string
	notes     string
	lineCount int
}

func snapshotInvoice(inv *invoice.Invoice) invoiceSnapshot {
	s := invoiceSnapshot{
		status:    inv.InvoiceStatus,
		total:     inv.TotalAmount,
		paid:      inv.AmountPaid,
		due:       inv.AmountDue,
		notes:     inv.Notes,
		lineCount: len(inv.LineItems),
	}
	if inv.DueDate != nil {
		s.dueDate = inv.DueDate.Format(time.DateOnly)
	}
	return s
}

func (s invoiceSnapshot) changes(to invoiceSnapshot) audit.Changes {
	return audit.Changes{}.
		Set("status", string(s.status), string(to.status)).
		Set("total_amount", s.total, to.total).
		Set("amount_paid", s.paid, to.paid).
		Set("amount_due", s.due, to.due).
		Set("due_date", s.dueDate, to.dueDate).
		Set("notes", s.notes, to.notes).
		Set("line_count", s.lineCount, to.lineCount)
}

// loadInvoice returns the invoice together with its tenancy
func (p ServiceParams) loadInvoice(ctx context.Context, invoiceID string) (*invoice.Invoice, *tenancy.Tenancy, error) {
	inv, err := p.InvoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	t, err := p.TenancyRepo.Get(ctx, inv.TenancyID)
	if err != nil {
		return nil, nil, err
	}
	return inv, t, nil
}

// publish hands the event to the transport. Notifications are best effort, so
// a failure is logged and never fails the committed write that produced it.
func (p ServiceParams) publish(ctx context.Context, event *events.Event) {
	if len(event.Recipients) == 0 {
		return
	}
	if err := p.EventPublisher.Publish(ctx, event); err != nil {
		p.Logger.Errorw("failed to publish event",
			"event_id", event.ID,
			"event_type", event.Type,
			"object_id", event.ObjectID,
			"error", err,
		)
	}
}

func (p ServiceParams) publishInvoiceEvent(ctx context.Context, eventType types.NotificationTemplate, inv *invoice.Invoice, recipients ...string) {
	p.publish(ctx, events.New(ctx, eventType, "invoice", inv.ID, map[string]any{
		"invoice_id":     inv.ID,
		"invoice_number": inv.InvoiceNumber,
		"period":         inv.Period,
		"status":         inv.InvoiceStatus,
		"total_amount":   inv.TotalAmount.String(),
		"amount_due":     inv.AmountDue.String(),
	}, recipients...))
}
