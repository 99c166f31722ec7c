package service

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/api/dto"
	"github.com/rentdesk/rentdesk/internal/billing"
	"github.com/rentdesk/rentdesk/internal/domain/audit"
	"github.com/rentdesk/rentdesk/internal/domain/events"
	"github.com/rentdesk/rentdesk/internal/domain/invoice"
	"github.com/rentdesk/rentdesk/internal/domain/payment"
	"github.com/rentdesk/rentdesk/internal/domain/tenancy"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/idempotency"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// PaymentService defines the interface for payment operations
type PaymentService interface {
	RecordPayment(ctx context.Context, actor types.Actor, invoiceID string, req dto.RecordPaymentRequest) (*dto.RecordPaymentResponse, error)
	UpdatePaymentStatus(ctx context.Context, actor types.Actor, paymentID string, req dto.UpdatePaymentStatusRequest) (*dto.PaymentStatusResponse, error)
	ListPayments(ctx context.Context, actor types.Actor, invoiceID string) (*dto.ListPaymentsResponse, error)
}

type paymentService struct {
	ServiceParams
	idempGen *idempotency.Generator

	// inflight collapses concurrent submissions carrying the same scoped key
	inflight *singleflight.Group
}

// NewPaymentService creates a new payment service
func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{
		ServiceParams: params,
		idempGen:      idempotency.NewGenerator(),
		inflight:      &singleflight.Group{},
	}
}

// RecordPayment appends a payment to the ledger of an invoice. Replaying the
// same idempotency key returns the original payment and changes nothing. A
// key reused with other parameters is a conflict.
func (s *paymentService) RecordPayment(ctx context.Context, actor types.Actor, invoiceID string, req dto.RecordPaymentRequest) (*dto.RecordPaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := s.idempGen.ClientKey(idempotency.ScopePayment, actor.UserID, req.IdempotencyKey)

	// duplicates share the first caller's work, so its cancellation must not fail them
	v, err, shared := s.inflight.Do(key, func() (interface{}, error) {
		return s.recordPayment(context.WithoutCancel(ctx), actor, invoiceID, req, key)
	})
	if err != nil {
		return nil, err
	}

	resp := v.(*dto.RecordPaymentResponse)
	if shared {
		s.Logger.Debugw("payment submission collapsed with an in-flight duplicate",
			"invoice_id", invoiceID,
			"payment_id", resp.Payment.ID,
		)
	}
	return resp, nil
}

func (s *paymentService) recordPayment(ctx context.Context, actor types.Actor, invoiceID string, req dto.RecordPaymentRequest, key string) (*dto.RecordPaymentResponse, error) {
	if resp, err := s.replay(ctx, actor, invoiceID, req, key); resp != nil || err != nil {
		return resp, err
	}

	_, t, err := s.loadInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := t.Payable(actor); err != nil {
		return nil, err
	}

	var (
		p        *payment.Payment
		warnings []types.InvoiceWarning
	)
	inv, ledger, err := s.mutateInvoice(ctx, invoiceID, func(ctx context.Context, inv *invoice.Invoice, ledger []*payment.Payment) ([]*payment.Payment, error) {
		now := s.now()
		paid := billing.TotalCompleted(ledger)
		current := billing.Derive(inv.State(paid), now)
		if err := billing.CheckPayable(current.Status); err != nil {
			return nil, err
		}

		status := req.InitialStatus()
		if status == types.PaymentStatusCompleted {
			w, err := s.checkOverpayment(req.Amount, current.AmountDue)
			if err != nil {
				return nil, err
			}
			warnings = w
		}

		p = payment.New(ctx, inv.ID, req.Amount, req.Method, status, key, now)
		p.ProviderRef = req.ProviderRef
		p.Note = req.Note
		if err := s.PaymentRepo.Create(ctx, p); err != nil {
			return nil, err
		}
		err := s.recordAudit(ctx, types.AuditActionCreate, types.AuditObjectPayment, p.ID,
			audit.Changes{}.
				Set("amount", nil, p.Amount).
				Set("status", nil, string(p.PaymentStatus)).
				Set("method", nil, string(p.Method)),
			types.JSONMap{"invoice_id": inv.ID})
		if err != nil {
			return nil, err
		}
		return append(ledger, p), nil
	})
	if err != nil {
		// another process committed the same key between our lookup and insert
		if ierr.IsAlreadyExists(err) {
			if resp, rerr := s.replay(ctx, actor, invoiceID, req, key); resp != nil || rerr != nil {
				return resp, rerr
			}
		}
		return nil, err
	}

	s.Logger.Infow("recorded payment",
		"payment_id", p.ID,
		"invoice_id", inv.ID,
		"amount", p.Amount,
		"status", p.PaymentStatus,
		"invoice_status", inv.InvoiceStatus,
		"amount_due", inv.AmountDue,
	)

	s.publishPaymentEvent(ctx, types.TemplatePaymentCreated, p, inv, t)
	if p.PaymentStatus == types.PaymentStatusCompleted {
		s.publishPaymentEvent(ctx, types.TemplatePaymentReceived, p, inv, t)
	}

	return &dto.RecordPaymentResponse{
		Payment:  dto.NewPaymentResponse(p),
		Invoice:  dto.NewInvoiceViewResponse(inv, ledger, nil),
		Warnings: warnings,
	}, nil
}

// replay returns the stored outcome for a key that was already used, or
// nothing when the key is new.
func (s *paymentService) replay(ctx context.Context, actor types.Actor, invoiceID string, req dto.RecordPaymentRequest, key string) (*dto.RecordPaymentResponse, error) {
	existing, err := s.PaymentRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	if !existing.Matches(invoiceID, req.Amount, req.Method) {
		return nil, ierr.NewError("idempotency key reused with different parameters").
			WithHint("This idempotency key was already used for a different payment").
			WithReportableDetails(map[string]any{"payment_id": existing.ID}).
			WithField("idempotency_key").
			Mark(ierr.ErrVersionConflict)
	}

	view, err := NewInvoiceService(s.ServiceParams).GetInvoiceView(ctx, actor, invoiceID)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("replayed payment for idempotency key",
		"payment_id", existing.ID,
		"invoice_id", invoiceID,
	)
	return &dto.RecordPaymentResponse{
		Payment:  dto.NewPaymentResponse(existing),
		Invoice:  view,
		Replayed: true,
	}, nil
}

// UpdatePaymentStatus settles a pending payment. Completing it counts it
// toward the invoice under the same lock and transaction as any other write.
func (s *paymentService) UpdatePaymentStatus(ctx context.Context, actor types.Actor, paymentID string, req dto.UpdatePaymentStatusRequest) (*dto.PaymentStatusResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PaymentRepo.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	_, t, err := s.loadInvoice(ctx, p.InvoiceID)
	if err != nil {
		return nil, err
	}
	if err := t.Manageable(actor); err != nil {
		return nil, err
	}

	var warnings []types.InvoiceWarning
	inv, ledger, err := s.mutateInvoice(ctx, p.InvoiceID, func(ctx context.Context, inv *invoice.Invoice, ledger []*payment.Payment) ([]*payment.Payment, error) {
		current, err := s.PaymentRepo.Get(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		if req.Status == types.PaymentStatusCompleted && current.PaymentStatus == types.PaymentStatusPending {
			derived := billing.Derive(inv.State(billing.TotalCompleted(ledger)), s.now())
			if err := billing.CheckPayable(derived.Status); err != nil {
				return nil, err
			}
			w, err := s.checkOverpayment(current.Amount, derived.AmountDue)
			if err != nil {
				return nil, err
			}
			warnings = w
		}
		from := current.PaymentStatus
		if err := current.Transition(req.Status, s.now()); err != nil {
			return nil, err
		}
		current.Touch(ctx)
		if err := s.PaymentRepo.UpdateStatus(ctx, current); err != nil {
			return nil, err
		}
		err = s.recordAudit(ctx, types.AuditActionStatusChange, types.AuditObjectPayment, current.ID,
			audit.Changes{}.Set("status", string(from), string(current.PaymentStatus)),
			types.JSONMap{"invoice_id": inv.ID})
		if err != nil {
			return nil, err
		}

		p = current
		for i, entry := range ledger {
			if entry.ID == current.ID {
				ledger[i] = current
			}
		}
		return ledger, nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("settled pending payment",
		"payment_id", p.ID,
		"invoice_id", inv.ID,
		"status", p.PaymentStatus,
		"invoice_status", inv.InvoiceStatus,
	)

	switch p.PaymentStatus {
	case types.PaymentStatusCompleted:
		s.publishPaymentEvent(ctx, types.TemplatePaymentReceived, p, inv, t)
	case types.PaymentStatusFailed:
		s.publishPaymentEvent(ctx, types.TemplatePaymentFailed, p, inv, t)
	}

	return &dto.PaymentStatusResponse{
		Payment:  dto.NewPaymentResponse(p),
		Invoice:  dto.NewInvoiceViewResponse(inv, ledger, nil),
		Warnings: warnings,
	}, nil
}

// checkOverpayment applies the overpayment policy to a payment about to count
// toward an invoice with the given amount due.
func (s *paymentService) checkOverpayment(amount, due decimal.Decimal) ([]types.InvoiceWarning, error) {
	warnings := billing.PaymentWarnings(amount, due)
	if len(warnings) > 0 && !s.Config.Billing.AllowOverpayment {
		return nil, ierr.NewError("payment exceeds amount due").
			WithHintf("Amount cannot exceed the amount due of %s", due.String()).
			WithReportableDetails(map[string]any{"amount_due": due.String()}).
			WithField("amount").
			Mark(ierr.ErrValidation)
	}
	return warnings, nil
}

func (s *paymentService) ListPayments(ctx context.Context, actor types.Actor, invoiceID string) (*dto.ListPaymentsResponse, error) {
	inv, t, err := s.loadInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := t.Viewable(actor); err != nil {
		return nil, err
	}
	if err := checkVisible(actor, inv); err != nil {
		return nil, err
	}

	payments, err := s.PaymentRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return dto.NewListPaymentsResponse(payments), nil
}

func (s *paymentService) publishPaymentEvent(ctx context.Context, eventType types.NotificationTemplate, p *payment.Payment, inv *invoice.Invoice, t *tenancy.Tenancy) {
	s.publish(ctx, events.New(ctx, eventType, "invoice", inv.ID, map[string]any{
		"payment_id":     p.ID,
		"invoice_id":     inv.ID,
		"invoice_number": inv.InvoiceNumber,
		"amount":         p.Amount.String(),
		"method":         p.Method,
		"invoice_status": inv.InvoiceStatus,
		"amount_due":     inv.AmountDue.String(),
	}, recipients(t)...))
}
