package service

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/api/dto"
	"github.com/rentdesk/rentdesk/internal/billing"
	"github.com/rentdesk/rentdesk/internal/domain/invoice"
	"github.com/rentdesk/rentdesk/internal/domain/payment"
	"github.com/rentdesk/rentdesk/internal/domain/tenancy"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type InvoiceService interface {
	CreateInvoice(ctx context.Context, actor types.Actor, req dto.CreateInvoiceRequest) (*dto.InvoiceViewResponse, error)
	UpdateInvoiceLines(ctx context.Context, actor types.Actor, id string, req dto.UpdateInvoiceLinesRequest) (*dto.InvoiceViewResponse, error)
	IssueInvoice(ctx context.Context, actor types.Actor, id string) (*dto.InvoiceViewResponse, error)
	VoidInvoice(ctx context.Context, actor types.Actor, id string) (*dto.InvoiceViewResponse, error)
	GetInvoiceView(ctx context.Context, actor types.Actor, id string) (*dto.InvoiceViewResponse, error)
	ListInvoices(ctx context.Context, actor types.Actor, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
}

type invoiceService struct {
	ServiceParams
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{
		ServiceParams: params,
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, actor types.Actor, req dto.CreateInvoiceRequest) (*dto.InvoiceViewResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := s.TenancyRepo.Get(ctx, req.TenancyID)
	if err != nil {
		return nil, err
	}
	if err := t.Manageable(actor); err != nil {
		return nil, err
	}

	inputs := req.LineInputs()
	if req.Meter != nil {
		usage, err := s.meterLines(ctx, t, req.Period, req.Meter)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, usage...)
	}

	set, err := billing.ComputeLines(inputs, s.Config.Billing.DisplayTolerance)
	if err != nil {
		return nil, err
	}
	dueDate, _ := req.ParsedDueDate()

	exists, err := s.InvoiceRepo.ExistsForPeriod(ctx, t.ID, req.Period)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, periodTaken(t.ID, req.Period)
	}

	now := s.now()
	inv := invoice.New(ctx, t.ID, req.Period, set, dueDate, req.Notes)
	if !req.Draft {
		inv.IssuedAt = &now
	}
	inv.Refresh(decimal.Zero, now)

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
			return err
		}
		return s.recordAudit(ctx, types.AuditActionCreate, types.AuditObjectInvoice, inv.ID,
			snapshotInvoice(&invoice.Invoice{}).changes(snapshotInvoice(inv)),
			types.JSONMap{"tenancy_id": t.ID, "period": inv.Period})
	})
	if err != nil {
		// the unique index catches a concurrent create for the same period
		if ierr.IsAlreadyExists(err) {
			return nil, periodTaken(t.ID, req.Period)
		}
		return nil, err
	}

	s.Logger.Infow("created invoice",
		"invoice_id", inv.ID,
		"tenancy_id", t.ID,
		"period", inv.Period,
		"status", inv.InvoiceStatus,
		"total_amount", inv.TotalAmount,
	)

	if inv.IsIssued() {
		s.publishInvoiceEvent(ctx, types.TemplateInvoiceCreated, inv, t.TenantID)
	}
	return dto.NewInvoiceViewResponse(inv, []*payment.Payment{}, nil), nil
}

func (s *invoiceService) UpdateInvoiceLines(ctx context.Context, actor types.Actor, id string, req dto.UpdateInvoiceLinesRequest) (*dto.InvoiceViewResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	_, t, err := s.loadInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.Manageable(actor); err != nil {
		return nil, err
	}

	set, err := billing.ComputeLines(req.LineInputs(), s.Config.Billing.DisplayTolerance)
	if err != nil {
		return nil, err
	}
	dueDate, _ := req.ParsedDueDate()

	var warnings []types.InvoiceWarning
	inv, ledger, err := s.mutateInvoice(ctx, id, func(ctx context.Context, inv *invoice.Invoice, ledger []*payment.Payment) ([]*payment.Payment, error) {
		paid := billing.TotalCompleted(ledger)

		// judge editability on the status the ledger implies right now
		current := billing.Derive(inv.State(paid), s.now())
		if err := billing.CheckEditable(current.Status); err != nil {
			return nil, err
		}

		inv.ReplaceLines(ctx, set)
		if err := s.InvoiceRepo.ReplaceLineItems(ctx, inv.ID, inv.LineItems); err != nil {
			return nil, err
		}
		if dueDate != nil {
			inv.DueDate = dueDate
		}
		if req.Notes != nil {
			inv.Notes = *req.Notes
		}

		warnings = billing.EditWarnings(set.Total, paid)
		return ledger, nil
	})
	if err != nil {
		return nil, err
	}

	if len(warnings) > 0 {
		s.Logger.Warnw("invoice edited below amount paid",
			"invoice_id", inv.ID,
			"total_amount", inv.TotalAmount,
			"amount_paid", inv.AmountPaid,
		)
	}

	if inv.IsIssued() {
		s.publishInvoiceEvent(ctx, types.TemplateInvoiceUpdated, inv, t.TenantID)
	}
	return dto.NewInvoiceViewResponse(inv, ledger, warnings), nil
}

func (s *invoiceService) IssueInvoice(ctx context.Context, actor types.Actor, id string) (*dto.InvoiceViewResponse, error) {
	_, t, err := s.loadInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.Manageable(actor); err != nil {
		return nil, err
	}

	inv, ledger, err := s.mutateInvoice(ctx, id, func(ctx context.Context, inv *invoice.Invoice, ledger []*payment.Payment) ([]*payment.Payment, error) {
		if err := billing.CheckEditable(inv.InvoiceStatus); err != nil {
			return nil, err
		}
		if inv.IsIssued() {
			return nil, ierr.NewError("invoice already issued").
				WithHint("The invoice has already been issued").
				WithReportableDetails(map[string]any{"status": inv.InvoiceStatus}).
				Mark(ierr.ErrInvalidOperation)
		}
		now := s.now()
		inv.IssuedAt = &now
		return ledger, nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("issued invoice", "invoice_id", inv.ID, "status", inv.InvoiceStatus)
	s.publishInvoiceEvent(ctx, types.TemplateInvoiceIssued, inv, t.TenantID)
	return dto.NewInvoiceViewResponse(inv, ledger, nil), nil
}

func (s *invoiceService) VoidInvoice(ctx context.Context, actor types.Actor, id string) (*dto.InvoiceViewResponse, error) {
	_, t, err := s.loadInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.Manageable(actor); err != nil {
		return nil, err
	}

	inv, ledger, err := s.mutateInvoice(ctx, id, func(ctx context.Context, inv *invoice.Invoice, ledger []*payment.Payment) ([]*payment.Payment, error) {
		if err := billing.CheckEditable(inv.InvoiceStatus); err != nil {
			return nil, err
		}
		if paid := billing.TotalCompleted(ledger); paid.IsPositive() {
			return nil, ierr.NewError("invoice has completed payments").
				WithHint("An invoice with completed payments cannot be voided").
				WithReportableDetails(map[string]any{
					"status":      inv.InvoiceStatus,
					"amount_paid": paid.String(),
				}).
				Mark(ierr.ErrImmutableState)
		}
		now := s.now()
		inv.VoidedAt = &now
		return ledger, nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("voided invoice", "invoice_id", inv.ID, "period", inv.Period)
	if inv.IsIssued() {
		s.publishInvoiceEvent(ctx, types.TemplateInvoiceVoided, inv, t.TenantID)
	}
	return dto.NewInvoiceViewResponse(inv, ledger, nil), nil
}

// GetInvoiceView never trusts the stored status: it re-derives everything
// from the ledger and today's date without writing.
func (s *invoiceService) GetInvoiceView(ctx context.Context, actor types.Actor, id string) (*dto.InvoiceViewResponse, error) {
	inv, t, err := s.loadInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.Viewable(actor); err != nil {
		return nil, err
	}
	if err := checkVisible(actor, inv); err != nil {
		return nil, err
	}

	ledger, err := s.PaymentRepo.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}

	inv.Apply(billing.Derive(inv.State(billing.TotalCompleted(ledger)), s.now()), s.now())
	return dto.NewInvoiceViewResponse(inv, ledger, nil), nil
}

// ListInvoices derives status from the stored ledger sum, which every write
// keeps in step with the payments inside the same transaction.
func (s *invoiceService) ListInvoices(ctx context.Context, actor types.Actor, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	ids, err := s.TenancyRepo.ListIDsForActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	filter.TenancyIDs = ids
	filter.IssuedOnly = actor.IsTenant()

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.InvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := lo.Map(invoices, func(inv *invoice.Invoice, _ int) *dto.InvoiceViewResponse {
		inv.Apply(billing.Derive(inv.State(inv.AmountPaid), now), now)
		return dto.NewInvoiceViewResponse(inv, nil, nil)
	})

	resp := types.NewListResponse(items, total, filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}

// checkVisible hides invoices a tenant has not been issued yet. They read as not found.
func checkVisible(actor types.Actor, inv *invoice.Invoice) error {
	if actor.IsTenant() && !inv.IsIssued() {
		return ierr.NewError("draft invoice hidden from tenant").
			WithHintf("Invoice %s was not found", inv.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func periodTaken(tenancyID, period string) error {
	return ierr.NewError("invoice already exists for period").
		WithHintf("An invoice for %s already exists for this tenancy", period).
		WithReportableDetails(map[string]any{
			"tenancy_id": tenancyID,
			"period":     period,
		}).
		WithField("period").
		Mark(ierr.ErrAlreadyExists)
}

// recipients are the parties of a tenancy, landlord first
func recipients(t *tenancy.Tenancy) []string {
	return []string{t.LandlordID, t.TenantID}
}
