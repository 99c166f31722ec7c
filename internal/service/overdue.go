package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rentdesk/rentdesk/internal/api/dto"
	"github.com/rentdesk/rentdesk/internal/billing"
	"github.com/rentdesk/rentdesk/internal/domain/invoice"
	"github.com/rentdesk/rentdesk/internal/domain/payment"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"
)

// OverdueService persists the overdue status that reads already derive on the
// fly, so that lists and notifications catch up with the calendar.
type OverdueService interface {
	SweepOverdue(ctx context.Context, now time.Time, dryRun bool) (*dto.OverdueSweepResponse, error)
}

type overdueService struct {
	ServiceParams
	invites InviteService
}

func NewOverdueService(params ServiceParams, invites InviteService) OverdueService {
	return &overdueService{
		ServiceParams: params,
		invites:       invites,
	}
}

func (s *overdueService) SweepOverdue(ctx context.Context, now time.Time, dryRun bool) (*dto.OverdueSweepResponse, error) {
	filter := &types.InvoiceFilter{
		QueryFilter: types.NewNoLimitQueryFilter(),
		Statuses:    []types.InvoiceStatus{types.InvoiceStatusPending, types.InvoiceStatusPartial},
		DueBefore:   lo.ToPtr(types.StartOfDay(now)),
	}
	candidates, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.OverdueSweepResponse{
		DryRun:     dryRun,
		Checked:    len(candidates),
		InvoiceIDs: []string{},
	}

	var mu sync.Mutex
	mark := func(id string) {
		mu.Lock()
		defer mu.Unlock()
		resp.InvoiceIDs = append(resp.InvoiceIDs, id)
	}

	concurrency := s.Config.Billing.OverdueSweepConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	limit := rate.Inf
	if r := s.Config.Billing.OverdueSweepRate; r > 0 {
		limit = rate.Limit(r)
	}
	limiter := rate.NewLimiter(limit, concurrency)

	p := pool.New().WithMaxGoroutines(concurrency).WithErrors()
	for _, candidate := range candidates {
		p.Go(func() error {
			if dryRun {
				if billing.Derive(candidate.State(candidate.AmountPaid), now).Status == types.InvoiceStatusOverdue {
					mark(candidate.ID)
				}
				return nil
			}

			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			marked, err := s.sweepOne(ctx, candidate.ID, now)
			if err != nil {
				s.Logger.Errorw("failed to sweep invoice", "invoice_id", candidate.ID, "error", err)
				return err
			}
			if marked {
				mark(candidate.ID)
			}
			return nil
		})
	}
	sweepErr := p.Wait()

	sort.Strings(resp.InvoiceIDs)
	resp.Marked = len(resp.InvoiceIDs)

	expired, err := s.invites.ExpireInvites(ctx, now, dryRun)
	if err != nil {
		return nil, err
	}
	resp.InvitesExpired = expired

	s.Logger.Infow("overdue sweep finished",
		"dry_run", dryRun,
		"checked", resp.Checked,
		"marked", resp.Marked,
		"invites_expired", resp.InvitesExpired,
	)

	if sweepErr != nil {
		return resp, sweepErr
	}
	return resp, nil
}

// sweepOne re-derives a single invoice under the regular write path and
// reports whether it moved to overdue.
func (s *overdueService) sweepOne(ctx context.Context, invoiceID string, now time.Time) (bool, error) {
	params := s.ServiceParams
	params.Now = func() time.Time { return now }

	var before types.InvoiceStatus
	inv, _, err := params.mutateInvoice(ctx, invoiceID, func(ctx context.Context, inv *invoice.Invoice, ledger []*payment.Payment) ([]*payment.Payment, error) {
		before = inv.InvoiceStatus
		return ledger, nil
	})
	if err != nil {
		return false, err
	}
	if before == types.InvoiceStatusOverdue || inv.InvoiceStatus != types.InvoiceStatusOverdue {
		return false, nil
	}

	t, err := s.TenancyRepo.Get(ctx, inv.TenancyID)
	if err != nil {
		return true, err
	}
	s.publishInvoiceEvent(ctx, types.TemplateInvoiceOverdue, inv, recipients(t)...)
	return true, nil
}
