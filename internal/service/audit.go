package service

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/api/dto"
	"github.com/rentdesk/rentdesk/internal/domain/payment"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
)

type AuditService interface {
	// ListInvoiceAuditLogs returns the trail of an invoice and its payments
	ListInvoiceAuditLogs(ctx context.Context, actor types.Actor, invoiceID string) (*dto.ListAuditLogsResponse, error)
}

type auditService struct {
	ServiceParams
}

func NewAuditService(params ServiceParams) AuditService {
	return &auditService{
		ServiceParams: params,
	}
}

func (s *auditService) ListInvoiceAuditLogs(ctx context.Context, actor types.Actor, invoiceID string) (*dto.ListAuditLogsResponse, error) {
	_, t, err := s.loadInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := t.Manageable(actor); err != nil {
		return nil, err
	}

	ledger, err := s.PaymentRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	ids := append([]string{invoiceID}, lo.Map(ledger, func(p *payment.Payment, _ int) string {
		return p.ID
	})...)

	logs, err := s.AuditRepo.List(ctx, &types.AuditLogFilter{ObjectIDs: ids})
	if err != nil {
		return nil, err
	}
	return dto.NewListAuditLogsResponse(logs), nil
}
