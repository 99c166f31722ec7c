package service

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/api/dto"
	"github.com/rentdesk/rentdesk/internal/testutil"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
)

// newTestParams wires the suite's in-memory stores into service params
func newTestParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		Locker:           s.GetLocker(),
		Cache:            s.GetCache(),
		Now:              s.Clock(),
		InvoiceRepo:      stores.InvoiceRepo,
		PaymentRepo:      stores.PaymentRepo,
		TenancyRepo:      stores.TenancyRepo,
		InviteRepo:       stores.InviteRepo,
		NotificationRepo: stores.NotificationRepo,
		AuditRepo:        stores.AuditRepo,
		MeterRepo:        stores.MeterRepo,
		EventPublisher:   s.GetPublisher(),
	}
}

func amount(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// rentAndPower is a monthly invoice of rent plus metered electricity
func rentAndPower(rent int64, kwh int64, pricePerKwh int64) []dto.InvoiceLineRequest {
	return []dto.InvoiceLineRequest{
		{
			ItemType:    types.InvoiceLineItemTypeRent,
			Description: "Room rent",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   amount(rent),
		},
		{
			ItemType:    types.InvoiceLineItemTypeElectricity,
			Description: "Electricity",
			Quantity:    decimal.NewFromInt(kwh),
			UnitPrice:   amount(pricePerKwh),
		},
	}
}

func payReq(v int64, key string) dto.RecordPaymentRequest {
	return dto.RecordPaymentRequest{
		Amount:         amount(v),
		Method:         types.PaymentMethodBankTransfer,
		IdempotencyKey: key,
	}
}

func withActor(ctx context.Context, actor types.Actor) context.Context {
	return types.SetActor(ctx, actor)
}
