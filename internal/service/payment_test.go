package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rentdesk/rentdesk/internal/api/dto"
	"github.com/rentdesk/rentdesk/internal/domain/tenancy"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/locker"
	"github.com/rentdesk/rentdesk/internal/testutil"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceSuite struct {
	testutil.BaseServiceTestSuite
	invoices InvoiceService
	service  PaymentService
	landlord types.Actor
	tenant   types.Actor
	tenancy  *tenancy.Tenancy
	invoice  *dto.InvoiceViewResponse
	ctx      context.Context
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	s.invoices = NewInvoiceService(params)
	s.service = NewPaymentService(params)

	s.landlord = testutil.Landlord("landlord_1")
	s.tenant = testutil.Tenant("tenant_1")
	s.tenancy = s.CreateTenancy(s.landlord.UserID, s.tenant.UserID, 3000000)
	s.ctx = withActor(s.GetContext(), s.tenant)

	var err error
	s.invoice, err = s.invoices.CreateInvoice(s.ctx, s.landlord, dto.CreateInvoiceRequest{
		TenancyID: s.tenancy.ID,
		Period:    "2025-03",
		Lines:     rentAndPower(3000000, 100, 1750),
		DueDate:   lo.ToPtr("2025-03-20"),
	})
	s.Require().NoError(err)
}

func (s *PaymentServiceSuite) TestRecordPayment_ReplaySameKey() {
	first, err := s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, payReq(1175000, "transfer-001"))
	s.Require().NoError(err)
	s.False(first.Replayed)
	writes := s.GetDB().Transactions()

	again, err := s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, payReq(1175000, "transfer-001"))
	s.Require().NoError(err)
	s.True(again.Replayed)
	// a replay is answered from the ledger without opening a write
	s.Equal(writes, s.GetDB().Transactions())
	s.Equal(first.Payment.ID, again.Payment.ID)
	s.True(again.Invoice.AmountDue.Equal(amount(2000000)))

	list, err := s.service.ListPayments(s.ctx, s.tenant, s.invoice.ID)
	s.Require().NoError(err)
	s.Len(list.Items, 1)
	s.Len(s.GetPublisher().EventsOfType(types.TemplatePaymentReceived), 1)
}

func (s *PaymentServiceSuite) TestRecordPayment_KeyReusedWithOtherAmount() {
	_, err := s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, payReq(1000, "transfer-001"))
	s.Require().NoError(err)

	_, err = s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, payReq(2000, "transfer-001"))
	s.Require().Error(err)
	s.True(ierr.IsVersionConflict(err))
}

func (s *PaymentServiceSuite) TestRecordPayment_KeysAreScopedPerActor() {
	_, err := s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, payReq(1000, "same-key"))
	s.Require().NoError(err)

	resp, err := s.service.RecordPayment(s.ctx, s.landlord, s.invoice.ID, payReq(1000, "same-key"))
	s.Require().NoError(err)
	s.False(resp.Replayed)
	s.True(resp.Invoice.AmountPaid.Equal(amount(2000)))
}

func (s *PaymentServiceSuite) TestRecordPayment_Validation() {
	tests := []struct {
		name string
		req  dto.RecordPaymentRequest
	}{
		{name: "zero amount", req: payReq(0, "k1")},
		{name: "negative amount", req: payReq(-5, "k2")},
		{name: "missing key", req: payReq(100, "")},
		{name: "unknown method", req: dto.RecordPaymentRequest{Amount: amount(100), Method: "cheque", IdempotencyKey: "k3"}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, tt.req)
			s.Require().Error(err)
			s.True(ierr.IsValidation(err), "unexpected error: %v", err)
		})
	}
}

func (s *PaymentServiceSuite) TestRecordPayment_Overpayment() {
	resp, err := s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, payReq(4000000, "big"))
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPaid, resp.Invoice.Status)
	s.True(resp.Invoice.AmountDue.IsZero())
	s.Contains(resp.Warnings, types.WarningOverpayment)
}

func (s *PaymentServiceSuite) TestRecordPayment_OverpaymentDisallowed() {
	s.GetConfig().Billing.AllowOverpayment = false

	_, err := s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, payReq(4000000, "big"))
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))

	view, err := s.invoices.GetInvoiceView(s.ctx, s.tenant, s.invoice.ID)
	s.Require().NoError(err)
	s.True(view.AmountPaid.IsZero())
}

func (s *PaymentServiceSuite) TestRecordPayment_StrangerDenied() {
	_, err := s.service.RecordPayment(s.ctx, testutil.Tenant("tenant_2"), s.invoice.ID, payReq(100, "k"))
	s.Require().Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *PaymentServiceSuite) TestRecordPayment_AmountDueNeverIncreases() {
	due := s.invoice.AmountDue
	for i, v := range []int64{100000, 250000, 1, 999999} {
		resp, err := s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, payReq(v, "step-"+string(rune('a'+i))))
		s.Require().NoError(err)
		s.True(resp.Invoice.AmountDue.LessThanOrEqual(due))
		due = resp.Invoice.AmountDue
	}
}

func (s *PaymentServiceSuite) TestRecordPayment_ConcurrentDistinctKeys() {
	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, payReq(100000, "concurrent-"+string(rune('a'+i))))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		s.Require().NoError(err)
	}
	view, err := s.invoices.GetInvoiceView(s.ctx, s.tenant, s.invoice.ID)
	s.Require().NoError(err)
	s.True(view.AmountPaid.Equal(amount(1000000)))
	s.True(view.AmountDue.Equal(amount(2175000)))

	stored, err := s.GetStores().InvoiceRepo.Get(s.ctx, s.invoice.ID)
	s.Require().NoError(err)
	s.True(stored.AmountPaid.Equal(amount(1000000)))
}

func (s *PaymentServiceSuite) TestRecordPayment_ConcurrentSameKey() {
	const n = 8
	var wg sync.WaitGroup
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, payReq(500000, "double-click"))
			if err == nil {
				ids[i] = resp.Payment.ID
			}
		}(i)
	}
	wg.Wait()

	s.Len(lo.Uniq(ids), 1)
	s.NotEmpty(ids[0])
	s.Len(s.GetStores().PaymentRepo.Completed(s.ctx, s.invoice.ID), 1)
}

func (s *PaymentServiceSuite) TestPendingPayment_ConfirmAndFail() {
	req := payReq(3175000, "gateway-1")
	req.Pending = true
	pending, err := s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, req)
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusPending, pending.Payment.Status)
	s.Equal(types.InvoiceStatusPending, pending.Invoice.Status)
	s.True(pending.Invoice.AmountPaid.IsZero())

	// tenants cannot settle their own pending payments
	_, err = s.service.UpdatePaymentStatus(s.ctx, s.tenant, pending.Payment.ID, dto.UpdatePaymentStatusRequest{Status: types.PaymentStatusCompleted})
	s.True(ierr.IsPermissionDenied(err))

	settled, err := s.service.UpdatePaymentStatus(s.ctx, s.landlord, pending.Payment.ID, dto.UpdatePaymentStatusRequest{Status: types.PaymentStatusCompleted})
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusCompleted, settled.Payment.Status)
	s.Equal(types.InvoiceStatusPaid, settled.Invoice.Status)

	_, err = s.service.UpdatePaymentStatus(s.ctx, s.landlord, pending.Payment.ID, dto.UpdatePaymentStatusRequest{Status: types.PaymentStatusFailed})
	s.Require().Error(err)

	other := payReq(1000, "gateway-2")
	other.Pending = true
	_, err = s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, other)
	s.True(ierr.IsImmutableState(err))
}

func (s *PaymentServiceSuite) TestPendingPayment_Failed() {
	req := payReq(1000000, "gateway-1")
	req.Pending = true
	pending, err := s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, req)
	s.Require().NoError(err)

	failed, err := s.service.UpdatePaymentStatus(s.ctx, s.landlord, pending.Payment.ID, dto.UpdatePaymentStatusRequest{Status: types.PaymentStatusFailed})
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusFailed, failed.Payment.Status)
	s.True(failed.Invoice.AmountPaid.IsZero())
	s.Len(s.GetPublisher().EventsOfType(types.TemplatePaymentFailed), 1)
}

func (s *PaymentServiceSuite) TestRecordPayment_PublishFailureDoesNotFailWrite() {
	s.GetPublisher().FailWith(ierr.NewError("broker down").Mark(ierr.ErrSystem))

	resp, err := s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, payReq(1000, "k"))
	s.Require().NoError(err)
	s.True(resp.Invoice.AmountPaid.Equal(amount(1000)))
}

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) Obtain(ctx context.Context, key string) (locker.Lock, error) {
	args := m.Called(ctx, key)
	lock, _ := args.Get(0).(locker.Lock)
	return lock, args.Error(1)
}

func (s *PaymentServiceSuite) TestRecordPayment_LockBusy() {
	busy := ierr.NewError("lock not obtained").Mark(ierr.ErrVersionConflict)
	l := new(mockLocker)
	l.On("Obtain", mock.Anything, locker.InvoiceKey(s.invoice.ID)).Return(nil, busy).Once()

	params := newTestParams(&s.BaseServiceTestSuite)
	params.Locker = l
	svc := NewPaymentService(params)

	_, err := svc.RecordPayment(s.ctx, s.tenant, s.invoice.ID, payReq(1175000, "busy-1"))
	s.Require().Error(err)
	s.True(ierr.IsConflict(err))
	l.AssertExpectations(s.T())

	ledger, err := s.GetStores().PaymentRepo.ListByInvoice(s.ctx, s.invoice.ID)
	s.Require().NoError(err)
	s.Empty(ledger)
}

func (s *PaymentServiceSuite) TestRecordPayment_SubCentAmountRejected() {
	req := payReq(0, "sub-cent")
	req.Amount = decimal.RequireFromString("1175000.005")

	_, err := s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, req)
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
	s.Equal("amount", ierr.Field(err))

	ledger, err := s.GetStores().PaymentRepo.ListByInvoice(s.ctx, s.invoice.ID)
	s.Require().NoError(err)
	s.Empty(ledger)
}

func (s *PaymentServiceSuite) TestPendingPayment_ConfirmHonorsOverpaymentPolicy() {
	s.GetConfig().Billing.AllowOverpayment = false

	req := payReq(5000000, "gateway-big")
	req.Pending = true
	pending, err := s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, req)
	s.Require().NoError(err)

	_, err = s.service.UpdatePaymentStatus(s.ctx, s.landlord, pending.Payment.ID, dto.UpdatePaymentStatusRequest{Status: types.PaymentStatusCompleted})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
	s.Equal("amount", ierr.Field(err))

	view, err := s.invoices.GetInvoiceView(s.ctx, s.landlord, s.invoice.ID)
	s.Require().NoError(err)
	s.True(view.AmountPaid.IsZero())
	s.Equal(types.InvoiceStatusPending, view.Status)

	// the rejected confirmation leaves the payment pending so it can still be failed
	failed, err := s.service.UpdatePaymentStatus(s.ctx, s.landlord, pending.Payment.ID, dto.UpdatePaymentStatusRequest{Status: types.PaymentStatusFailed})
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusFailed, failed.Payment.Status)
}

func (s *PaymentServiceSuite) TestPendingPayment_ConfirmWarnsOnOverpayment() {
	req := payReq(5000000, "gateway-big")
	req.Pending = true
	pending, err := s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, req)
	s.Require().NoError(err)
	s.Empty(pending.Warnings)

	settled, err := s.service.UpdatePaymentStatus(s.ctx, s.landlord, pending.Payment.ID, dto.UpdatePaymentStatusRequest{Status: types.PaymentStatusCompleted})
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPaid, settled.Invoice.Status)
	s.True(settled.Invoice.AmountDue.IsZero())
	s.Contains(settled.Warnings, types.WarningOverpayment)
}

func (s *PaymentServiceSuite) TestRecordPayment_CallerCancellationDoesNotAbortWrite() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	resp, err := s.service.RecordPayment(ctx, s.tenant, s.invoice.ID, payReq(1175000, "cancelled-client"))
	s.Require().NoError(err)
	s.True(resp.Invoice.AmountDue.Equal(amount(2000000)))

	again, err := s.service.RecordPayment(s.ctx, s.tenant, s.invoice.ID, payReq(1175000, "cancelled-client"))
	s.Require().NoError(err)
	s.True(again.Replayed)
	s.Equal(resp.Payment.ID, again.Payment.ID)
}
