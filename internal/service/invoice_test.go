package service

import (
	"context"
	"testing"
	"time"

	"github.com/rentdesk/rentdesk/internal/api/dto"
	"github.com/rentdesk/rentdesk/internal/domain/tenancy"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/testutil"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	invoices InvoiceService
	payments PaymentService
	landlord types.Actor
	tenant   types.Actor
	tenancy  *tenancy.Tenancy
	ctx      context.Context
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	s.invoices = NewInvoiceService(params)
	s.payments = NewPaymentService(params)

	s.landlord = testutil.Landlord("landlord_1")
	s.tenant = testutil.Tenant("tenant_1")
	s.tenancy = s.CreateTenancy(s.landlord.UserID, s.tenant.UserID, 3000000)
	s.ctx = withActor(s.GetContext(), s.landlord)
}

func (s *InvoiceServiceSuite) createMarchInvoice() *dto.InvoiceViewResponse {
	resp, err := s.invoices.CreateInvoice(s.ctx, s.landlord, dto.CreateInvoiceRequest{
		TenancyID: s.tenancy.ID,
		Period:    "2025-03",
		Lines:     rentAndPower(3000000, 100, 1750),
		DueDate:   lo.ToPtr("2025-03-20"),
	})
	s.Require().NoError(err)
	return resp
}

func (s *InvoiceServiceSuite) assertAmounts(view *dto.InvoiceViewResponse, status types.InvoiceStatus, total, paid, due int64) {
	s.Equal(status, view.Status)
	s.True(view.TotalAmount.Equal(amount(total)), "total %s", view.TotalAmount)
	s.True(view.AmountPaid.Equal(amount(paid)), "paid %s", view.AmountPaid)
	s.True(view.AmountDue.Equal(amount(due)), "due %s", view.AmountDue)
}

// Walks one invoice from creation through partial payment, an edit and full
// payment, after which it can no longer be changed.
func (s *InvoiceServiceSuite) TestMonthlyInvoiceLifecycle() {
	created := s.createMarchInvoice()
	s.assertAmounts(created, types.InvoiceStatusPending, 3175000, 0, 3175000)
	s.Len(created.Lines, 2)
	s.True(created.Lines[1].Amount.Equal(amount(175000)))

	first, err := s.payments.RecordPayment(s.ctx, s.tenant, created.ID, payReq(1175000, "pay-1"))
	s.Require().NoError(err)
	s.assertAmounts(first.Invoice, types.InvoiceStatusPartial, 3175000, 1175000, 2000000)

	notes := "rent raised"
	edited, err := s.invoices.UpdateInvoiceLines(s.ctx, s.landlord, created.ID, dto.UpdateInvoiceLinesRequest{
		Lines: rentAndPower(3500000, 100, 1750),
		Notes: &notes,
	})
	s.Require().NoError(err)
	s.assertAmounts(edited, types.InvoiceStatusPartial, 3675000, 1175000, 2500000)
	s.Equal(notes, edited.Notes)
	s.Empty(edited.Warnings)

	second, err := s.payments.RecordPayment(s.ctx, s.tenant, created.ID, payReq(2500000, "pay-2"))
	s.Require().NoError(err)
	s.assertAmounts(second.Invoice, types.InvoiceStatusPaid, 3675000, 3675000, 0)
	s.NotNil(second.Invoice.PaidAt)

	_, err = s.invoices.UpdateInvoiceLines(s.ctx, s.landlord, created.ID, dto.UpdateInvoiceLinesRequest{
		Lines: rentAndPower(3600000, 100, 1750),
	})
	s.Require().Error(err)
	s.True(ierr.IsImmutableState(err))

	view, err := s.invoices.GetInvoiceView(s.ctx, s.tenant, created.ID)
	s.Require().NoError(err)
	s.assertAmounts(view, types.InvoiceStatusPaid, 3675000, 3675000, 0)
	s.Len(view.Payments, 2)
}

func (s *InvoiceServiceSuite) TestCreateInvoice_Validation() {
	tests := []struct {
		name string
		req  dto.CreateInvoiceRequest
		want func(error) bool
	}{
		{
			name: "no lines",
			req:  dto.CreateInvoiceRequest{TenancyID: s.tenancy.ID, Period: "2025-03"},
			want: ierr.IsValidation,
		},
		{
			name: "bad period",
			req:  dto.CreateInvoiceRequest{TenancyID: s.tenancy.ID, Period: "March", Lines: rentAndPower(1, 1, 1)},
			want: ierr.IsValidation,
		},
		{
			name: "bad due date",
			req: dto.CreateInvoiceRequest{
				TenancyID: s.tenancy.ID,
				Period:    "2025-03",
				Lines:     rentAndPower(1, 1, 1),
				DueDate:   lo.ToPtr("20/03/2025"),
			},
			want: ierr.IsValidation,
		},
		{
			name: "displayed amount disagrees",
			req: dto.CreateInvoiceRequest{
				TenancyID: s.tenancy.ID,
				Period:    "2025-03",
				Lines: []dto.InvoiceLineRequest{{
					ItemType:  types.InvoiceLineItemTypeRent,
					Quantity:  decimal.NewFromInt(1),
					UnitPrice: amount(100),
					Amount:    lo.ToPtr(amount(90)),
				}},
			},
			want: ierr.IsValidation,
		},
		{
			name: "unknown tenancy",
			req:  dto.CreateInvoiceRequest{TenancyID: "ten_missing", Period: "2025-03", Lines: rentAndPower(1, 1, 1)},
			want: ierr.IsNotFound,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.invoices.CreateInvoice(s.ctx, s.landlord, tt.req)
			s.Require().Error(err)
			s.True(tt.want(err), "unexpected error: %v", err)
		})
	}
}

func (s *InvoiceServiceSuite) TestCreateInvoice_DuplicatePeriod() {
	s.createMarchInvoice()

	_, err := s.invoices.CreateInvoice(s.ctx, s.landlord, dto.CreateInvoiceRequest{
		TenancyID: s.tenancy.ID,
		Period:    "2025-03",
		Lines:     rentAndPower(3000000, 10, 1750),
	})
	s.Require().Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *InvoiceServiceSuite) TestCreateInvoice_PeriodFreedByVoid() {
	created := s.createMarchInvoice()
	_, err := s.invoices.VoidInvoice(s.ctx, s.landlord, created.ID)
	s.Require().NoError(err)

	again, err := s.invoices.CreateInvoice(s.ctx, s.landlord, dto.CreateInvoiceRequest{
		TenancyID: s.tenancy.ID,
		Period:    "2025-03",
		Lines:     rentAndPower(3000000, 90, 1750),
	})
	s.Require().NoError(err)
	s.NotEqual(created.ID, again.ID)
}

func (s *InvoiceServiceSuite) TestCreateInvoice_OnlyOwnLandlord() {
	_, err := s.invoices.CreateInvoice(s.ctx, testutil.Landlord("landlord_2"), dto.CreateInvoiceRequest{
		TenancyID: s.tenancy.ID,
		Period:    "2025-03",
		Lines:     rentAndPower(3000000, 100, 1750),
	})
	s.Require().Error(err)
	s.True(ierr.IsPermissionDenied(err))

	_, err = s.invoices.CreateInvoice(s.ctx, s.tenant, dto.CreateInvoiceRequest{
		TenancyID: s.tenancy.ID,
		Period:    "2025-03",
		Lines:     rentAndPower(3000000, 100, 1750),
	})
	s.Require().Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *InvoiceServiceSuite) TestCreateInvoice_PublishesToTenant() {
	created := s.createMarchInvoice()

	published := s.GetPublisher().EventsOfType(types.TemplateInvoiceCreated)
	s.Require().Len(published, 1)
	s.Equal(created.ID, published[0].ObjectID)
	s.Equal([]string{s.tenant.UserID}, published[0].Recipients)
}

func (s *InvoiceServiceSuite) TestUpdateInvoiceLines_BelowPaidWarns() {
	created := s.createMarchInvoice()
	_, err := s.payments.RecordPayment(s.ctx, s.tenant, created.ID, payReq(2000000, "pay-1"))
	s.Require().NoError(err)

	edited, err := s.invoices.UpdateInvoiceLines(s.ctx, s.landlord, created.ID, dto.UpdateInvoiceLinesRequest{
		Lines: []dto.InvoiceLineRequest{{
			ItemType:  types.InvoiceLineItemTypeRent,
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: amount(1500000),
		}},
	})
	s.Require().NoError(err)
	s.assertAmounts(edited, types.InvoiceStatusPaid, 1500000, 2000000, 0)
	s.Contains(edited.Warnings, types.WarningTotalBelowPaid)
}

func (s *InvoiceServiceSuite) TestUpdateInvoiceLines_RejectsBadLinesWithoutChange() {
	created := s.createMarchInvoice()

	_, err := s.invoices.UpdateInvoiceLines(s.ctx, s.landlord, created.ID, dto.UpdateInvoiceLinesRequest{
		Lines: []dto.InvoiceLineRequest{{
			ItemType:  types.InvoiceLineItemTypeRent,
			Quantity:  decimal.NewFromInt(-1),
			UnitPrice: amount(100),
		}},
	})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))

	view, err := s.invoices.GetInvoiceView(s.ctx, s.landlord, created.ID)
	s.Require().NoError(err)
	s.assertAmounts(view, types.InvoiceStatusPending, 3175000, 0, 3175000)
	s.Equal(created.Version, view.Version)
}

func (s *InvoiceServiceSuite) TestDraftInvoice_IssueAndVisibility() {
	draft, err := s.invoices.CreateInvoice(s.ctx, s.landlord, dto.CreateInvoiceRequest{
		TenancyID: s.tenancy.ID,
		Period:    "2025-04",
		Lines:     rentAndPower(3000000, 80, 1750),
		Draft:     true,
	})
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusDraft, draft.Status)
	s.Empty(s.GetPublisher().EventsOfType(types.TemplateInvoiceCreated))

	_, err = s.invoices.GetInvoiceView(s.ctx, s.tenant, draft.ID)
	s.True(ierr.IsNotFound(err))

	_, err = s.payments.RecordPayment(s.ctx, s.tenant, draft.ID, payReq(100, "draft-pay"))
	s.True(ierr.IsInvalidOperation(err))

	issued, err := s.invoices.IssueInvoice(s.ctx, s.landlord, draft.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPending, issued.Status)
	s.NotNil(issued.IssuedAt)
	s.Len(s.GetPublisher().EventsOfType(types.TemplateInvoiceIssued), 1)

	_, err = s.invoices.IssueInvoice(s.ctx, s.landlord, draft.ID)
	s.True(ierr.IsInvalidOperation(err))

	view, err := s.invoices.GetInvoiceView(s.ctx, s.tenant, draft.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPending, view.Status)
}

func (s *InvoiceServiceSuite) TestVoidInvoice() {
	created := s.createMarchInvoice()

	voided, err := s.invoices.VoidInvoice(s.ctx, s.landlord, created.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusVoid, voided.Status)
	s.NotNil(voided.VoidedAt)

	_, err = s.payments.RecordPayment(s.ctx, s.tenant, created.ID, payReq(100, "void-pay"))
	s.True(ierr.IsImmutableState(err))

	_, err = s.invoices.VoidInvoice(s.ctx, s.landlord, created.ID)
	s.True(ierr.IsImmutableState(err))
}

func (s *InvoiceServiceSuite) TestVoidInvoice_WithPaymentsRefused() {
	created := s.createMarchInvoice()
	_, err := s.payments.RecordPayment(s.ctx, s.tenant, created.ID, payReq(100000, "pay-1"))
	s.Require().NoError(err)

	_, err = s.invoices.VoidInvoice(s.ctx, s.landlord, created.ID)
	s.Require().Error(err)
	s.True(ierr.IsImmutableState(err))
}

func (s *InvoiceServiceSuite) TestGetInvoiceView_DerivesOverdue() {
	created := s.createMarchInvoice()

	s.SetNow(time.Date(2025, time.March, 21, 8, 0, 0, 0, time.UTC))
	view, err := s.invoices.GetInvoiceView(s.ctx, s.tenant, created.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusOverdue, view.Status)

	// reads never persist the derived status
	stored, err := s.GetStores().InvoiceRepo.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPending, stored.InvoiceStatus)

	// the due date itself is not yet overdue
	s.SetNow(time.Date(2025, time.March, 20, 23, 0, 0, 0, time.UTC))
	view, err = s.invoices.GetInvoiceView(s.ctx, s.tenant, created.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPending, view.Status)
}

func (s *InvoiceServiceSuite) TestGetInvoiceView_Strangers() {
	created := s.createMarchInvoice()

	_, err := s.invoices.GetInvoiceView(s.ctx, testutil.Tenant("tenant_2"), created.ID)
	s.True(ierr.IsPermissionDenied(err))

	_, err = s.invoices.GetInvoiceView(s.ctx, s.landlord, "inv_missing")
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestListInvoices_ScopedToActor() {
	s.createMarchInvoice()

	other := s.CreateTenancy("landlord_2", "tenant_2", 2000000)
	_, err := s.invoices.CreateInvoice(s.ctx, testutil.Landlord("landlord_2"), dto.CreateInvoiceRequest{
		TenancyID: other.ID,
		Period:    "2025-03",
		Lines:     rentAndPower(2000000, 50, 1750),
	})
	s.Require().NoError(err)

	mine, err := s.invoices.ListInvoices(s.ctx, s.tenant, nil)
	s.Require().NoError(err)
	s.Len(mine.Items, 1)
	s.Equal(1, mine.Pagination.Total)

	nobody, err := s.invoices.ListInvoices(s.ctx, testutil.Tenant("tenant_9"), nil)
	s.Require().NoError(err)
	s.Empty(nobody.Items)

	all, err := s.invoices.ListInvoices(s.ctx, types.SystemActor(), nil)
	s.Require().NoError(err)
	s.Len(all.Items, 2)

	filter := types.NewInvoiceFilter()
	filter.Statuses = []types.InvoiceStatus{types.InvoiceStatusPaid}
	paid, err := s.invoices.ListInvoices(s.ctx, s.landlord, filter)
	s.Require().NoError(err)
	s.Empty(paid.Items)
}

func (s *InvoiceServiceSuite) TestDraftInvoice_HiddenFromTenantLists() {
	s.createMarchInvoice()
	draft, err := s.invoices.CreateInvoice(s.ctx, s.landlord, dto.CreateInvoiceRequest{
		TenancyID: s.tenancy.ID,
		Period:    "2025-04",
		Lines:     rentAndPower(3000000, 80, 1750),
		Draft:     true,
	})
	s.Require().NoError(err)

	mine, err := s.invoices.ListInvoices(s.ctx, s.tenant, nil)
	s.Require().NoError(err)
	s.Require().Len(mine.Items, 1)
	s.Equal(1, mine.Pagination.Total)
	s.NotEqual(draft.ID, mine.Items[0].ID)

	owner, err := s.invoices.ListInvoices(s.ctx, s.landlord, nil)
	s.Require().NoError(err)
	s.Len(owner.Items, 2)

	_, err = s.payments.ListPayments(s.ctx, s.tenant, draft.ID)
	s.True(ierr.IsNotFound(err))

	ledger, err := s.payments.ListPayments(s.ctx, s.landlord, draft.ID)
	s.Require().NoError(err)
	s.Empty(ledger.Items)

	_, err = s.invoices.IssueInvoice(s.ctx, s.landlord, draft.ID)
	s.Require().NoError(err)

	mine, err = s.invoices.ListInvoices(s.ctx, s.tenant, nil)
	s.Require().NoError(err)
	s.Len(mine.Items, 2)
}
