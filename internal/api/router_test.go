package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rentdesk/rentdesk/internal/api/dto"
	v1 "github.com/rentdesk/rentdesk/internal/api/v1"
	"github.com/rentdesk/rentdesk/internal/auth"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/sentry"
	"github.com/rentdesk/rentdesk/internal/service"
	"github.com/rentdesk/rentdesk/internal/testutil"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RouterSuite struct {
	testutil.BaseServiceTestSuite
	router   *gin.Engine
	provider auth.Provider
	landlord types.Actor
	tenant   types.Actor
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	gin.SetMode(gin.TestMode)

	stores := s.GetStores()
	params := service.ServiceParams{
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

	log := s.GetLogger()
	s.provider = auth.NewProvider(s.GetConfig())
	s.router = NewRouter(Handlers{
		Health:       v1.NewHealthHandler(log),
		Invoice:      v1.NewInvoiceHandler(service.NewInvoiceService(params), log),
		Payment:      v1.NewPaymentHandler(service.NewPaymentService(params), log),
		Invite:       v1.NewInviteHandler(service.NewInviteService(params), log),
		Notification: v1.NewNotificationHandler(service.NewNotificationService(params), log),
		Meter:        v1.NewMeterHandler(service.NewMeterService(params), log),
		Audit:        v1.NewAuditHandler(service.NewAuditService(params), log),
	}, s.GetConfig(), log, s.provider, sentry.NewSentryService(s.GetConfig(), log))

	s.landlord = testutil.Landlord("landlord_1")
	s.tenant = testutil.Tenant("tenant_1")
}

func (s *RouterSuite) do(actor *types.Actor, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		token, _, err := s.provider.IssueToken(s.GetContext(), *actor)
		s.Require().NoError(err)
		req.Header.Set(types.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder, out any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func (s *RouterSuite) lines(rent int64) []dto.InvoiceLineRequest {
	return []dto.InvoiceLineRequest{
		{ItemType: types.InvoiceLineItemTypeRent, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(rent)},
		{ItemType: types.InvoiceLineItemTypeElectricity, Quantity: decimal.NewFromInt(100), UnitPrice: decimal.NewFromInt(1750)},
	}
}

func (s *RouterSuite) TestHealth() {
	w := s.do(nil, http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestRequiresToken() {
	w := s.do(nil, http.MethodGet, "/v1/invoices", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterSuite) TestInvoiceAndPaymentFlow() {
	t := s.CreateTenancy(s.landlord.UserID, s.tenant.UserID, 3000000)

	w := s.do(&s.landlord, http.MethodPost, "/v1/invoices", dto.CreateInvoiceRequest{
		TenancyID: t.ID,
		Period:    "2025-03",
		Lines:     s.lines(3000000),
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created dto.InvoiceViewResponse
	s.decode(w, &created)
	s.Equal(types.InvoiceStatusPending, created.Status)
	s.True(created.TotalAmount.Equal(decimal.NewFromInt(3175000)))

	path := "/v1/invoices/" + created.ID + "/payments"
	body := dto.RecordPaymentRequest{Amount: decimal.NewFromInt(1175000), Method: types.PaymentMethodBankTransfer}

	w = s.do(&s.tenant, http.MethodPost, path, body, types.HeaderIdempotencyKey, "pay-1")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var paid dto.RecordPaymentResponse
	s.decode(w, &paid)
	s.Equal(types.InvoiceStatusPartial, paid.Invoice.Status)
	s.True(paid.Invoice.AmountDue.Equal(decimal.NewFromInt(2000000)))

	// the same key replays without a second ledger entry
	w = s.do(&s.tenant, http.MethodPost, path, body, types.HeaderIdempotencyKey, "pay-1")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var replay dto.RecordPaymentResponse
	s.decode(w, &replay)
	s.True(replay.Replayed)
	s.Equal(paid.Payment.ID, replay.Payment.ID)

	w = s.do(&s.landlord, http.MethodPut, "/v1/invoices/"+created.ID+"/lines", dto.UpdateInvoiceLinesRequest{
		Lines: s.lines(3500000),
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var edited dto.InvoiceViewResponse
	s.decode(w, &edited)
	s.True(edited.AmountDue.Equal(decimal.NewFromInt(2500000)))

	body.Amount = decimal.NewFromInt(2500000)
	w = s.do(&s.tenant, http.MethodPost, path, body, types.HeaderIdempotencyKey, "pay-2")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(&s.tenant, http.MethodGet, "/v1/invoices/"+created.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var view dto.InvoiceViewResponse
	s.decode(w, &view)
	s.Equal(types.InvoiceStatusPaid, view.Status)
	s.Len(view.Payments, 2)

	w = s.do(&s.landlord, http.MethodPut, "/v1/invoices/"+created.ID+"/lines", dto.UpdateInvoiceLinesRequest{
		Lines: s.lines(3600000),
	})
	s.Equal(http.StatusConflict, w.Code)
	var errResp ierr.ErrorResponse
	s.decode(w, &errResp)
	s.Equal(ierr.ErrCodeImmutableState, errResp.Error.Code)
}

func (s *RouterSuite) TestRecordPayment_MissingKey() {
	t := s.CreateTenancy(s.landlord.UserID, s.tenant.UserID, 3000000)
	w := s.do(&s.landlord, http.MethodPost, "/v1/invoices", dto.CreateInvoiceRequest{
		TenancyID: t.ID,
		Period:    "2025-03",
		Lines:     s.lines(3000000),
	})
	s.Require().Equal(http.StatusCreated, w.Code)
	var created dto.InvoiceViewResponse
	s.decode(w, &created)

	w = s.do(&s.tenant, http.MethodPost, "/v1/invoices/"+created.ID+"/payments", dto.RecordPaymentRequest{
		Amount: decimal.NewFromInt(100),
		Method: types.PaymentMethodCash,
	})
	s.Equal(http.StatusBadRequest, w.Code)
	var errResp ierr.ErrorResponse
	s.decode(w, &errResp)
	s.Equal(ierr.ErrCodeValidation, errResp.Error.Code)
}

func (s *RouterSuite) TestInviteRespondTwice() {
	w := s.do(&s.landlord, http.MethodPost, "/v1/invites", dto.CreateInviteRequest{
		PropertyID: "prop_1",
		RoomID:     "room_1",
		Email:      s.tenant.Email,
		BaseRent:   decimal.NewFromInt(3000000),
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var inv dto.InviteResponse
	s.decode(w, &inv)

	path := "/v1/invites/" + inv.ID + "/respond"
	w = s.do(&s.tenant, http.MethodPost, path, dto.RespondInviteRequest{Decision: types.InviteDecisionAccepted})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(&s.tenant, http.MethodPost, path, dto.RespondInviteRequest{Decision: types.InviteDecisionRejected})
	s.Equal(http.StatusConflict, w.Code)
	var errResp ierr.ErrorResponse
	s.decode(w, &errResp)
	s.Equal(ierr.ErrCodeInviteAlreadyProcessed, errResp.Error.Code)
	s.Equal(string(types.InviteStatusAccepted), errResp.Error.Details["current_status"])
}

func (s *RouterSuite) TestInviteRespondByToken() {
	w := s.do(&s.landlord, http.MethodPost, "/v1/invites", dto.CreateInviteRequest{
		PropertyID: "prop_1",
		RoomID:     "room_1",
		Email:      s.tenant.Email,
		BaseRent:   decimal.NewFromInt(3000000),
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var inv dto.InviteResponse
	s.decode(w, &inv)

	w = s.do(&s.tenant, http.MethodPost, "/v1/invites/respond", dto.RespondInviteByTokenRequest{
		Token:    inv.Token,
		Decision: types.InviteDecisionAccepted,
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.RespondInviteResponse
	s.decode(w, &resp)
	s.Equal(inv.ID, resp.Invite.ID)
	s.NotNil(resp.Tenancy)
}

func (s *RouterSuite) TestDraftHiddenFromTenantList() {
	t := s.CreateTenancy(s.landlord.UserID, s.tenant.UserID, 3000000)
	w := s.do(&s.landlord, http.MethodPost, "/v1/invoices", dto.CreateInvoiceRequest{
		TenancyID: t.ID,
		Period:    "2025-04",
		Lines:     s.lines(3000000),
		Draft:     true,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var draft dto.InvoiceViewResponse
	s.decode(w, &draft)

	w = s.do(&s.tenant, http.MethodGet, "/v1/invoices", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list dto.ListInvoicesResponse
	s.decode(w, &list)
	s.Empty(list.Items)

	w = s.do(&s.tenant, http.MethodGet, "/v1/invoices/"+draft.ID+"/payments", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestNotificationsScopedToCaller() {
	w := s.do(&s.tenant, http.MethodGet, "/v1/notifications/unread-count", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var count dto.UnreadCountResponse
	s.decode(w, &count)
	s.Zero(count.UnreadCount)

	w = s.do(&s.tenant, http.MethodPost, "/v1/notifications/missing/read", nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(&s.tenant, http.MethodPost, "/v1/notifications/read-all", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var marked dto.MarkAllReadResponse
	s.decode(w, &marked)
	s.Zero(marked.MarkedCount)
}

func (s *RouterSuite) TestMeterReadingBilledOnInvoice() {
	t := s.CreateTenancy(s.landlord.UserID, s.tenant.UserID, 3000000)
	reading := dto.SubmitMeterReadingRequest{
		TenancyID:      t.ID,
		Period:         "2025-04",
		ElectricityOld: decimal.NewFromInt(1200),
		ElectricityNew: decimal.NewFromInt(1300),
		WaterOld:       decimal.NewFromInt(40),
		WaterNew:       decimal.NewFromInt(40),
	}

	w := s.do(&s.tenant, http.MethodPost, "/v1/meter-readings", reading)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(&s.landlord, http.MethodPost, "/v1/meter-readings", reading)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(&s.landlord, http.MethodPost, "/v1/meter-readings", reading)
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(&s.tenant, http.MethodGet, "/v1/meter-readings?tenancy_id="+t.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var readings dto.ListMeterReadingsResponse
	s.decode(w, &readings)
	s.Require().Len(readings.Items, 1)
	s.True(readings.Items[0].ElectricityUsage.Equal(decimal.NewFromInt(100)))

	w = s.do(&s.landlord, http.MethodPost, "/v1/invoices", dto.CreateInvoiceRequest{
		TenancyID: t.ID,
		Period:    "2025-04",
		Lines: []dto.InvoiceLineRequest{
			{ItemType: types.InvoiceLineItemTypeRent, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(3000000)},
		},
		Meter: &dto.MeterChargesRequest{ElectricityUnitPrice: decimal.NewFromInt(1750), WaterUnitPrice: decimal.NewFromInt(20000)},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var inv dto.InvoiceViewResponse
	s.decode(w, &inv)
	s.Len(inv.Lines, 2)
	s.True(inv.TotalAmount.Equal(decimal.NewFromInt(3175000)), "total %s", inv.TotalAmount)

	w = s.do(&s.tenant, http.MethodGet, "/v1/invoices/"+inv.ID+"/audit-logs", nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(&s.landlord, http.MethodGet, "/v1/invoices/"+inv.ID+"/audit-logs", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var trail dto.ListAuditLogsResponse
	s.decode(w, &trail)
	s.Require().Len(trail.Items, 1)
	s.Equal(types.AuditActionCreate, trail.Items[0].Action)
	s.Equal(s.landlord.UserID, trail.Items[0].ActorID)
}
