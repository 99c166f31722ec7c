package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rentdesk/rentdesk/internal/domain/events"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/publisher"
	"github.com/rentdesk/rentdesk/internal/pubsub"
	"github.com/rentdesk/rentdesk/internal/pubsub/memory"
	pubsubRouter "github.com/rentdesk/rentdesk/internal/pubsub/router"
	"github.com/rentdesk/rentdesk/internal/sentry"
	"github.com/rentdesk/rentdesk/internal/testutil"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/stretchr/testify/suite"
)

type EventConsumptionSuite struct {
	testutil.BaseServiceTestSuite
	notifications NotificationService
	service       EventConsumptionService
	sentry        *sentry.Service
}

func TestEventConsumption(t *testing.T) {
	suite.Run(t, new(EventConsumptionSuite))
}

func (s *EventConsumptionSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	s.sentry = sentry.NewSentryService(s.GetConfig(), s.GetLogger())
	s.notifications = NewNotificationService(params)
	s.service = NewEventConsumptionService(params, s.notifications, s.sentry)
}

func (s *EventConsumptionSuite) unread(userID string) int {
	resp, err := s.notifications.UnreadCount(s.GetContext(), testutil.Tenant(userID))
	s.Require().NoError(err)
	return resp.UnreadCount
}

func (s *EventConsumptionSuite) TestProcessRawEvent() {
	e := events.New(s.GetContext(), types.TemplatePaymentReceived, "invoice", "inv_1", map[string]any{
		"amount": "1175000",
	}, "landlord_1", "tenant_1")
	payload, err := json.Marshal(e)
	s.Require().NoError(err)

	s.Require().NoError(s.service.ProcessRawEvent(s.GetContext(), payload))
	// redelivery of the same message
	s.Require().NoError(s.service.ProcessRawEvent(s.GetContext(), payload))

	s.Equal(1, s.unread("landlord_1"))
	s.Equal(1, s.unread("tenant_1"))
}

func (s *EventConsumptionSuite) TestProcessRawEvent_Malformed() {
	err := s.service.ProcessRawEvent(s.GetContext(), []byte("{not json"))
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))

	err = s.service.ProcessRawEvent(s.GetContext(), []byte(`{"id":"evt_1","type":"invoice.created"}`))
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

// Events published after a write reach the recipients' inboxes through the
// same transport and router the consumer process runs.
func (s *EventConsumptionSuite) TestPublishedEventsBecomeNotifications() {
	ps := memory.NewPubSub(s.GetLogger())
	defer ps.Close()

	router, err := pubsubRouter.NewRouter(s.GetConfig(), s.GetLogger(), s.sentry, ps)
	s.Require().NoError(err)
	s.service.RegisterHandler(router, pubsub.AsWatermillSubscriber(ps), s.GetConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = router.Run(ctx)
	}()
	<-router.Running()
	defer router.Close()

	pub := publisher.NewEventPublisher(s.GetConfig(), ps, s.GetLogger())
	s.Require().NoError(pub.Publish(s.GetContext(), events.New(s.GetContext(), types.TemplateInvoiceOverdue, "invoice", "inv_1", nil, "landlord_1", "tenant_1")))
	s.Require().NoError(pub.Publish(s.GetContext(), events.New(s.GetContext(), types.TemplateInviteAccepted, "invite", "inv_2", nil, "landlord_1")))

	s.Eventually(func() bool {
		count, err := s.GetStores().NotificationRepo.CountUnread(s.GetContext(), "landlord_1")
		return err == nil && count == 2
	}, 5*time.Second, 20*time.Millisecond)

	count, err := s.GetStores().NotificationRepo.CountUnread(s.GetContext(), "tenant_1")
	s.Require().NoError(err)
	s.Equal(1, count)
}
