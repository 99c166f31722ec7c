package publisher_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/domain/events"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/publisher"
	"github.com/rentdesk/rentdesk/internal/testutil"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish(t *testing.T) {
	cfg := config.GetDefaultConfig()
	ps := testutil.NewInMemoryPubSub()
	pub := publisher.NewEventPublisher(cfg, ps, logger.NewNopLogger())

	ctx := context.WithValue(context.Background(), types.CtxRequestID, "req-42")
	event := events.New(ctx, types.TemplatePaymentReceived, "invoice", "inv_1",
		map[string]any{"amount": "1175000"}, "landlord_1", "tenant_1", "tenant_1", "")

	require.NoError(t, pub.Publish(ctx, event))

	msgs := ps.GetMessages(cfg.Events.Topic)
	require.Len(t, msgs, 1)
	msg := msgs[0]
	assert.Equal(t, event.ID, msg.UUID)
	assert.Equal(t, string(types.TemplatePaymentReceived), msg.Metadata.Get(publisher.MetadataEventType))
	assert.Equal(t, "inv_1", msg.Metadata.Get(publisher.MetadataObjectID))
	assert.Equal(t, "req-42", middleware.MessageCorrelationID(msg))

	var decoded events.Event
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.Equal(t, []string{"landlord_1", "tenant_1"}, decoded.Recipients)
}

func TestPublish_RejectsInvalidEvent(t *testing.T) {
	ps := testutil.NewInMemoryPubSub()
	pub := publisher.NewEventPublisher(config.GetDefaultConfig(), ps, logger.NewNopLogger())

	err := pub.Publish(context.Background(), events.New(context.Background(), types.TemplateInvoiceCreated, "invoice", "inv_1", nil))
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestPublish_TransportFailure(t *testing.T) {
	cfg := config.GetDefaultConfig()
	ps := testutil.NewInMemoryPubSub()
	ps.FailWith(errors.New("broker down"))
	pub := publisher.NewEventPublisher(cfg, ps, logger.NewNopLogger())

	err := pub.Publish(context.Background(), events.New(context.Background(), types.TemplateInvoiceCreated, "invoice", "inv_1", nil, "tenant_1"))
	require.Error(t, err)
	assert.True(t, ierr.Is(err, ierr.ErrSystem))
	assert.Empty(t, ps.GetMessages(cfg.Events.Topic))
}
