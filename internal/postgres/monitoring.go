package postgres

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/rentdesk/rentdesk/internal/logger"
	sentryService "github.com/rentdesk/rentdesk/internal/sentry"
)

// SentryClient reports every transaction as a db span. Rolled back
// transactions are marked failed on the span and logged at debug level.
type SentryClient struct {
	client IClient
	sentry *sentryService.Service
	logger *logger.Logger
}

// NewSentryClient returns client unchanged when Sentry is disabled
func NewSentryClient(client IClient, sentry *sentryService.Service, logger *logger.Logger) IClient {
	if !sentry.Enabled() {
		return client
	}
	return &SentryClient{
		client: client,
		sentry: sentry,
		logger: logger,
	}
}

func (c *SentryClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	span, spanCtx := c.sentry.StartDBSpan(ctx, "postgres.transaction", map[string]interface{}{
		"operation": "transaction",
	})
	err := c.client.WithTx(spanCtx, fn)
	if span != nil {
		if err != nil {
			span.Status = sentry.SpanStatusInternalError
			span.SetData("error", err.Error())
		} else {
			span.Status = sentry.SpanStatusOK
		}
		span.Finish()
	}
	if err != nil {
		c.logger.Debugw("transaction rolled back", "error", err)
	}
	return err
}
