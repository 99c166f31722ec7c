package sentry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/types"
	"go.uber.org/fx"
)

type Service struct {
	cfg    *config.Configuration
	logger *logger.Logger
}

// Module provides fx options for Sentry
func Module() fx.Option {
	return fx.Options(
		fx.Provide(NewSentryService),
		fx.Invoke(RegisterHooks),
	)
}

// RegisterHooks initializes the SDK on start and flushes on stop
func RegisterHooks(lc fx.Lifecycle, svc *Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Init()
		},
		OnStop: func(ctx context.Context) error {
			if svc.cfg.Sentry.Enabled {
				svc.logger.Info("flushing sentry events before shutdown")
				sentry.Flush(2 * time.Second)
			}
			return nil
		},
	})
}

// NewSentryService creates a new Sentry service
func NewSentryService(cfg *config.Configuration, logger *logger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger,
	}
}

// Init configures the global client. Commands outside fx call it directly.
func (s *Service) Init() error {
	if !s.cfg.Sentry.Enabled {
		s.logger.Info("sentry is disabled")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              s.cfg.Sentry.DSN,
		Environment:      s.cfg.Sentry.Environment,
		EnableTracing:    true,
		TracesSampleRate: s.cfg.Sentry.SampleRate,
		TracesSampler: sentry.TracesSampler(func(ctx sentry.SamplingContext) float64 {
			if ctx.Span.Name == "GET /health" {
				return 0.0
			}
			return s.cfg.Sentry.SampleRate
		}),
	})
	if err != nil {
		s.logger.Errorw("failed to initialize sentry", "error", err)
		return err
	}
	s.logger.Infow("sentry initialized",
		"environment", s.cfg.Sentry.Environment,
		"sample_rate", s.cfg.Sentry.SampleRate,
	)
	return nil
}

func (s *Service) Enabled() bool {
	return s.cfg.Sentry.Enabled
}

// CaptureException reports the error tagged with the request and user of ctx
func (s *Service) CaptureException(ctx context.Context, err error) {
	if !s.cfg.Sentry.Enabled || err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if requestID := types.GetRequestID(ctx); requestID != "" {
			scope.SetTag("request_id", requestID)
		}
		if userID := types.GetUserID(ctx); userID != "" {
			scope.SetUser(sentry.User{ID: userID})
		}
		hub.CaptureException(err)
	})
}

// AddBreadcrumb adds a breadcrumb to the current scope
func (s *Service) AddBreadcrumb(category, message string, data map[string]interface{}) {
	if !s.cfg.Sentry.Enabled {
		return
	}
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Category: category,
		Message:  message,
		Level:    sentry.LevelInfo,
		Data:     data,
	})
}

// StartDBSpan starts a new database span in the current transaction
func (s *Service) StartDBSpan(ctx context.Context, operation string, params map[string]interface{}) (*sentry.Span, context.Context) {
	if !s.cfg.Sentry.Enabled {
		return nil, ctx
	}

	span := sentry.StartSpan(ctx, operation)
	span.Description = operation
	span.Op = "db.postgres"
	for k, v := range params {
		span.SetData(k, v)
	}
	return span, span.Context()
}

// StartEventSpan tracks handling of one domain event along with its delivery lag
func (s *Service) StartEventSpan(ctx context.Context, eventType string, occurredAt time.Time) (*sentry.Span, context.Context) {
	if !s.cfg.Sentry.Enabled {
		return nil, ctx
	}

	span := sentry.StartSpan(ctx, "event.process")
	span.Description = "Processing " + eventType
	span.Op = "event.process"
	span.SetData("event_type", eventType)
	span.SetData("lag_ms", time.Since(occurredAt).Milliseconds())
	return span, span.Context()
}

// StartTransaction creates a new transaction for work that has no request, like sweeps
func (s *Service) StartTransaction(ctx context.Context, name string, options ...sentry.SpanOption) (*sentry.Span, context.Context) {
	if !s.cfg.Sentry.Enabled {
		return nil, ctx
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
		ctx = sentry.SetHubOnContext(ctx, hub)
	}

	opts := append([]sentry.SpanOption{
		sentry.WithOpName(name),
		sentry.WithTransactionSource(sentry.SourceCustom),
	}, options...)

	transaction := sentry.StartTransaction(ctx, name, opts...)
	return transaction, transaction.Context()
}

// Flush waits for queued events to be sent
func (s *Service) Flush(timeout time.Duration) bool {
	if !s.cfg.Sentry.Enabled {
		return true
	}
	return sentry.Flush(timeout)
}
