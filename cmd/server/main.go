package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rentdesk/rentdesk/internal/api"
	v1 "github.com/rentdesk/rentdesk/internal/api/v1"
	"github.com/rentdesk/rentdesk/internal/auth"
	"github.com/rentdesk/rentdesk/internal/cache"
	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/locker"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/postgres"
	"github.com/rentdesk/rentdesk/internal/publisher"
	"github.com/rentdesk/rentdesk/internal/pubsub"
	kafkaPubSub "github.com/rentdesk/rentdesk/internal/pubsub/kafka"
	"github.com/rentdesk/rentdesk/internal/pubsub/memory"
	pubsubRouter "github.com/rentdesk/rentdesk/internal/pubsub/router"
	"github.com/rentdesk/rentdesk/internal/repository"
	"github.com/rentdesk/rentdesk/internal/sentry"
	"github.com/rentdesk/rentdesk/internal/service"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/rentdesk/rentdesk/internal/validator"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	// Initialize Fx application
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			sentry.NewSentryService,

			// Cache
			cache.NewInMemoryCache,

			// Locks
			locker.NewLocker,

			// Auth
			auth.NewProvider,

			// Event transport
			providePubSub,
			publisher.NewEventPublisher,
			pubsubRouter.NewRouter,

			// Repositories
			repository.NewInvoiceRepository,
			repository.NewPaymentRepository,
			repository.NewTenancyRepository,
			repository.NewInviteRepository,
			repository.NewNotificationRepository,
			repository.NewAuditRepository,
			repository.NewMeterRepository,
		),
		postgres.Module(),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewInvoiceService,
			service.NewPaymentService,
			service.NewInviteService,
			service.NewNotificationService,
			service.NewMeterService,
			service.NewAuditService,
			service.NewEventConsumptionService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(
			sentry.RegisterHooks,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func providePubSub(cfg *config.Configuration, log *logger.Logger) (pubsub.PubSub, error) {
	switch cfg.Events.PubSub {
	case types.KafkaPubSub:
		return kafkaPubSub.NewPubSub(cfg, log)
	default:
		return memory.NewPubSub(log), nil
	}
}

func provideHandlers(
	logger *logger.Logger,
	invoiceService service.InvoiceService,
	paymentService service.PaymentService,
	inviteService service.InviteService,
	notificationService service.NotificationService,
	meterService service.MeterService,
	auditService service.AuditService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(logger),
		Invoice:      v1.NewInvoiceHandler(invoiceService, logger),
		Payment:      v1.NewPaymentHandler(paymentService, logger),
		Invite:       v1.NewInviteHandler(inviteService, logger),
		Notification: v1.NewNotificationHandler(notificationService, logger),
		Meter:        v1.NewMeterHandler(meterService, logger),
		Audit:        v1.NewAuditHandler(auditService, logger),
	}
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	ps pubsub.PubSub,
	consumptionService service.EventConsumptionService,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	// stop hooks run in reverse, so the transport closes after its users
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return ps.Close()
		},
	})

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, ps, consumptionService, cfg, log)
	case types.ModeAPI:
		if cfg.Events.PubSub == types.MemoryPubSub {
			log.Warnw("api mode with the in-memory transport: events never leave this process and no consumer is running")
		}
		startAPIServer(lc, r, cfg, log)
	case types.ModeConsumer:
		startMessageRouter(lc, router, ps, consumptionService, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	ps pubsub.PubSub,
	consumptionService service.EventConsumptionService,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	consumptionService.RegisterHandler(router, pubsub.AsWatermillSubscriber(ps), cfg)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting message router")
			go func() {
				if err := router.Run(context.Background()); err != nil {
					log.Errorw("message router stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping message router")
			return router.Close()
		},
	})
}
