package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/rentdesk/rentdesk/internal/cache"
	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/locker"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/postgres"
	"github.com/rentdesk/rentdesk/internal/publisher"
	"github.com/rentdesk/rentdesk/internal/pubsub"
	kafkaPubSub "github.com/rentdesk/rentdesk/internal/pubsub/kafka"
	"github.com/rentdesk/rentdesk/internal/pubsub/memory"
	"github.com/rentdesk/rentdesk/internal/repository"
	"github.com/rentdesk/rentdesk/internal/sentry"
	"github.com/rentdesk/rentdesk/internal/service"
	"github.com/rentdesk/rentdesk/internal/types"
)

// overdue marks past-due invoices overdue and expires stale invites. It is
// meant to run from a scheduler once a day.
func main() {
	dryRun := flag.Bool("dry-run", false, "Report what would change without writing or publishing")
	at := flag.String("at", "", "Sweep as of this RFC3339 time instead of now")
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall sweep timeout")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	now := time.Now().UTC()
	if *at != "" {
		now, err = time.Parse(time.RFC3339, *at)
		if err != nil {
			logger.Fatalw("invalid --at", "value", *at, "error", err)
		}
		now = now.UTC()
	}

	sentryService := sentry.NewSentryService(cfg, logger)
	if err := sentryService.Init(); err != nil {
		logger.Warnw("sentry init failed", "error", err)
	}
	defer sentryService.Flush(2 * time.Second)

	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	lock, err := locker.NewLocker(cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to create locker", "error", err)
	}

	var ps pubsub.PubSub
	switch cfg.Events.PubSub {
	case types.KafkaPubSub:
		ps, err = kafkaPubSub.NewPubSub(cfg, logger)
		if err != nil {
			logger.Fatalw("Failed to connect to kafka", "error", err)
		}
	default:
		logger.Warnw("events.pubsub is memory: overdue notifications will not reach a consumer")
		ps = memory.NewPubSub(logger)
	}
	defer ps.Close()

	params := service.NewServiceParams(
		logger,
		cfg,
		postgres.NewSentryClient(postgres.NewClient(db, logger), sentryService, logger),
		lock,
		cache.NewInMemoryCache(cfg),
		repository.NewInvoiceRepository(db, logger),
		repository.NewPaymentRepository(db, logger),
		repository.NewTenancyRepository(db, logger),
		repository.NewInviteRepository(db, logger),
		repository.NewNotificationRepository(db, logger),
		repository.NewAuditRepository(db, logger),
		repository.NewMeterRepository(db, logger),
		publisher.NewEventPublisher(cfg, ps, logger),
	)
	sweeper := service.NewOverdueService(params, service.NewInviteService(params))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = types.SetActor(ctx, types.SystemActor())

	resp, sweepErr := sweeper.SweepOverdue(ctx, now, *dryRun)
	if resp != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(resp)
	}
	if sweepErr != nil {
		sentryService.CaptureException(ctx, sweepErr)
		logger.Errorw("overdue sweep finished with errors", "error", sweepErr)
		sentryService.Flush(2 * time.Second)
		os.Exit(1)
	}
}
