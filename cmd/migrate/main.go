package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/postgres"
)

func main() {
	// Parse command line flags
	dryRun := flag.Bool("dry-run", false, "Print pending migration SQL without executing it")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall migration timeout")
	flag.Parse()

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host, "dbname", cfg.Postgres.DBName)
	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *dryRun {
		logger.Info("Dry run mode - printing migration SQL without executing")
	} else {
		logger.Info("Running database migrations...")
	}

	versions, err := db.Migrate(ctx, *dryRun, os.Stdout)
	if err != nil {
		logger.Fatalw("Failed to migrate", "error", err)
	}

	if len(versions) == 0 {
		logger.Info("Schema is up to date")
	} else {
		logger.Infow("Migration completed successfully", "versions", versions, "dry_run", *dryRun)
	}

	fmt.Println("Migration process completed")
}
