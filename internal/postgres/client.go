package postgres

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/logger"
	sentryService "github.com/rentdesk/rentdesk/internal/sentry"
	"go.uber.org/fx"
)

// IClient is the transaction boundary services depend on
type IClient interface {
	// WithTx runs fn inside a transaction carried by the context passed to it.
	// Repositories called with that context join the transaction.
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

// Client adapts DB to IClient
type Client struct {
	db     *DB
	logger *logger.Logger
}

// Module provides an fx.Option to integrate the database with the application
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewDB,
			newInstrumentedClient,
		),
		fx.Invoke(registerHooks),
	)
}

func NewClient(db *DB, logger *logger.Logger) IClient {
	return &Client{db: db, logger: logger}
}

func newInstrumentedClient(db *DB, sentry *sentryService.Service, logger *logger.Logger) IClient {
	return NewSentryClient(NewClient(db, logger), sentry, logger)
}

func (c *Client) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.db.WithTx(ctx, fn)
}

func registerHooks(lc fx.Lifecycle, db *DB) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return db.PingContext(ctx)
		},
		OnStop: func(ctx context.Context) error {
			db.Close()
			return nil
		},
	})
}
