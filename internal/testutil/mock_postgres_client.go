package testutil

import (
	"context"
	"sync/atomic"

	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/postgres"
	"github.com/rentdesk/rentdesk/internal/types"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

type mockTx struct{}

// MockPostgresClient runs the function without a real transaction. In-memory
// stores apply writes immediately, so nothing is rolled back on error.
type MockPostgresClient struct {
	logger *logger.Logger
	txs    atomic.Int64
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) *MockPostgresClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

// WithTx executes the given function within a pretend transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	// If we're already in a transaction, reuse it
	if _, ok := ctx.Value(types.CtxDBTransaction).(*mockTx); ok {
		return fn(ctx)
	}

	c.txs.Add(1)
	return fn(context.WithValue(ctx, types.CtxDBTransaction, &mockTx{}))
}

// Transactions counts the outermost transactions started so far
func (c *MockPostgresClient) Transactions() int64 {
	return c.txs.Load()
}
