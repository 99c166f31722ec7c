package locker

import (
	"context"
	"time"

	"github.com/rentdesk/rentdesk/internal/config"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/types"
)

// Lock is a held mutual-exclusion lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out exclusive locks by key. Obtain blocks until the lock is
// free, the configured wait runs out, or ctx is done.
type Locker interface {
	Obtain(ctx context.Context, key string) (Lock, error)
}

// InvoiceKey is the lock key serializing ledger appends and edits of one invoice
func InvoiceKey(invoiceID string) string {
	return "invoice:" + invoiceID
}

// NewLocker picks the implementation from configuration
func NewLocker(cfg *config.Configuration, log *logger.Logger) (Locker, error) {
	switch cfg.Locker.Driver {
	case types.LockerDriverRedis:
		client, err := NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		log.Infow("using redis locker", "address", cfg.Redis.Address)
		return NewRedisLocker(client, cfg.Locker, log), nil
	default:
		log.Infow("using in-memory locker")
		return NewMemoryLocker(cfg.Locker.MaxWait), nil
	}
}

func notObtained(key string, wait time.Duration, cause error) error {
	b := ierr.NewError("lock not obtained")
	if cause != nil {
		b = ierr.WithError(cause).WithMessage("lock not obtained")
	}
	return b.
		WithHint("The resource is busy, please retry").
		WithReportableDetails(map[string]any{"lock": key, "waited": wait.String()}).
		Mark(ierr.ErrVersionConflict)
}
