package locker

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rentdesk/rentdesk/internal/config"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
)

// NewRedisClient connects and pings the configured redis
func NewRedisClient(cfg *config.Configuration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to connect to redis").
			WithHint("Lock backend is unavailable").
			Mark(ierr.ErrSystem)
	}
	return client, nil
}

// RedisLocker serializes across processes with bsm/redislock
type RedisLocker struct {
	client *redislock.Client
	cfg    config.LockerConfig
	logger *logger.Logger
}

func NewRedisLocker(client redislock.RedisClient, cfg config.LockerConfig, log *logger.Logger) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(client),
		cfg:    cfg,
		logger: log,
	}
}

func (l *RedisLocker) Obtain(ctx context.Context, key string) (Lock, error) {
	retries := 0
	if l.cfg.RetryEvery > 0 {
		retries = int(l.cfg.MaxWait / l.cfg.RetryEvery)
	}

	lock, err := l.client.Obtain(ctx, "lock:"+key, l.cfg.TTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.cfg.RetryEvery), retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.logger.Warnw("could not obtain redis lock", "key", key)
		return nil, notObtained(key, l.cfg.MaxWait, nil)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("error obtaining redis lock").
			WithHint("The resource is busy, please retry").
			Mark(ierr.ErrVersionConflict)
	}
	return &redisLock{lock: lock, logger: l.logger}, nil
}

type redisLock struct {
	lock   *redislock.Lock
	logger *logger.Logger
}

// Release tolerates an already expired lock, the TTL did the work
func (r *redisLock) Release(ctx context.Context) error {
	err := r.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		r.logger.Warnw("redis lock expired before release", "key", r.lock.Key())
		return nil
	}
	return err
}
