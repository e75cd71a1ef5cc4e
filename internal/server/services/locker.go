package services

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/iudp/ledger/internal/logging"
)

// Locker serializes work on a key across server instances. The returned
// release func is never nil.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// NoopLocker is used when Redis is not configured.
type NoopLocker struct{}

func (NoopLocker) Obtain(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

// RedisLocker obtains locks through redislock. When the lock is held
// elsewhere or Redis fails, the work proceeds without it and the conditional
// database update stays the arbiter.
type RedisLocker struct {
	client *redislock.Client
	logger logging.Logger
	retry  redislock.RetryStrategy
}

func NewRedisLocker(c *redislock.Client, l logging.Logger) *RedisLocker {
	return &RedisLocker{
		client: c,
		logger: l.With("module", "locker"),
		retry:  redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 5),
	}
}

func (r *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lock, err := r.client.Obtain(ctx, "lock:"+key, ttl, &redislock.Options{RetryStrategy: r.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		r.logger.Warn(ctx, "could not obtain redis lock; proceeding without redis lock", "key", key)
		return func() {}, nil
	}
	if err != nil {
		r.logger.Warn(ctx, "error obtaining redis lock; proceeding without redis lock", "key", key, "error", err)
		return func() {}, nil
	}

	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			r.logger.Warn(ctx, "failed to release redis lock", "key", key, "error", err)
		}
	}, nil
}
