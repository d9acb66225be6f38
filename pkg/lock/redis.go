package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNotObtained is returned when the lock stayed held by someone else for
// every retry.
var ErrNotObtained = errors.New("lock not obtained")

// Release frees a held lock.
type Release func()

// Locker guards a named critical section across processes.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// Nop never blocks. Used when Redis is disabled.
type Nop struct{}

// Acquire implements Locker.
func (Nop) Acquire(context.Context, string) (Release, error) {
	return func() {}, nil
}

// RedisLocker implements Locker with bsm/redislock.
type RedisLocker struct {
	client  *redislock.Client
	prefix  string
	ttl     time.Duration
	retries int
	logger  *zap.Logger
}

// NewRedisLocker builds a locker on top of an existing redis client.
func NewRedisLocker(client *redis.Client, prefix string, ttl time.Duration, retries int, logger *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if retries <= 0 {
		retries = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		client:  redislock.New(client),
		prefix:  prefix,
		ttl:     ttl,
		retries: retries,
		logger:  logger,
	}
}

// Acquire obtains the lock for key, retrying with linear backoff.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	lockKey := fmt.Sprintf("%s:%s", l.prefix, key)
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), l.retries),
	}

	held, err := l.client.Obtain(ctx, lockKey, l.ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", lockKey, err)
	}

	return func() {
		// release on a fresh context so a cancelled request still frees the key
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := held.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Sugar().Warnw("release lock failed", "key", lockKey, "error", err)
		}
	}, nil
}
