// Package lock provides a Redis mutex so only one reference import runs at a time.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned by TryWithLock when another holder owns the key.
var ErrHeld = errors.New("lock: held by another process")

const keyPrefix = "lock:"

var release = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`)

// Locker acquires locks as Redis keys holding a random token.
type Locker struct {
	Client *redis.Client
	// Retry is the poll interval while waiting in WithLock.
	Retry time.Duration
}

// WithLock waits for key, runs fn and releases the lock even if fn fails. It gives up
// when ctx is done.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	return l.run(ctx, key, ttl, true, fn)
}

// TryWithLock runs fn only if key is free, returning ErrHeld otherwise.
func (l Locker) TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	return l.run(ctx, key, ttl, false, fn)
}

func (l Locker) run(ctx context.Context, key string, ttl time.Duration, wait bool, fn func(context.Context) error) error {
	if l.Client == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	retry := l.Retry
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	key = keyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := l.Client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			defer func() { _ = release.Run(context.WithoutCancel(ctx), l.Client, []string{key}, token).Err() }()
			return fn(ctx)
		}
		if !wait {
			return ErrHeld
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
