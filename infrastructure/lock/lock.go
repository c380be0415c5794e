// Package lock provides the leases the outbox relay polls under.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// RedisLocker takes a lease on a redis key. It does not wait: a key held by
// another relay is reported as not acquired.
type RedisLocker struct {
	client *redislock.Client
}

func NewRedisLocker(cli redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: redislock.New(cli)}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	lk, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.NoRetry(),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	release := func(ctx context.Context) error {
		err := lk.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			// TTL ran out before the batch finished.
			return nil
		}
		return err
	}
	return release, true, nil
}

// LocalLocker is an in-process lease for single instance deployments.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time), now: time.Now}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if until, ok := l.held[key]; ok && now.Before(until) {
		return nil, false, nil
	}
	until := now.Add(ttl)
	l.held[key] = until

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key].Equal(until) {
			delete(l.held, key)
		}
		return nil
	}
	return release, true, nil
}
