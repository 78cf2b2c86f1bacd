// Package lock provides the training locks used by the analytics engine.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/pkg/cache"
	"github.com/google/uuid"
)

const pollInterval = 200 * time.Millisecond

// LocalLocker serialises holders within one process.
type LocalLocker struct {
	sem chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{sem: make(chan struct{}, 1)}
}

func (l *LocalLocker) Lock(ctx context.Context, _ string) (func(), error) {
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RedisLocker serialises holders across processes sharing one Redis. The key expires
// after ttl so a crashed holder cannot wedge training.
type RedisLocker struct {
	client *cache.RedisClient
	ttl    time.Duration
}

func NewRedisLocker(client *cache.RedisClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.AcquireLock(ctx, key, token, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				_ = l.client.ReleaseLock(ctx, key, token)
			}, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
