// Package counter holds the shared page counter behind GET /increment.
package counter

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis key used by RedisStore.
const DefaultKey = "playground:counter"

// Store increments a process-wide counter. Implementations own their
// mutual exclusion; callers may share one Store across requests.
type Store interface {
	Increment(ctx context.Context) (int64, error)
}

// MemoryStore keeps the counter in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	count int64
}

// NewMemoryStore returns a counter starting at zero.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Increment adds one and returns the new value.
func (s *MemoryStore) Increment(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	return s.count, nil
}

// RedisStore shares the counter across processes with INCR.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore wraps an existing client. An empty key falls back to DefaultKey.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key}
}

// Increment runs INCR on the store key.
func (s *RedisStore) Increment(ctx context.Context) (int64, error) {
	n, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("counter: redis incr: %w", err)
	}
	return n, nil
}
