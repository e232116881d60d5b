// Package cache provides the key-value Store used for score, leaderboard and
// provider caching, with a Redis backend and an in-memory fallback.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/xthxr/DevAura/internal/monitoring"
)

// Store is a byte-oriented key-value cache. Backend failures are absorbed by
// the implementation; callers only ever see hits and misses.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	BatchGet(ctx context.Context, keys []string) map[string][]byte
	Stats() map[string]interface{}
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)

// NewStore picks the backend once. Redis is used when the client is enabled
// and answers a health check; otherwise the memory store serves alone.
func NewStore(ctx context.Context, client *RedisClient, metrics *monitoring.Metrics) Store {
	if client == nil || !client.IsEnabled() {
		slog.Info("Cache backend selected", "backend", "memory")
		return NewMemoryStore()
	}
	if err := client.HealthCheck(ctx); err != nil {
		slog.Warn("Redis health check failed, using in-memory cache", "error", err)
		return NewMemoryStore()
	}
	slog.Info("Cache backend selected", "backend", "redis")
	return NewRedisStore(client, NewMemoryStore(), metrics)
}
