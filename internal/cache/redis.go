package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xthxr/DevAura/internal/monitoring"
)

// RedisClient wraps the Redis client with health checks and graceful degradation
type RedisClient struct {
	client  *redis.Client
	enabled bool
	addr    string
}

// NewRedisClient creates a new Redis client with connection pooling. An empty
// addr yields a disabled client and no error.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*RedisClient, error) {
	if addr == "" {
		slog.Info("Redis address not configured, cache and rate limiting use in-memory fallback")
		return &RedisClient{enabled: false}, nil
	}

	slog.Info("Initializing Redis client", "addr", addr, "db", db)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  4 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return &RedisClient{enabled: false, addr: addr}, fmt.Errorf("redis ping failed: %w", err)
	}

	slog.Info("Redis client connected successfully", "addr", addr)

	return &RedisClient{
		client:  client,
		enabled: true,
		addr:    addr,
	}, nil
}

// Client returns the underlying Redis client
func (r *RedisClient) Client() *redis.Client {
	return r.client
}

// IsEnabled returns whether Redis is enabled and was reachable at startup
func (r *RedisClient) IsEnabled() bool {
	return r != nil && r.enabled
}

// HealthCheck performs a health check on the Redis connection
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if !r.IsEnabled() {
		return fmt.Errorf("redis is disabled")
	}

	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	if r.IsEnabled() && r.client != nil {
		slog.Info("Closing Redis client connection")
		return r.client.Close()
	}
	return nil
}

// PoolStats returns Redis connection pool statistics
func (r *RedisClient) PoolStats() map[string]interface{} {
	if !r.IsEnabled() || r.client == nil {
		return map[string]interface{}{
			"enabled": false,
		}
	}

	stats := r.client.PoolStats()

	return map[string]interface{}{
		"enabled":     true,
		"addr":        r.addr,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}

// RedisStore is the durable Store. Any failed call is logged and served by
// the fallback store instead.
type RedisStore struct {
	client   *RedisClient
	fallback *MemoryStore
	metrics  *monitoring.Metrics
}

// NewRedisStore wraps an enabled client
func NewRedisStore(client *RedisClient, fallback *MemoryStore, metrics *monitoring.Metrics) *RedisStore {
	if fallback == nil {
		fallback = NewMemoryStore()
	}
	return &RedisStore{client: client, fallback: fallback, metrics: metrics}
}

func (s *RedisStore) degrade(op string, err error, keys ...string) {
	slog.Warn("Redis cache operation failed, using in-memory fallback",
		"operation", op,
		"keys", keys,
		"error", err,
	)
	s.metrics.CacheError(op)
}

// Get reads from Redis, or from the fallback when Redis fails
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := s.client.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return data, true
	case errors.Is(err, redis.Nil):
		return nil, false
	default:
		s.degrade("get", err, key)
		return s.fallback.Get(ctx, key)
	}
}

// Set writes with SET EX
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := s.client.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.degrade("set", err, key)
		s.fallback.Set(ctx, key, value, ttl)
	}
}

// Delete removes all keys with a single DEL. The fallback copy is always
// dropped too so a recovered Redis never shadows a stale local entry.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	s.fallback.Delete(ctx, keys...)
	if err := s.client.client.Del(ctx, keys...).Err(); err != nil {
		s.degrade("delete", err, keys...)
	}
}

// BatchGet reads keys with one MGET
func (s *RedisStore) BatchGet(ctx context.Context, keys []string) map[string][]byte {
	if len(keys) == 0 {
		return map[string][]byte{}
	}
	values, err := s.client.client.MGet(ctx, keys...).Result()
	if err != nil {
		s.degrade("mget", err, keys...)
		return s.fallback.BatchGet(ctx, keys)
	}

	out := make(map[string][]byte, len(keys))
	for i, v := range values {
		if str, ok := v.(string); ok {
			out[keys[i]] = []byte(str)
		}
	}
	return out
}

// Stats reports both backends
func (s *RedisStore) Stats() map[string]interface{} {
	return map[string]interface{}{
		"backend":  "redis",
		"pool":     s.client.PoolStats(),
		"fallback": s.fallback.Stats(),
	}
}
