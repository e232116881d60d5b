package cache

import (
	"context"
	"sync"
	"time"
)

// CacheItem represents a cached item with expiration
type CacheItem struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired checks if the cache item has expired
func (c *CacheItem) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// MemoryStore is the process-local Store. Expired entries are dropped when
// they are read.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*CacheItem
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]*CacheItem),
		now:   time.Now,
	}
}

// Get retrieves an item from the cache
func (c *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if item.IsExpired(c.now()) {
		c.mu.Lock()
		// Another writer may have replaced it in between.
		if cur, ok := c.items[key]; ok && cur.IsExpired(c.now()) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return item.Data, true
}

// Set stores an item in the cache
func (c *MemoryStore) Set(_ context.Context, key string, data []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &CacheItem{
		Data:      data,
		ExpiresAt: c.now().Add(ttl),
	}
}

// Delete removes every key under one lock
func (c *MemoryStore) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.items, key)
	}
}

// BatchGet returns the live entries among keys
func (c *MemoryStore) BatchGet(ctx context.Context, keys []string) map[string][]byte {
	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if data, ok := c.Get(ctx, key); ok {
			out[key] = data
		}
	}
	return out
}

// Size returns the number of items in the cache, expired ones included
func (c *MemoryStore) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Stats returns cache statistics
func (c *MemoryStore) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	totalItems := len(c.items)
	expiredItems := 0

	for _, item := range c.items {
		if item.IsExpired(now) {
			expiredItems++
		}
	}

	return map[string]interface{}{
		"backend":       "memory",
		"total_items":   totalItems,
		"expired_items": expiredItems,
		"active_items":  totalItems - expiredItems,
	}
}
