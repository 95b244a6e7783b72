package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type cacheEntry struct {
	raw    []byte
	expiry time.Time
}

// MemoryCache stores JSON like the Redis cache does and counts traffic.
type MemoryCache struct {
	mu     sync.Mutex
	data   map[string]cacheEntry
	hits   int
	misses int
	sets   int
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]cacheEntry)}
}

func (c *MemoryCache) Get(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	entry, ok := c.data[key]
	if !ok || time.Now().After(entry.expiry) {
		c.misses++
		c.mu.Unlock()
		return redis.Nil
	}
	c.hits++
	c.mu.Unlock()
	return json.Unmarshal(entry.raw, dest)
}

func (c *MemoryCache) Set(ctx context.Context, key string, value any, exp time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = cacheEntry{raw: raw, expiry: time.Now().Add(exp)}
	return nil
}

func (c *MemoryCache) Close() error {
	return nil
}

// Stats returns hits, misses and writes so far.
func (c *MemoryCache) Stats() (hits, misses, sets int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, c.sets
}
