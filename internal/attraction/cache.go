package attraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryCache is an in-process Cache guarded by a mutex.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[Key]Entry
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[Key]Entry{}}
}

func (c *MemoryCache) Get(_ context.Context, k Key) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[k]
	e.Attractions = slices.Clone(e.Attractions)
	return e, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, k Key, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.Attractions = slices.Clone(e.Attractions)
	c.entries[k] = e
	return nil
}

// RedisCache stores entries as JSON under "attractions:<city>|<state>".
// The key TTL lets Redis evict stale entries; freshness is still decided by
// Entry.Expired so a clock skew between app and Redis cannot serve old data.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache constructs a RedisCache. ttl is applied to every SET.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func redisKey(k Key) string { return "attractions:" + k.String() }

func (c *RedisCache) Get(ctx context.Context, k Key) (Entry, bool, error) {
	raw, err := c.client.Get(ctx, redisKey(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("attraction.RedisCache.Get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("attraction.RedisCache.Get: decode: %w", err)
	}
	return e, true, nil
}

func (c *RedisCache) Set(ctx context.Context, k Key, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("attraction.RedisCache.Set: encode: %w", err)
	}
	if err := c.client.Set(ctx, redisKey(k), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("attraction.RedisCache.Set: %w", err)
	}
	return nil
}
