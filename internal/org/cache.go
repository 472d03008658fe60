package org

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache over a shared Redis instance. Cache failures
// are invisible to callers: a broken Redis degrades to computing every time.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache wraps an existing client.
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: "dmphub:"}
}

func (c *RedisCache) Fetch(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]Candidate, error)) ([]Candidate, error) {
	cacheKey := c.prefix + key

	data, err := c.rdb.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var cached []Candidate
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
			return cached, nil
		}
		// Unreadable entry: fall through and overwrite it.
	}

	result, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	if encoded, jsonErr := json.Marshal(result); jsonErr == nil {
		_ = c.rdb.Set(ctx, cacheKey, encoded, ttl).Err()
	}
	return result, nil
}

// MapCache is an in-process Cache for tests and cache-less deployments.
type MapCache struct {
	mu      sync.Mutex
	entries map[string]mapEntry
	now     func() time.Time
}

type mapEntry struct {
	candidates []Candidate
	expiresAt  time.Time
}

func NewMapCache() *MapCache {
	return &MapCache{entries: make(map[string]mapEntry), now: time.Now}
}

func (c *MapCache) Fetch(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]Candidate, error)) ([]Candidate, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && c.now().Before(entry.expiresAt) {
		return entry.candidates, nil
	}

	result, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = mapEntry{candidates: result, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return result, nil
}
