package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const searchKeyPrefix = "catalog:search:"

// SearchCache caches name-search results in Redis. A nil *SearchCache is a
// valid no-op cache so the service works without Redis in tests.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSearchCache wraps a Redis client with the given entry TTL.
func NewSearchCache(client *redis.Client, ttl time.Duration) *SearchCache {
	if client == nil {
		return nil
	}
	return &SearchCache{client: client, ttl: ttl}
}

func searchKey(query string, limit int) string {
	return fmt.Sprintf("%s%s:%d", searchKeyPrefix, strings.ToLower(strings.TrimSpace(query)), limit)
}

// Get returns the cached result set and whether the key was present.
// Cache errors are reported as misses.
func (c *SearchCache) Get(ctx context.Context, query string, limit int) ([]Product, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, searchKey(query, limit)).Bytes()
	if err != nil {
		return nil, false
	}
	var items []Product
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

// Set stores a result set; failures are ignored, the cache is best effort.
func (c *SearchCache) Set(ctx context.Context, query string, limit int, items []Product) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	c.client.Set(ctx, searchKey(query, limit), raw, c.ttl)
}

// Invalidate drops every cached search result. Called after any product
// write so stale names or valuations never linger past a mutation.
func (c *SearchCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, searchKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		c.client.Del(ctx, keys...)
	}
}
