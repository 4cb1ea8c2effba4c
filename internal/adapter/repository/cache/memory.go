// Package cache holds analytics results keyed by the latest stored run_date.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/V4T54L/runtime-analytics/internal/adapter/metrics"
	"github.com/V4T54L/runtime-analytics/internal/domain"
)

type cacheEntry struct {
	table     domain.Table
	expiresAt time.Time
}

// MemoryCache is an in-process, time-bounded domain.ResultCache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewMemoryCache creates a cache whose entries live for ttl. ttl <= 0 never expires.
func NewMemoryCache(ttl time.Duration, m *metrics.Metrics) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		metrics: m,
		now:     time.Now,
	}
}

// Get returns the cached table or domain.ErrCacheMiss.
func (c *MemoryCache) Get(ctx context.Context, key string) (domain.Table, error) {
	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()

	if found && (c.ttl <= 0 || c.now().Before(entry.expiresAt)) {
		if c.metrics != nil {
			c.metrics.CacheHits.Inc()
		}
		return entry.table, nil
	}
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
	if found {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
	}
	return domain.Table{}, domain.ErrCacheMiss
}

// Set stores a table.
func (c *MemoryCache) Set(ctx context.Context, key string, table domain.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{table: table, expiresAt: c.now().Add(c.ttl)}
	return nil
}

// Invalidate drops every entry.
func (c *MemoryCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	return nil
}

// Len returns the number of entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
