package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/runtime-analytics/internal/adapter/metrics"
	"github.com/V4T54L/runtime-analytics/internal/domain"
)

const keyPrefix = "runtime_analytics:result:"

// RedisCache is a domain.ResultCache shared between processes through Redis.
// While Redis is unreachable every Get is a miss and every Set is dropped;
// analytics then run against the store directly.
type RedisCache struct {
	client      *redis.Client
	logger      *slog.Logger
	ttl         time.Duration
	metrics     *metrics.Metrics
	isAvailable atomic.Bool
}

// NewRedisCache creates a Redis-backed cache.
func NewRedisCache(client *redis.Client, logger *slog.Logger, ttl time.Duration, m *metrics.Metrics) *RedisCache {
	c := &RedisCache{
		client:  client,
		logger:  logger.With("component", "redis_cache"),
		ttl:     ttl,
		metrics: m,
	}
	c.isAvailable.Store(true)
	return c
}

// Available reports whether the last Redis call succeeded.
func (c *RedisCache) Available() bool {
	return c.isAvailable.Load()
}

// StartHealthCheck pings Redis on every tick and flips availability. It blocks until ctx is done.
func (c *RedisCache) StartHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.client.Ping(ctx).Err(); err != nil {
				if c.isAvailable.CompareAndSwap(true, false) {
					c.logger.Error("Redis connection lost", "error", err)
				}
			} else if c.isAvailable.CompareAndSwap(false, true) {
				c.logger.Info("Redis connection recovered")
			}
		}
	}
}

// Get returns the cached table or domain.ErrCacheMiss.
func (c *RedisCache) Get(ctx context.Context, key string) (domain.Table, error) {
	if !c.isAvailable.Load() {
		c.miss()
		return domain.Table{}, domain.ErrCacheMiss
	}
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.markDown(err)
		}
		c.miss()
		return domain.Table{}, domain.ErrCacheMiss
	}

	var table domain.Table
	if err := json.Unmarshal(data, &table); err != nil {
		c.logger.Warn("dropping undecodable cache entry", "key", key, "error", err)
		c.miss()
		return domain.Table{}, domain.ErrCacheMiss
	}
	if c.metrics != nil {
		c.metrics.CacheHits.Inc()
	}
	return table, nil
}

// Set stores a table with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, table domain.Table) error {
	if !c.isAvailable.Load() {
		return nil
	}
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("marshal cached table: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		c.markDown(err)
	}
	return nil
}

// Invalidate deletes every key under the cache prefix.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if !c.isAvailable.Load() {
		return nil
	}
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 500).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 500 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("delete cached results: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		c.markDown(err)
		return fmt.Errorf("scan cached results: %w", err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("delete cached results: %w", err)
		}
	}
	return nil
}

func (c *RedisCache) miss() {
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
}

func (c *RedisCache) markDown(err error) {
	if c.isAvailable.CompareAndSwap(true, false) {
		c.logger.Warn("Redis unavailable, serving without cache", "error", err)
	}
}
