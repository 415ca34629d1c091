package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/core"
)

const (
	redisEntriesKey = "sentinel:cache:entries"
	redisOrderKey   = "sentinel:cache:order"
	redisSeqKey     = "sentinel:cache:seq"
)

// RedisCache is a Redis implementation of the CacheRepository interface.
// Entries live in a hash; a sorted set scored by an insertion counter keeps
// FIFO order across processes.
type RedisCache struct {
	client      *redis.Client
	logger      *zap.Logger
	maxEntries  int
	ttl         time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

type redisEntry struct {
	Score      int       `json:"score"`
	ComputedAt time.Time `json:"computedAt"`
}

// NewRedisCache creates a new Redis cache.
func NewRedisCache(addr, password string, db int, logger *zap.Logger, maxEntries int, ttl, cleanupFreq time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisCache{
		client:      client,
		logger:      logger,
		maxEntries:  maxEntries,
		ttl:         ttl,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go cache.startCleanupTask()

	return cache, nil
}

// Get retrieves the entry for a fingerprint.
func (c *RedisCache) Get(ctx context.Context, fingerprint string) (*core.CacheEntry, error) {
	raw, err := c.client.HGet(ctx, redisEntriesKey, fingerprint).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	var stored redisEntry
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}

	if c.ttl > 0 && time.Since(stored.ComputedAt) > c.ttl {
		return nil, core.ErrNotFound
	}

	return &core.CacheEntry{
		Fingerprint: fingerprint,
		Score:       stored.Score,
		ComputedAt:  stored.ComputedAt,
	}, nil
}

// Set stores an entry, unconditionally overwriting. The order member is
// added NX so an overwrite keeps the fingerprint's insertion position.
func (c *RedisCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	raw, err := json.Marshal(redisEntry{Score: entry.Score, ComputedAt: entry.ComputedAt})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := c.client.HSet(ctx, redisEntriesKey, entry.Fingerprint, raw).Err(); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	seq, err := c.client.Incr(ctx, redisSeqKey).Result()
	if err != nil {
		return fmt.Errorf("failed to advance insertion counter: %w", err)
	}
	err = c.client.ZAddNX(ctx, redisOrderKey, redis.Z{
		Score:  float64(seq),
		Member: entry.Fingerprint,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to record insertion order: %w", err)
	}
	return nil
}

// Delete removes a single entry.
func (c *RedisCache) Delete(ctx context.Context, fingerprint string) error {
	pipe := c.client.TxPipeline()
	pipe.HDel(ctx, redisEntriesKey, fingerprint)
	pipe.ZRem(ctx, redisOrderKey, fingerprint)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Size returns the current entry count.
func (c *RedisCache) Size(ctx context.Context) (int, error) {
	n, err := c.client.HLen(ctx, redisEntriesKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return int(n), nil
}

// EvictOldest removes up to n earliest-inserted entries.
func (c *RedisCache) EvictOldest(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	oldest, err := c.client.ZRange(ctx, redisOrderKey, 0, int64(n-1)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list oldest entries: %w", err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	members := make([]interface{}, len(oldest))
	for i, key := range oldest {
		members[i] = key
	}

	pipe := c.client.TxPipeline()
	pipe.HDel(ctx, redisEntriesKey, oldest...)
	pipe.ZRem(ctx, redisOrderKey, members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to evict cache entries: %w", err)
	}
	return len(oldest), nil
}

// Clear empties the cache and returns the prior size.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	prior, err := c.Size(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.client.Del(ctx, redisEntriesKey, redisOrderKey, redisSeqKey).Err(); err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	return prior, nil
}

// Cleanup trims the cache to its maximum entry count. TTL expiry is checked
// lazily on Get.
func (c *RedisCache) Cleanup(ctx context.Context) error {
	if c.maxEntries <= 0 {
		return nil
	}
	size, err := c.Size(ctx)
	if err != nil {
		return err
	}
	if size > c.maxEntries {
		evicted, err := c.EvictOldest(ctx, size-c.maxEntries)
		if err != nil {
			return err
		}
		c.logger.Debug("Cleaned up cache entries", zap.Int("evicted_count", evicted))
	}
	return nil
}

// startCleanupTask starts a background task to trim the cache periodically
func (c *RedisCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the client.
func (c *RedisCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.client.Close(); err != nil {
			c.logger.Error("Failed to close Redis client", zap.Error(err))
		}
	})
}
