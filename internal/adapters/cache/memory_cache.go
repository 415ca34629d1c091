package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/core"
)

// MemoryCache is an in-memory implementation of the CacheRepository
// interface. Insertion order is tracked so eviction is FIFO; overwriting an
// existing fingerprint keeps its original position, matching ordered-map
// semantics.
type MemoryCache struct {
	entries     map[string]*core.CacheEntry
	order       []string
	mu          sync.RWMutex
	logger      *zap.Logger
	maxEntries  int
	ttl         time.Duration // 0 disables expiry
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMemoryCache creates a new in-memory cache. A ttl of zero keeps entries
// authoritative until evicted or cleared.
func NewMemoryCache(logger *zap.Logger, maxEntries int, ttl, cleanupFreq time.Duration) *MemoryCache {
	cache := &MemoryCache{
		entries:     make(map[string]*core.CacheEntry),
		logger:      logger,
		maxEntries:  maxEntries,
		ttl:         ttl,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go cache.startCleanupTask()

	return cache
}

// Get retrieves the entry for a fingerprint.
func (c *MemoryCache) Get(ctx context.Context, fingerprint string) (*core.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[fingerprint]
	if !ok {
		return nil, core.ErrNotFound
	}
	if c.ttl > 0 && time.Since(entry.ComputedAt) > c.ttl {
		return nil, core.ErrNotFound
	}

	cp := *entry
	return &cp, nil
}

// Set stores an entry, unconditionally overwriting.
func (c *MemoryCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[entry.Fingerprint]; !exists {
		c.order = append(c.order, entry.Fingerprint)
	}
	cp := *entry
	c.entries[entry.Fingerprint] = &cp
	return nil
}

// Delete removes a single entry.
func (c *MemoryCache) Delete(ctx context.Context, fingerprint string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[fingerprint]; !ok {
		return nil
	}
	delete(c.entries, fingerprint)
	c.removeFromOrder(fingerprint)
	return nil
}

// Size returns the current entry count.
func (c *MemoryCache) Size(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), nil
}

// EvictOldest removes up to n earliest-inserted entries.
func (c *MemoryCache) EvictOldest(ctx context.Context, n int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictOldestLocked(n), nil
}

// Clear empties the cache and returns the prior size.
func (c *MemoryCache) Clear(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prior := len(c.entries)
	c.entries = make(map[string]*core.CacheEntry)
	c.order = nil
	return prior, nil
}

// Cleanup trims the cache back to its maximum entry count and, when a TTL
// is configured, drops expired entries. Size trimming happens only here,
// never on insert.
func (c *MemoryCache) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expired := 0
	if c.ttl > 0 {
		cutoff := time.Now().Add(-c.ttl)
		for key, entry := range c.entries {
			if entry.ComputedAt.Before(cutoff) {
				delete(c.entries, key)
				c.removeFromOrder(key)
				expired++
			}
		}
	}

	evicted := 0
	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		evicted = c.evictOldestLocked(len(c.entries) - c.maxEntries)
	}

	if expired > 0 || evicted > 0 {
		c.logger.Debug("Cleaned up cache entries",
			zap.Int("expired_count", expired),
			zap.Int("evicted_count", evicted))
	}
	return nil
}

func (c *MemoryCache) evictOldestLocked(n int) int {
	if n > len(c.order) {
		n = len(c.order)
	}
	if n <= 0 {
		return 0
	}
	for _, key := range c.order[:n] {
		delete(c.entries, key)
	}
	c.order = append([]string(nil), c.order[n:]...)
	return n
}

func (c *MemoryCache) removeFromOrder(fingerprint string) {
	for i, key := range c.order {
		if key == fingerprint {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// startCleanupTask starts a background task to trim the cache periodically
func (c *MemoryCache) startCleanupTask() {
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

// Stop stops the background cleanup task.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
