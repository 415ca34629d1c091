package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/core"
)

// SQLiteCache is a SQLite implementation of the CacheRepository interface.
// The autoincrement seq column records insertion order for FIFO eviction;
// overwrites keep the original seq.
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	maxEntries  int
	ttl         time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, maxEntries int, ttl, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS score_cache (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			fingerprint TEXT UNIQUE NOT NULL,
			score INTEGER NOT NULL,
			computed_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_computed_at ON score_cache(computed_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
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
func (c *SQLiteCache) Get(ctx context.Context, fingerprint string) (*core.CacheEntry, error) {
	var entry core.CacheEntry
	var computedAt string

	err := c.db.QueryRowContext(ctx, `
		SELECT fingerprint, score, computed_at
		FROM score_cache
		WHERE fingerprint = ?
	`, fingerprint).Scan(&entry.Fingerprint, &entry.Score, &computedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	entry.ComputedAt, err = time.Parse(time.RFC3339, computedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse computed_at timestamp: %w", err)
	}

	if c.ttl > 0 && time.Since(entry.ComputedAt) > c.ttl {
		return nil, core.ErrNotFound
	}

	return &entry, nil
}

// Set stores an entry, unconditionally overwriting. The upsert leaves seq
// untouched so the fingerprint keeps its insertion position.
func (c *SQLiteCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO score_cache (fingerprint, score, computed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			score = excluded.score,
			computed_at = excluded.computed_at
	`, entry.Fingerprint, entry.Score, entry.ComputedAt.Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Delete removes a single entry.
func (c *SQLiteCache) Delete(ctx context.Context, fingerprint string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM score_cache
		WHERE fingerprint = ?
	`, fingerprint)

	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Size returns the current entry count.
func (c *SQLiteCache) Size(ctx context.Context) (int, error) {
	var count int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM score_cache`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}

// EvictOldest removes up to n earliest-inserted entries.
func (c *SQLiteCache) EvictOldest(ctx context.Context, n int) (int, error) {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM score_cache
		WHERE seq IN (SELECT seq FROM score_cache ORDER BY seq ASC LIMIT ?)
	`, n)
	if err != nil {
		return 0, fmt.Errorf("failed to evict cache entries: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(affected), nil
}

// Clear empties the cache and returns the prior size.
func (c *SQLiteCache) Clear(ctx context.Context) (int, error) {
	prior, err := c.Size(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := c.db.ExecContext(ctx, `DELETE FROM score_cache`); err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	return prior, nil
}

// Cleanup trims the cache to its maximum entry count and drops expired
// entries when a TTL is configured.
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	if c.ttl > 0 {
		cutoff := time.Now().Add(-c.ttl).Format(time.RFC3339)
		if _, err := c.db.ExecContext(ctx, `
			DELETE FROM score_cache WHERE computed_at <= ?
		`, cutoff); err != nil {
			return fmt.Errorf("failed to expire cache entries: %w", err)
		}
	}

	if c.maxEntries > 0 {
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
	}
	return nil
}

// startCleanupTask starts a background task to trim the cache periodically
func (c *SQLiteCache) startCleanupTask() {
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

// Stop stops the background cleanup task and closes the database connection.
func (c *SQLiteCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close SQLite database", zap.Error(err))
		}
	})
}
