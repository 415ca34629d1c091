package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/core"
)

const mysqlTimeLayout = "2006-01-02 15:04:05"

// MySQLCache is a MySQL implementation of the CacheRepository interface.
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	maxEntries  int
	ttl         time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, maxEntries int, ttl, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS score_cache (
			seq BIGINT AUTO_INCREMENT PRIMARY KEY,
			fingerprint VARCHAR(512) UNIQUE NOT NULL,
			score INT NOT NULL,
			computed_at TIMESTAMP NOT NULL,
			INDEX idx_computed_at (computed_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
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
func (c *MySQLCache) Get(ctx context.Context, fingerprint string) (*core.CacheEntry, error) {
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

	entry.ComputedAt, err = time.Parse(mysqlTimeLayout, computedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse computed_at timestamp: %w", err)
	}

	if c.ttl > 0 && time.Since(entry.ComputedAt) > c.ttl {
		return nil, core.ErrNotFound
	}

	return &entry, nil
}

// Set stores an entry, unconditionally overwriting.
func (c *MySQLCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO score_cache (fingerprint, score, computed_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			score = VALUES(score),
			computed_at = VALUES(computed_at)
	`, entry.Fingerprint, entry.Score, entry.ComputedAt.Format(mysqlTimeLayout))

	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Delete removes a single entry.
func (c *MySQLCache) Delete(ctx context.Context, fingerprint string) error {
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
func (c *MySQLCache) Size(ctx context.Context) (int, error) {
	var count int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM score_cache`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}

// EvictOldest removes up to n earliest-inserted entries.
func (c *MySQLCache) EvictOldest(ctx context.Context, n int) (int, error) {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM score_cache
		ORDER BY seq ASC
		LIMIT ?
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
func (c *MySQLCache) Clear(ctx context.Context) (int, error) {
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
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	if c.ttl > 0 {
		cutoff := time.Now().Add(-c.ttl).Format(mysqlTimeLayout)
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
func (c *MySQLCache) startCleanupTask() {
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
func (c *MySQLCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close MySQL database", zap.Error(err))
		}
	})
}
