package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/adapters/cache"
	"github.com/calder/inbox-sentinel/internal/config"
	"github.com/calder/inbox-sentinel/internal/core"
)

// CacheFactory creates cache repositories based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCacheRepository creates a cache repository based on the configuration
func (f *CacheFactory) CreateCacheRepository() (core.CacheRepository, error) {
	cfg, err := f.cfg.GetCache()
	if err != nil {
		return nil, fmt.Errorf("invalid cache configuration: %w", err)
	}

	switch cfg.Type {
	case "memory":
		return cache.NewMemoryCache(f.logger, cfg.MaxEntries, cfg.TTL, cfg.CleanupFrequency), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return cache.NewSQLiteCache(cfg.SQLitePath, f.logger, cfg.MaxEntries, cfg.TTL, cfg.CleanupFrequency)
	case "mysql":
		return cache.NewMySQLCache(cfg.MySQLDSN, f.logger, cfg.MaxEntries, cfg.TTL, cfg.CleanupFrequency)
	case "redis":
		return cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, f.logger, cfg.MaxEntries, cfg.TTL, cfg.CleanupFrequency)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
