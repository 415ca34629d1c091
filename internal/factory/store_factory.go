package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/activity"
	"github.com/calder/inbox-sentinel/internal/analytics"
	"github.com/calder/inbox-sentinel/internal/config"
	"github.com/calder/inbox-sentinel/internal/core"
	"github.com/calder/inbox-sentinel/internal/settings"
)

// StoreFactory creates the activity log store and the settings repository
// based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// ActivityStore bundles the log interface with the snapshot sink both
// activity store implementations provide.
type ActivityStore interface {
	core.ActivityLog
	analytics.SnapshotSink
}

// CreateActivityLog creates an activity log store based on the configuration
func (f *StoreFactory) CreateActivityLog() (ActivityStore, error) {
	cfg := f.cfg.GetActivity()

	switch cfg.Store {
	case "memory":
		return activity.NewMemoryStore(cfg.MaxDeletions, cfg.MaxUnsubscribes), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return activity.NewSQLiteStore(cfg.SQLitePath, cfg.MaxDeletions, cfg.MaxUnsubscribes)
	default:
		return nil, fmt.Errorf("unsupported activity store: %s", cfg.Store)
	}
}

// CreateSettingsRepository creates a settings repository based on the configuration
func (f *StoreFactory) CreateSettingsRepository() (core.SettingsRepository, error) {
	cfg := f.cfg.GetSettings()

	switch cfg.Repository {
	case "memory":
		return settings.NewMemoryRepository(), nil
	case "redis":
		return settings.NewRedisRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, f.logger)
	default:
		return nil, fmt.Errorf("unsupported settings repository: %s", cfg.Repository)
	}
}
