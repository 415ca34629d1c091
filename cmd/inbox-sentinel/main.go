package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/analytics"
	"github.com/calder/inbox-sentinel/internal/config"
	"github.com/calder/inbox-sentinel/internal/control"
	"github.com/calder/inbox-sentinel/internal/core"
	"github.com/calder/inbox-sentinel/internal/di"
	"github.com/calder/inbox-sentinel/internal/factory"
	"github.com/calder/inbox-sentinel/internal/scan"
	"github.com/calder/inbox-sentinel/internal/settings"
)

const cleanupFrequency = 5 * time.Minute

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	store *settings.Store,
	settingsRepo core.SettingsRepository,
	cacheRepo core.CacheRepository,
	activityStore factory.ActivityStore,
	stats *analytics.Collector,
	scanner *scan.Service,
	router *control.Router,
) error {
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load persisted settings and follow external updates
	if err := store.Load(ctx); err != nil {
		logger.Error("Failed to load settings", zap.Error(err))
	}
	if err := store.FollowRepository(ctx); err != nil {
		logger.Warn("Settings change feed unavailable", zap.Error(err))
	}

	// Start periodic analytics persistence
	analyticsCfg, err := cfg.GetAnalytics()
	if err != nil {
		return fmt.Errorf("invalid analytics configuration: %w", err)
	}
	stats.StartFlushTask(activityStore, analyticsCfg.FlushInterval)

	// Periodic cleanup, independent of the scan path
	go func() {
		ticker := time.NewTicker(cleanupFrequency)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stats.TrimErrors()
				if err := cacheRepo.Cleanup(ctx); err != nil {
					logger.Warn("Cache cleanup failed", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Start the scan pipeline
	scanErr := make(chan error, 1)
	go func() {
		scanErr <- scanner.Run(ctx)
	}()

	// Start the control surface
	controlCfg := cfg.GetControl()
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Control surface listening", zap.String("address", controlCfg.ListenAddress))
		serveErr <- router.Run(controlCfg.ListenAddress)
	}()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Shutting down...", zap.String("signal", sig.String()))
	case err := <-serveErr:
		logger.Error("Control surface stopped", zap.Error(err))
	case err := <-scanErr:
		if err != nil && err != context.Canceled {
			logger.Error("Scan pipeline stopped", zap.Error(err))
		}
	}
	cancel()

	// Stop the analytics flush task
	stats.Stop()

	// Stop the cache if needed
	if stopper, ok := cacheRepo.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	// Close any stores that need closing
	if closer, ok := interface{}(activityStore).(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close activity store", zap.Error(err))
		}
	}
	if closer, ok := settingsRepo.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close settings repository", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
