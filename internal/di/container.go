package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/adapters/actions"
	"github.com/calder/inbox-sentinel/internal/analytics"
	"github.com/calder/inbox-sentinel/internal/config"
	"github.com/calder/inbox-sentinel/internal/control"
	"github.com/calder/inbox-sentinel/internal/core"
	"github.com/calder/inbox-sentinel/internal/extract"
	"github.com/calder/inbox-sentinel/internal/factory"
	"github.com/calder/inbox-sentinel/internal/logging"
	"github.com/calder/inbox-sentinel/internal/scan"
	"github.com/calder/inbox-sentinel/internal/scoring"
	"github.com/calder/inbox-sentinel/internal/settings"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register clock
	if err := container.Provide(func() core.Clock {
		return core.SystemClock{}
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFeedFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}

	// Register cache repository
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register row source
	if err := container.Provide(func(f *factory.FeedFactory) (core.RowSource, error) {
		return f.CreateRowSource()
	}); err != nil {
		return nil, err
	}

	// Register activity log store
	if err := container.Provide(func(f *factory.StoreFactory) (factory.ActivityStore, error) {
		return f.CreateActivityLog()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(s factory.ActivityStore) core.ActivityLog {
		return s
	}); err != nil {
		return nil, err
	}

	// Register settings repository and store
	if err := container.Provide(func(f *factory.StoreFactory) (core.SettingsRepository, error) {
		return f.CreateSettingsRepository()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(settings.NewStore); err != nil {
		return nil, err
	}

	// Register scorer and extractor
	if err := container.Provide(func() core.Scorer {
		return scoring.NewHeuristicScorer()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(logger *zap.Logger, clock core.Clock) core.Extractor {
		return extract.NewRowExtractor(logger, clock)
	}); err != nil {
		return nil, err
	}

	// Register analytics collector
	if err := container.Provide(analytics.NewCollector); err != nil {
		return nil, err
	}

	// Register action executors
	if err := container.Provide(func(logger *zap.Logger, clock core.Clock) core.TrashMover {
		return actions.NewSimTrashMover(logger, clock)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(logger *zap.Logger) core.Unsubscriber {
		return actions.NewSimUnsubscriber(logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(logger *zap.Logger) core.Organizer {
		return actions.NewLabelOrganizer(logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(store *settings.Store, logger *zap.Logger, clock core.Clock) core.Notifier {
		return actions.NewBannerNotifier(logger, clock, func() bool {
			return store.Get().EnableNotifications
		})
	}); err != nil {
		return nil, err
	}

	// Register scan service
	if err := container.Provide(func(store *settings.Store) scan.SettingsGetter {
		return store
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(scan.NewService); err != nil {
		return nil, err
	}

	// Register control surface
	if err := container.Provide(control.NewHandler); err != nil {
		return nil, err
	}
	if err := container.Provide(control.NewRouter); err != nil {
		return nil, err
	}

	return container, nil
}
