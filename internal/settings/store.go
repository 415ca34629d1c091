// Package settings holds the shared runtime configuration record and its
// persistence glue. One Store instance exists per execution surface; updates
// are last-writer-wins and fan out to subscribers, so readers on other
// surfaces may briefly observe stale values.
package settings

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/core"
)

// Store is the in-process view of the Settings record.
type Store struct {
	mu       sync.RWMutex
	current  core.Settings
	repo     core.SettingsRepository
	logger   *zap.Logger
	watchers []chan core.Settings
}

// NewStore creates a store seeded with defaults. Call Load to pull the
// persisted record.
func NewStore(repo core.SettingsRepository, logger *zap.Logger) *Store {
	return &Store{
		current: core.DefaultSettings(),
		repo:    repo,
		logger:  logger,
	}
}

// Load reads the persisted settings. A missing record seeds the repository
// with defaults; a failing repository leaves the in-memory defaults in
// place rather than blocking startup.
func (s *Store) Load(ctx context.Context) error {
	loaded, err := s.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			defaults := core.DefaultSettings()
			if saveErr := s.repo.Save(ctx, &defaults); saveErr != nil {
				s.logger.Error("Failed to seed default settings", zap.Error(saveErr))
			}
			return nil
		}
		s.logger.Error("Failed to load settings, using defaults", zap.Error(err))
		return nil
	}

	s.mu.Lock()
	s.current = *loaded
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the current settings.
func (s *Store) Get() core.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the settings record, persists it, and notifies watchers.
// Persistence failure keeps the in-memory update (last-writer-wins locally)
// and is logged.
func (s *Store) Set(ctx context.Context, updated core.Settings) error {
	s.mu.Lock()
	s.current = updated
	watchers := append([]chan core.Settings(nil), s.watchers...)
	s.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- updated:
		default:
		}
	}

	if err := s.repo.Save(ctx, &updated); err != nil {
		s.logger.Error("Failed to persist settings", zap.Error(err))
		return err
	}
	return nil
}

// Subscribe returns a channel receiving each settings change. Slow
// consumers drop intermediate updates rather than blocking the writer.
func (s *Store) Subscribe() <-chan core.Settings {
	ch := make(chan core.Settings, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

// FollowRepository applies settings saved by other surfaces sharing the
// repository, until ctx is cancelled.
func (s *Store) FollowRepository(ctx context.Context) error {
	updates, err := s.repo.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case updated, ok := <-updates:
				if !ok {
					return
				}
				s.mu.Lock()
				s.current = updated
				s.mu.Unlock()
			}
		}
	}()
	return nil
}
