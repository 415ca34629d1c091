package settings

import (
	"context"
	"sync"

	"github.com/calder/inbox-sentinel/internal/core"
)

// MemoryRepository is an in-process settings repository used when no Redis
// is configured and in tests.
type MemoryRepository struct {
	mu       sync.Mutex
	stored   *core.Settings
	watchers []chan core.Settings
}

// NewMemoryRepository creates a new in-memory settings repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Load returns the stored settings, ErrNotFound before the first Save.
func (r *MemoryRepository) Load(ctx context.Context) (*core.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stored == nil {
		return nil, core.ErrNotFound
	}
	cp := *r.stored
	return &cp, nil
}

// Save stores the settings and notifies watchers.
func (r *MemoryRepository) Save(ctx context.Context, s *core.Settings) error {
	r.mu.Lock()
	cp := *s
	r.stored = &cp
	watchers := append([]chan core.Settings(nil), r.watchers...)
	r.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- cp:
		default:
		}
	}
	return nil
}

// Watch delivers each saved settings record.
func (r *MemoryRepository) Watch(ctx context.Context) (<-chan core.Settings, error) {
	ch := make(chan core.Settings, 1)
	r.mu.Lock()
	r.watchers = append(r.watchers, ch)
	r.mu.Unlock()
	return ch, nil
}
