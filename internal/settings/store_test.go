package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/core"
)

type failingRepository struct {
	loadErr error
	saveErr error
}

func (r *failingRepository) Load(ctx context.Context) (*core.Settings, error) {
	return nil, r.loadErr
}

func (r *failingRepository) Save(ctx context.Context, s *core.Settings) error {
	return r.saveErr
}

func (r *failingRepository) Watch(ctx context.Context) (<-chan core.Settings, error) {
	return nil, errors.New("watch unsupported")
}

func TestStoreSeedsDefaultsOnFirstLoad(t *testing.T) {
	repo := NewMemoryRepository()
	store := NewStore(repo, zap.NewNop())
	ctx := context.Background()

	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got, want := store.Get(), core.DefaultSettings(); got != want {
		t.Errorf("Get() = %+v, want defaults", got)
	}

	// The missing record was seeded into the repository.
	persisted, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("repository Load() error = %v", err)
	}
	if *persisted != core.DefaultSettings() {
		t.Errorf("persisted = %+v, want defaults", *persisted)
	}
}

func TestStoreLoadAppliesPersistedRecord(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	saved := core.DefaultSettings()
	saved.AutoDelete = true
	saved.Sensitivity = 7
	if err := repo.Save(ctx, &saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	store := NewStore(repo, zap.NewNop())
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got := store.Get()
	if !got.AutoDelete || got.Sensitivity != 7 {
		t.Errorf("Get() = %+v, want persisted record applied", got)
	}
}

func TestStoreLoadFallsBackOnRepositoryError(t *testing.T) {
	repo := &failingRepository{loadErr: errors.New("connection refused")}
	store := NewStore(repo, zap.NewNop())

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v, want nil on fallback", err)
	}
	if got := store.Get(); got != core.DefaultSettings() {
		t.Errorf("Get() = %+v, want defaults after failed load", got)
	}
}

func TestStoreSetLastWriterWins(t *testing.T) {
	repo := NewMemoryRepository()
	store := NewStore(repo, zap.NewNop())
	ctx := context.Background()

	first := core.DefaultSettings()
	first.Sensitivity = 5
	second := core.DefaultSettings()
	second.Sensitivity = 9

	if err := store.Set(ctx, first); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, second); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if got := store.Get().Sensitivity; got != 9 {
		t.Errorf("Sensitivity = %d, want 9", got)
	}
	persisted, _ := repo.Load(ctx)
	if persisted.Sensitivity != 9 {
		t.Errorf("persisted Sensitivity = %d, want 9", persisted.Sensitivity)
	}
}

func TestStoreSetKeepsUpdateWhenPersistFails(t *testing.T) {
	repo := &failingRepository{
		loadErr: core.ErrNotFound,
		saveErr: errors.New("write failed"),
	}
	store := NewStore(repo, zap.NewNop())

	updated := core.DefaultSettings()
	updated.AutoOrganize = true

	if err := store.Set(context.Background(), updated); err == nil {
		t.Fatal("Set() error = nil, want persistence failure surfaced")
	}
	if got := store.Get(); !got.AutoOrganize {
		t.Errorf("Get() = %+v, want in-memory update retained", got)
	}
}

func TestStoreSubscribeReceivesUpdates(t *testing.T) {
	store := NewStore(NewMemoryRepository(), zap.NewNop())
	updates := store.Subscribe()

	want := core.DefaultSettings()
	want.BatchProcessing = false
	if err := store.Set(context.Background(), want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	select {
	case got := <-updates:
		if got != want {
			t.Errorf("received %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}

func TestStoreSubscribeDropsWhenFull(t *testing.T) {
	store := NewStore(NewMemoryRepository(), zap.NewNop())
	updates := store.Subscribe()
	ctx := context.Background()

	first := core.DefaultSettings()
	first.Sensitivity = 4
	second := core.DefaultSettings()
	second.Sensitivity = 6

	store.Set(ctx, first)
	store.Set(ctx, second)

	// The one-slot buffer holds the first update; the second was dropped
	// rather than blocking the writer.
	got := <-updates
	if got.Sensitivity != 4 {
		t.Errorf("buffered Sensitivity = %d, want 4", got.Sensitivity)
	}
	select {
	case extra := <-updates:
		t.Errorf("unexpected second update %+v", extra)
	default:
	}
}

func TestStoreFollowRepository(t *testing.T) {
	repo := NewMemoryRepository()
	store := NewStore(repo, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.FollowRepository(ctx); err != nil {
		t.Fatalf("FollowRepository() error = %v", err)
	}

	external := core.DefaultSettings()
	external.AutoDelete = true
	if err := repo.Save(ctx, &external); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	deadline := time.After(time.Second)
	for {
		if store.Get().AutoDelete {
			return
		}
		select {
		case <-deadline:
			t.Fatal("externally saved settings never applied")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
