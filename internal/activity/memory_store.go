package activity

import (
	"context"
	"sync"

	"github.com/calder/inbox-sentinel/internal/core"
)

// MemoryStore is an in-memory ActivityLog, used when no database path is
// configured and as the persistence-failure fallback.
type MemoryStore struct {
	mu              sync.Mutex
	deletions       []core.DeletionLog
	unsubscribes    []core.UnsubscribeLog
	snapshot        []byte
	maxDeletions    int
	maxUnsubscribes int
}

// NewMemoryStore creates a new in-memory activity log.
func NewMemoryStore(maxDeletions, maxUnsubscribes int) *MemoryStore {
	if maxDeletions <= 0 {
		maxDeletions = DefaultMaxDeletions
	}
	if maxUnsubscribes <= 0 {
		maxUnsubscribes = DefaultMaxUnsubscribes
	}
	return &MemoryStore{
		maxDeletions:    maxDeletions,
		maxUnsubscribes: maxUnsubscribes,
	}
}

// AppendDeletion appends a deletion record and trims to the retention limit.
func (s *MemoryStore) AppendDeletion(ctx context.Context, entry core.DeletionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletions = append(s.deletions, entry)
	if len(s.deletions) > s.maxDeletions {
		s.deletions = s.deletions[len(s.deletions)-s.maxDeletions:]
	}
	return nil
}

// AppendUnsubscribe appends an unsubscribe record and trims to the
// retention limit.
func (s *MemoryStore) AppendUnsubscribe(ctx context.Context, entry core.UnsubscribeLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unsubscribes = append(s.unsubscribes, entry)
	if len(s.unsubscribes) > s.maxUnsubscribes {
		s.unsubscribes = s.unsubscribes[len(s.unsubscribes)-s.maxUnsubscribes:]
	}
	return nil
}

// Deletions returns the retained deletion records, oldest first.
func (s *MemoryStore) Deletions(ctx context.Context) ([]core.DeletionLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.DeletionLog(nil), s.deletions...), nil
}

// Unsubscribes returns the retained unsubscribe records, oldest first.
func (s *MemoryStore) Unsubscribes(ctx context.Context) ([]core.UnsubscribeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.UnsubscribeLog(nil), s.unsubscribes...), nil
}

// Clear removes all activity records.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletions = nil
	s.unsubscribes = nil
	return nil
}

// SaveSnapshot keeps the latest serialized analytics snapshot.
func (s *MemoryStore) SaveSnapshot(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = append([]byte(nil), payload...)
	return nil
}
