package core

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by cache and settings repositories on a miss.
var ErrNotFound = errors.New("entry not found")

// ErrNoSender is returned when a row's mandatory sender field cannot be read.
var ErrNoSender = errors.New("sender field not found")

// Row is one rendered message row as seen by the scan pipeline. Lookup
// returns the text content at a selector key, empty when nothing matches.
// The processed marker is the pipeline's only re-entrancy guard and must be
// set synchronously before any asynchronous work starts.
type Row interface {
	// ID returns the provider-assigned message id, empty when unknown.
	ID() string

	// Lookup returns the text found at the given selector, "" if absent.
	Lookup(selector string) string

	// Links returns the hrefs of anchor-like elements inside the row.
	Links() []string

	// Selectable reports whether the row carries a selection control.
	Selectable() bool

	// Visible reports whether the row has a non-zero rendered height.
	Visible() bool

	Processed() bool
	MarkProcessed()

	// Highlight applies a visual marker. Reversible only by a full reload.
	Highlight(style HighlightStyle)
}

// RowSource is the change-observation feed: it yields batches of newly
// inserted row-shaped elements in delivery order.
type RowSource interface {
	// Batches returns the channel the feed delivers on. The channel is
	// closed when the source stops.
	Batches() <-chan []Row

	// Snapshot returns the rows currently rendered, for full re-scans.
	Snapshot(ctx context.Context) ([]Row, error)

	Start() error
	Stop() error
}

// Scorer is the pure heuristic engine.
type Scorer interface {
	Score(rec *MessageRecord) int
	Categorize(rec *MessageRecord) string
	// Prioritize returns the winning tier name and its display color;
	// ok is false when no tier cleared the threshold.
	Prioritize(rec *MessageRecord) (tier string, color string, ok bool)
}

// Extractor reads a normalized record off a row. Returns ErrNoSender when
// the mandatory sender field is missing.
type Extractor interface {
	Extract(row Row) (*MessageRecord, error)
}

// CacheRepository stores computed scores keyed by fingerprint. Insertion
// order is tracked so the oldest entries can be evicted first.
type CacheRepository interface {
	// Get retrieves the entry for a fingerprint, ErrNotFound on a miss.
	Get(ctx context.Context, fingerprint string) (*CacheEntry, error)

	// Set stores an entry, unconditionally overwriting. Overwrites keep
	// the key's original insertion position.
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a single entry.
	Delete(ctx context.Context, fingerprint string) error

	// Size returns the current entry count.
	Size(ctx context.Context) (int, error)

	// EvictOldest removes up to n earliest-inserted entries and returns
	// how many were removed.
	EvictOldest(ctx context.Context, n int) (int, error)

	// Clear empties the cache and returns the prior size.
	Clear(ctx context.Context) (int, error)

	// Cleanup trims the cache to its configured bounds.
	Cleanup(ctx context.Context) error
}

// TrashMover moves a flagged row to trash. Implementations simulate the
// provider UI and report whether the gesture completed.
type TrashMover interface {
	MoveToTrash(ctx context.Context, row Row) error
}

// Unsubscriber follows an unsubscribe link found in a row.
type Unsubscriber interface {
	Unsubscribe(ctx context.Context, row Row, link string) error
}

// Organizer files a message under a category. Folder creation against the
// mail provider is not implemented; implementations verify or fake it.
type Organizer interface {
	Organize(ctx context.Context, rec *MessageRecord, category string) error
}

// Notifier shows a transient banner, auto-dismissed after a level-dependent
// timeout.
type Notifier interface {
	Notify(level NoticeLevel, message string)
}

// ActivityLog is the append-only deletion/unsubscribe record store. Appends
// truncate to a fixed maximum, keeping the most recent entries.
type ActivityLog interface {
	AppendDeletion(ctx context.Context, entry DeletionLog) error
	AppendUnsubscribe(ctx context.Context, entry UnsubscribeLog) error
	Deletions(ctx context.Context) ([]DeletionLog, error)
	Unsubscribes(ctx context.Context) ([]UnsubscribeLog, error)
	Clear(ctx context.Context) error
}

// SettingsRepository persists the shared Settings record.
type SettingsRepository interface {
	// Load returns the persisted settings, ErrNotFound when none exist.
	Load(ctx context.Context) (*Settings, error)

	Save(ctx context.Context, s *Settings) error

	// Watch delivers each saved settings record after Save, including
	// saves made by other processes sharing the repository.
	Watch(ctx context.Context) (<-chan Settings, error)
}

// Clock abstracts time for the delayed unsubscribe action so tests can run
// without real sleeps.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func())
}

// SystemClock is the real-time Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }
