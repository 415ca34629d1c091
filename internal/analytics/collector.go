package analytics

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/core"
)

const (
	// MaxErrorRecords bounds the in-memory error list. When the list
	// fills up the oldest half is discarded.
	MaxErrorRecords = 100

	// DefaultFlushInterval is how often the collector persists a snapshot.
	DefaultFlushInterval = time.Minute
)

// ErrorRecord is a single captured processing failure.
type ErrorRecord struct {
	Message    string    `json:"message"`
	Context    string    `json:"context"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Snapshot is a point-in-time view of the collector counters.
type Snapshot struct {
	EmailsProcessed   int64         `json:"emailsProcessed"`
	SpamDetected      int64         `json:"spamDetected"`
	EmailsDeleted     int64         `json:"emailsDeleted"`
	Unsubscribes      int64         `json:"unsubscribes"`
	Organized         int64         `json:"organized"`
	CacheHits         int64         `json:"cacheHits"`
	CacheMisses       int64         `json:"cacheMisses"`
	AvgProcessingTime float64       `json:"avgProcessingTime"`
	Uptime            time.Duration `json:"uptime"`
	StartedAt         time.Time     `json:"startedAt"`
	Errors            []ErrorRecord `json:"errors"`
}

// SnapshotSink receives serialized analytics snapshots for persistence.
type SnapshotSink interface {
	SaveSnapshot(ctx context.Context, payload []byte) error
}

// Collector accumulates processing statistics for the daemon lifetime.
type Collector struct {
	mu     sync.Mutex
	logger *zap.Logger
	clock  core.Clock

	startedAt       time.Time
	emailsProcessed int64
	spamDetected    int64
	emailsDeleted   int64
	unsubscribes    int64
	organized       int64
	cacheHits       int64
	cacheMisses     int64
	avgProcessing   float64 // milliseconds
	errors          []ErrorRecord

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewCollector creates a collector anchored at the current time.
func NewCollector(logger *zap.Logger, clock core.Clock) *Collector {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Collector{
		logger:      logger,
		clock:       clock,
		startedAt:   clock.Now(),
		stopCleanup: make(chan struct{}),
	}
}

// RecordProcessed notes one scanned row and folds its processing time
// into the running average.
func (c *Collector) RecordProcessed(elapsed time.Duration) {
	messagesScanned.Inc()
	RecordScanDuration(elapsed)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.emailsProcessed++
	sample := float64(elapsed.Microseconds()) / 1000.0
	if c.avgProcessing == 0 {
		c.avgProcessing = sample
	} else {
		c.avgProcessing = (c.avgProcessing + sample) / 2
	}
}

// RecordSpam notes one row scored above the spam threshold.
func (c *Collector) RecordSpam() {
	spamDetected.Inc()
	c.mu.Lock()
	c.spamDetected++
	c.mu.Unlock()
}

// RecordDeletion notes one row moved to trash.
func (c *Collector) RecordDeletion() {
	RecordAction("delete")
	c.mu.Lock()
	c.emailsDeleted++
	c.mu.Unlock()
}

// RecordUnsubscribe notes one completed unsubscribe.
func (c *Collector) RecordUnsubscribe() {
	RecordAction("unsubscribe")
	c.mu.Lock()
	c.unsubscribes++
	c.mu.Unlock()
}

// RecordOrganize notes one row filed under a category.
func (c *Collector) RecordOrganize() {
	RecordAction("organize")
	c.mu.Lock()
	c.organized++
	c.mu.Unlock()
}

// RecordCacheHit notes a score served from the fingerprint cache.
func (c *Collector) RecordCacheHit() {
	cacheLookups.WithLabelValues("hit").Inc()
	c.mu.Lock()
	c.cacheHits++
	c.mu.Unlock()
}

// RecordCacheMiss notes a score that had to be computed.
func (c *Collector) RecordCacheMiss() {
	cacheLookups.WithLabelValues("miss").Inc()
	c.mu.Lock()
	c.cacheMisses++
	c.mu.Unlock()
}

// RecordError captures a processing failure. When the error list is full
// the oldest half is dropped to make room.
func (c *Collector) RecordError(msg, context string) {
	errorCount.Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.errors) >= MaxErrorRecords {
		c.errors = append([]ErrorRecord(nil), c.errors[len(c.errors)/2:]...)
	}
	c.errors = append(c.errors, ErrorRecord{
		Message:    msg,
		Context:    context,
		OccurredAt: c.clock.Now(),
	})
}

// Snapshot returns a copy of the current counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	errs := append([]ErrorRecord(nil), c.errors...)
	return Snapshot{
		EmailsProcessed:   c.emailsProcessed,
		SpamDetected:      c.spamDetected,
		EmailsDeleted:     c.emailsDeleted,
		Unsubscribes:      c.unsubscribes,
		Organized:         c.organized,
		CacheHits:         c.cacheHits,
		CacheMisses:       c.cacheMisses,
		AvgProcessingTime: c.avgProcessing,
		Uptime:            c.clock.Now().Sub(c.startedAt),
		StartedAt:         c.startedAt,
		Errors:            errs,
	}
}

// TrimErrors halves the error list, keeping the most recent entries.
// Called by the periodic cleanup task.
func (c *Collector) TrimErrors() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.errors) > 1 {
		c.errors = append([]ErrorRecord(nil), c.errors[len(c.errors)/2:]...)
	}
}

// ClearErrors discards the captured error list.
func (c *Collector) ClearErrors() {
	c.mu.Lock()
	c.errors = nil
	c.mu.Unlock()
}

// StartFlushTask periodically persists a snapshot to the sink until Stop
// is called.
func (c *Collector) StartFlushTask(sink SnapshotSink, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				payload, err := json.Marshal(c.Snapshot())
				if err != nil {
					c.logger.Warn("failed to serialize analytics snapshot", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				if err := sink.SaveSnapshot(ctx, payload); err != nil {
					c.logger.Warn("failed to persist analytics snapshot", zap.Error(err))
				}
				cancel()
			case <-c.stopCleanup:
				return
			}
		}
	}()
}

// Stop halts the periodic flush task.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}
