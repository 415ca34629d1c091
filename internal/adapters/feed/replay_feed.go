package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/core"
)

// RowSpec is one message row as declared in a replay file.
type RowSpec struct {
	ID      string   `json:"id"`
	Sender  string   `json:"sender"`
	Subject string   `json:"subject"`
	Snippet string   `json:"snippet"`
	Links   []string `json:"links"`
}

// row materializes a spec into a SimRow keyed by the provider selectors
// the extractor probes.
func (s RowSpec) row() *SimRow {
	return NewSimRow(s.ID, map[string]string{
		"data-tooltip":        s.Sender,
		"data-thread-perm-id": s.Subject,
		"bog":                 s.Snippet,
	}, s.Links)
}

// ReplayFeed delivers rows declared in a JSON file, in file order, split
// into batches. It stands in for a live mailbox during development and in
// integration tests.
type ReplayFeed struct {
	mu        sync.Mutex
	rows      []*SimRow
	batchSize int
	batches   chan []core.Row
	stop      chan struct{}
	logger    *zap.Logger
	started   bool
	stopOnce  sync.Once
}

// NewReplayFeed loads the replay file. A batchSize of 0 delivers all rows
// in a single batch.
func NewReplayFeed(path string, batchSize int, logger *zap.Logger) (*ReplayFeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay file: %w", err)
	}

	var specs []RowSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("failed to parse replay file: %w", err)
	}

	rows := make([]*SimRow, len(specs))
	for i, spec := range specs {
		rows[i] = spec.row()
	}
	return NewReplayFeedFromRows(rows, batchSize, logger), nil
}

// NewReplayFeedFromRows builds a feed over pre-constructed rows.
func NewReplayFeedFromRows(rows []*SimRow, batchSize int, logger *zap.Logger) *ReplayFeed {
	if batchSize <= 0 {
		batchSize = len(rows)
	}
	return &ReplayFeed{
		rows:      rows,
		batchSize: batchSize,
		batches:   make(chan []core.Row),
		stop:      make(chan struct{}),
		logger:    logger,
	}
}

func (f *ReplayFeed) Batches() <-chan []core.Row { return f.batches }

// Start delivers all batches on a background goroutine, then closes the
// channel.
func (f *ReplayFeed) Start() error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return fmt.Errorf("replay feed already started")
	}
	f.started = true
	f.mu.Unlock()

	go func() {
		defer close(f.batches)
		for start := 0; start < len(f.rows); start += f.batchSize {
			end := start + f.batchSize
			if end > len(f.rows) {
				end = len(f.rows)
			}
			batch := make([]core.Row, 0, end-start)
			for _, r := range f.rows[start:end] {
				batch = append(batch, r)
			}
			select {
			case f.batches <- batch:
			case <-f.stop:
				return
			}
		}
		f.logger.Info("replay feed drained", zap.Int("rows", len(f.rows)))
	}()
	return nil
}

func (f *ReplayFeed) Snapshot(ctx context.Context) ([]core.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Row, len(f.rows))
	for i, r := range f.rows {
		out[i] = r
	}
	return out, nil
}

func (f *ReplayFeed) Stop() error {
	f.stopOnce.Do(func() { close(f.stop) })
	return nil
}
