package actions

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/core"
)

// LabelOrganizer files messages under category labels. Folder creation
// against the mail provider is out of scope; the organizer tracks the
// label set locally and logs the filing.
type LabelOrganizer struct {
	mu     sync.Mutex
	labels map[string]int
	logger *zap.Logger
}

// NewLabelOrganizer creates an organizer with an empty label set.
func NewLabelOrganizer(logger *zap.Logger) *LabelOrganizer {
	return &LabelOrganizer{
		labels: make(map[string]int),
		logger: logger,
	}
}

func (o *LabelOrganizer) Organize(ctx context.Context, rec *core.MessageRecord, category string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	o.mu.Lock()
	created := false
	if _, ok := o.labels[category]; !ok {
		created = true
	}
	o.labels[category]++
	o.mu.Unlock()

	o.logger.Info("filed message under category",
		zap.String("message_id", rec.ID),
		zap.String("category", category),
		zap.Bool("label_created", created),
	)
	return nil
}

// LabelCounts returns a copy of the per-label filing counts.
func (o *LabelOrganizer) LabelCounts() map[string]int {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]int, len(o.labels))
	for k, v := range o.labels {
		out[k] = v
	}
	return out
}
