package actions

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/core"
)

// selectPacing is the delay between selecting a row and activating the
// trash control, mirroring the provider UI's settle time.
const selectPacing = 100 * time.Millisecond

// SimTrashMover drives the simulated move-to-trash gesture: select the
// row, wait for the selection to register, then activate the trash control.
type SimTrashMover struct {
	logger *zap.Logger
	clock  core.Clock
}

// NewSimTrashMover creates a simulated trash mover.
func NewSimTrashMover(logger *zap.Logger, clock core.Clock) *SimTrashMover {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &SimTrashMover{logger: logger, clock: clock}
}

func (m *SimTrashMover) MoveToTrash(ctx context.Context, row core.Row) error {
	if !row.Selectable() {
		return fmt.Errorf("row %s has no selection control", row.ID())
	}

	done := make(chan struct{})
	m.clock.AfterFunc(selectPacing, func() { close(done) })
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.logger.Info("moved row to trash",
		zap.String("message_id", row.ID()),
	)
	return nil
}
