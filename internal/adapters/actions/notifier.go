package actions

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/core"
)

// Banner is one transient notification currently on display.
type Banner struct {
	Level   core.NoticeLevel
	Message string
	ShownAt time.Time
}

// dismissAfter maps a notice level to its banner lifetime.
func dismissAfter(level core.NoticeLevel) time.Duration {
	switch level {
	case core.NoticeError:
		return 5 * time.Second
	case core.NoticeWarning:
		return 4 * time.Second
	default:
		return 3 * time.Second
	}
}

// BannerNotifier displays auto-expiring banners. Each banner is dismissed
// after a level-dependent timeout.
type BannerNotifier struct {
	mu      sync.Mutex
	active  []*Banner
	logger  *zap.Logger
	clock   core.Clock
	enabled func() bool
}

// NewBannerNotifier creates a notifier. The enabled func gates display;
// a nil func means always enabled.
func NewBannerNotifier(logger *zap.Logger, clock core.Clock, enabled func() bool) *BannerNotifier {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &BannerNotifier{logger: logger, clock: clock, enabled: enabled}
}

func (n *BannerNotifier) Notify(level core.NoticeLevel, message string) {
	if n.enabled != nil && !n.enabled() {
		return
	}

	banner := &Banner{Level: level, Message: message, ShownAt: n.clock.Now()}
	n.mu.Lock()
	n.active = append(n.active, banner)
	n.mu.Unlock()

	n.logger.Info("showing notification",
		zap.String("level", string(level)),
		zap.String("message", message),
	)

	n.clock.AfterFunc(dismissAfter(level), func() {
		n.dismiss(banner)
	})
}

func (n *BannerNotifier) dismiss(banner *Banner) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, b := range n.active {
		if b == banner {
			n.active = append(n.active[:i], n.active[i+1:]...)
			return
		}
	}
}

// Active returns the banners currently on display.
func (n *BannerNotifier) Active() []Banner {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Banner, len(n.active))
	for i, b := range n.active {
		out[i] = *b
	}
	return out
}
