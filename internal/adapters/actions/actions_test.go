package actions

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/adapters/feed"
	"github.com/calder/inbox-sentinel/internal/core"
)

// manualClock lets tests fire scheduled funcs explicitly.
type manualClock struct {
	now     time.Time
	pending []func()
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) AfterFunc(_ time.Duration, f func()) {
	c.pending = append(c.pending, f)
}

func (c *manualClock) fire() {
	pending := c.pending
	c.pending = nil
	for _, f := range pending {
		f()
	}
}

func TestFindUnsubscribeLink(t *testing.T) {
	tests := []struct {
		name  string
		links []string
		want  string
	}{
		{
			name:  "matches unsubscribe path",
			links: []string{"https://x.com/article", "https://x.com/unsubscribe?id=1"},
			want:  "https://x.com/unsubscribe?id=1",
		},
		{
			name:  "matches opt-out",
			links: []string{"https://y.com/OPT-OUT"},
			want:  "https://y.com/OPT-OUT",
		},
		{
			name:  "first match wins",
			links: []string{"https://z.com/remove-me", "https://z.com/unsubscribe"},
			want:  "https://z.com/remove-me",
		},
		{
			name:  "no candidate",
			links: []string{"https://x.com/read-more"},
			want:  "",
		},
		{
			name: "no links",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := feed.NewSimRow("r", nil, tt.links)
			if got := FindUnsubscribeLink(row); got != tt.want {
				t.Errorf("FindUnsubscribeLink() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSimTrashMoverRejectsUnselectable(t *testing.T) {
	clock := &manualClock{now: time.Unix(1700000000, 0)}
	mover := NewSimTrashMover(zap.NewNop(), clock)

	row := feed.NewSimRow("r-1", nil, nil)
	row.SetSelectable(false)

	if err := mover.MoveToTrash(context.Background(), row); err == nil {
		t.Error("MoveToTrash() = nil, want error for unselectable row")
	}
}

func TestSimTrashMoverHonorsCancellation(t *testing.T) {
	clock := &manualClock{now: time.Unix(1700000000, 0)}
	mover := NewSimTrashMover(zap.NewNop(), clock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := mover.MoveToTrash(ctx, feed.NewSimRow("r-1", nil, nil))
	if err == nil {
		t.Error("MoveToTrash() = nil, want context error")
	}
}

func TestSimUnsubscriberRequiresLink(t *testing.T) {
	unsub := NewSimUnsubscriber(zap.NewNop())
	row := feed.NewSimRow("r-1", nil, nil)

	if err := unsub.Unsubscribe(context.Background(), row, ""); err == nil {
		t.Error("Unsubscribe() = nil, want error for empty link")
	}
	if err := unsub.Unsubscribe(context.Background(), row, "https://x.com/unsubscribe"); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
}

func TestLabelOrganizerCounts(t *testing.T) {
	org := NewLabelOrganizer(zap.NewNop())
	ctx := context.Background()

	rec := &core.MessageRecord{ID: "m-1", Sender: "a@company.com"}
	if err := org.Organize(ctx, rec, "work"); err != nil {
		t.Fatalf("Organize() error = %v", err)
	}
	org.Organize(ctx, &core.MessageRecord{ID: "m-2"}, "work")
	org.Organize(ctx, &core.MessageRecord{ID: "m-3"}, "finance")

	counts := org.LabelCounts()
	if counts["work"] != 2 || counts["finance"] != 1 {
		t.Errorf("LabelCounts() = %v, want work:2 finance:1", counts)
	}
}

func TestBannerNotifierDismissal(t *testing.T) {
	clock := &manualClock{now: time.Unix(1700000000, 0)}
	n := NewBannerNotifier(zap.NewNop(), clock, nil)

	n.Notify(core.NoticeWarning, "Spam detected: offer")
	n.Notify(core.NoticeInfo, "Unsubscribe link found")

	active := n.Active()
	if len(active) != 2 {
		t.Fatalf("active = %d, want 2", len(active))
	}
	if active[0].Level != core.NoticeWarning {
		t.Errorf("level = %q, want warning", active[0].Level)
	}

	clock.fire()
	if got := len(n.Active()); got != 0 {
		t.Errorf("active after dismissal = %d, want 0", got)
	}
}

func TestBannerNotifierRespectsGate(t *testing.T) {
	clock := &manualClock{now: time.Unix(1700000000, 0)}
	enabled := false
	n := NewBannerNotifier(zap.NewNop(), clock, func() bool { return enabled })

	n.Notify(core.NoticeInfo, "suppressed")
	if got := len(n.Active()); got != 0 {
		t.Fatalf("active = %d, want 0 while disabled", got)
	}

	enabled = true
	n.Notify(core.NoticeInfo, "shown")
	if got := len(n.Active()); got != 1 {
		t.Errorf("active = %d, want 1 once enabled", got)
	}
}

func TestDismissAfterByLevel(t *testing.T) {
	if got := dismissAfter(core.NoticeError); got != 5*time.Second {
		t.Errorf("error lifetime = %v, want 5s", got)
	}
	if got := dismissAfter(core.NoticeWarning); got != 4*time.Second {
		t.Errorf("warning lifetime = %v, want 4s", got)
	}
	if got := dismissAfter(core.NoticeSuccess); got != 3*time.Second {
		t.Errorf("success lifetime = %v, want 3s", got)
	}
}
