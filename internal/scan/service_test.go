package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/activity"
	"github.com/calder/inbox-sentinel/internal/adapters/cache"
	"github.com/calder/inbox-sentinel/internal/adapters/feed"
	"github.com/calder/inbox-sentinel/internal/analytics"
	"github.com/calder/inbox-sentinel/internal/core"
	"github.com/calder/inbox-sentinel/internal/extract"
	"github.com/calder/inbox-sentinel/internal/scoring"
)

// immediateClock runs scheduled funcs synchronously so delayed actions
// complete before assertions run.
type immediateClock struct{}

func (immediateClock) Now() time.Time                      { return time.Unix(1700000000, 0) }
func (immediateClock) AfterFunc(_ time.Duration, f func()) { f() }

type fakeSource struct {
	rows []core.Row
}

func (s *fakeSource) Batches() <-chan []core.Row {
	ch := make(chan []core.Row, 1)
	ch <- s.rows
	close(ch)
	return ch
}

func (s *fakeSource) Snapshot(ctx context.Context) ([]core.Row, error) {
	return s.rows, nil
}

func (s *fakeSource) Start() error { return nil }
func (s *fakeSource) Stop() error  { return nil }

type fakeTrash struct {
	mu    sync.Mutex
	moved []string
	fail  bool
}

func (f *fakeTrash) MoveToTrash(ctx context.Context, row core.Row) error {
	if f.fail {
		return errors.New("trash control not found")
	}
	f.mu.Lock()
	f.moved = append(f.moved, row.ID())
	f.mu.Unlock()
	return nil
}

func (f *fakeTrash) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.moved)
}

type fakeUnsubscriber struct {
	mu       sync.Mutex
	followed []string
}

func (f *fakeUnsubscriber) Unsubscribe(ctx context.Context, row core.Row, link string) error {
	f.mu.Lock()
	f.followed = append(f.followed, link)
	f.mu.Unlock()
	return nil
}

type fakeOrganizer struct {
	mu    sync.Mutex
	filed map[string]string
}

func (f *fakeOrganizer) Organize(ctx context.Context, rec *core.MessageRecord, category string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.filed == nil {
		f.filed = make(map[string]string)
	}
	f.filed[rec.ID] = category
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []string
}

func (f *fakeNotifier) Notify(level core.NoticeLevel, message string) {
	f.mu.Lock()
	f.notices = append(f.notices, string(level)+": "+message)
	f.mu.Unlock()
}

type fixedSettings struct {
	s core.Settings
}

func (f *fixedSettings) Get() core.Settings { return f.s }

type harness struct {
	svc      *Service
	trash    *fakeTrash
	unsub    *fakeUnsubscriber
	organize *fakeOrganizer
	notifier *fakeNotifier
	cache    *cache.MemoryCache
	activity *activity.MemoryStore
	settings *fixedSettings
}

func newHarness(t *testing.T, rows []core.Row, cfg core.Settings) *harness {
	t.Helper()
	logger := zap.NewNop()
	clock := immediateClock{}

	c := cache.NewMemoryCache(logger, 1000, 0, time.Hour)
	t.Cleanup(c.Stop)

	h := &harness{
		trash:    &fakeTrash{},
		unsub:    &fakeUnsubscriber{},
		organize: &fakeOrganizer{},
		notifier: &fakeNotifier{},
		cache:    c,
		activity: activity.NewMemoryStore(100, 50),
		settings: &fixedSettings{s: cfg},
	}

	stats := analytics.NewCollector(logger, clock)
	t.Cleanup(stats.Stop)

	h.svc = NewService(
		&fakeSource{rows: rows},
		extract.NewRowExtractor(logger, clock),
		scoring.NewHeuristicScorer(),
		h.cache,
		h.trash,
		h.unsub,
		h.organize,
		h.notifier,
		h.activity,
		h.settings,
		stats,
		logger,
		clock,
	)
	return h
}

func spamRow(id string) *feed.SimRow {
	return feed.NewSimRow(id, map[string]string{
		"data-tooltip":        "spam@marketing.com",
		"data-thread-perm-id": "LIMITED TIME OFFER! 50% OFF!",
		"bog":                 "click here now, exclusive deal, limited time only",
	}, nil)
}

func cleanRow(id string) *feed.SimRow {
	return feed.NewSimRow(id, map[string]string{
		"data-tooltip":        "john.doe@company.com",
		"data-thread-perm-id": "Meeting Tomorrow",
		"bog":                 "let's discuss the project updates",
	}, nil)
}

func TestProcessRowIdempotent(t *testing.T) {
	cfg := core.DefaultSettings()
	cfg.AutoDelete = true
	cfg.BatchProcessing = false

	row := spamRow("dup-1")
	h := newHarness(t, []core.Row{row}, cfg)
	ctx := context.Background()

	h.svc.ProcessRow(ctx, row)
	h.svc.ProcessRow(ctx, row)

	logs, err := h.activity.Deletions(ctx)
	if err != nil {
		t.Fatalf("Deletions() error = %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("deletion logs = %d, want 1 after duplicate observation", len(logs))
	}
	if h.trash.count() != 1 {
		t.Errorf("trash moves = %d, want 1", h.trash.count())
	}
}

func TestProcessRowHighlightsWithoutAutoDelete(t *testing.T) {
	cfg := core.DefaultSettings()
	cfg.BatchProcessing = false

	row := spamRow("hl-1")
	h := newHarness(t, []core.Row{row}, cfg)

	h.svc.ProcessRow(context.Background(), row)

	if h.trash.count() != 0 {
		t.Errorf("trash moves = %d, want 0 with autoDelete off", h.trash.count())
	}
	styles := row.Highlights()
	if len(styles) == 0 {
		t.Fatal("row not highlighted")
	}
	if styles[0] != core.SpamHighlight {
		t.Errorf("highlight = %+v, want spam style", styles[0])
	}

	logs, _ := h.activity.Deletions(context.Background())
	if len(logs) != 0 {
		t.Errorf("deletion logs = %d, want 0", len(logs))
	}
}

func TestProcessRowDeletionLogFields(t *testing.T) {
	cfg := core.DefaultSettings()
	cfg.AutoDelete = true
	cfg.BatchProcessing = false

	row := spamRow("del-1")
	h := newHarness(t, []core.Row{row}, cfg)
	ctx := context.Background()

	h.svc.ProcessRow(ctx, row)

	logs, _ := h.activity.Deletions(ctx)
	if len(logs) != 1 {
		t.Fatalf("deletion logs = %d, want 1", len(logs))
	}
	got := logs[0]
	if got.ID != "del-1" {
		t.Errorf("ID = %q, want del-1", got.ID)
	}
	if got.Sender != "spam@marketing.com" {
		t.Errorf("Sender = %q", got.Sender)
	}
	if got.Domain != "marketing.com" {
		t.Errorf("Domain = %q, want marketing.com", got.Domain)
	}
	if got.SpamScore < 8 {
		t.Errorf("SpamScore = %d, want >= 8", got.SpamScore)
	}
	if got.Reason == "" {
		t.Error("Reason is empty")
	}
}

func TestProcessRowUsesCachedScore(t *testing.T) {
	cfg := core.DefaultSettings()
	cfg.AutoDelete = true
	cfg.BatchProcessing = false

	// A clean row whose fingerprint already carries a spam score.
	row := cleanRow("cached-1")
	h := newHarness(t, []core.Row{row}, cfg)
	ctx := context.Background()

	fp := core.Fingerprint(&core.MessageRecord{
		Sender:  "john.doe@company.com",
		Subject: "Meeting Tomorrow",
	})
	h.cache.Set(ctx, &core.CacheEntry{Fingerprint: fp, Score: 9, ComputedAt: time.Now()})

	h.svc.ProcessRow(ctx, row)

	if h.trash.count() != 1 {
		t.Errorf("trash moves = %d, want 1 from cached score", h.trash.count())
	}
}

func TestProcessRowSchedulesUnsubscribe(t *testing.T) {
	cfg := core.DefaultSettings()
	cfg.BatchProcessing = false

	row := feed.NewSimRow("unsub-1", map[string]string{
		"data-tooltip":        "digest@weekly.io",
		"data-thread-perm-id": "Your weekly digest",
		"bog":                 "this week in review",
	}, []string{"https://weekly.io/article", "https://weekly.io/unsubscribe?u=1"})

	h := newHarness(t, []core.Row{row}, cfg)
	ctx := context.Background()

	h.svc.ProcessRow(ctx, row)

	if len(h.unsub.followed) != 1 {
		t.Fatalf("unsubscribes = %d, want 1", len(h.unsub.followed))
	}
	if h.unsub.followed[0] != "https://weekly.io/unsubscribe?u=1" {
		t.Errorf("followed %q, want the first matching link", h.unsub.followed[0])
	}

	logs, _ := h.activity.Unsubscribes(ctx)
	if len(logs) != 1 {
		t.Fatalf("unsubscribe logs = %d, want 1", len(logs))
	}
	if logs[0].UnsubscribeLink != "https://weekly.io/unsubscribe?u=1" {
		t.Errorf("logged link = %q", logs[0].UnsubscribeLink)
	}
}

func TestProcessRowOrganizes(t *testing.T) {
	cfg := core.DefaultSettings()
	cfg.AutoOrganize = true
	cfg.BatchProcessing = false

	row := cleanRow("org-1")
	h := newHarness(t, []core.Row{row}, cfg)

	h.svc.ProcessRow(context.Background(), row)

	if got := h.organize.filed["org-1"]; got != "work" {
		t.Errorf("organized into %q, want work", got)
	}
}

func TestProcessRowSkipsWhenDisabled(t *testing.T) {
	cfg := core.DefaultSettings()
	cfg.AutoDelete = true
	cfg.BatchProcessing = false

	row := spamRow("off-1")
	h := newHarness(t, []core.Row{row}, cfg)

	if enabled := h.svc.Toggle(); enabled {
		t.Fatal("Toggle() = true, want disabled")
	}
	h.svc.ProcessRow(context.Background(), row)

	if row.Processed() {
		t.Error("row marked processed while disabled")
	}
	if h.trash.count() != 0 {
		t.Errorf("trash moves = %d, want 0 while disabled", h.trash.count())
	}

	if enabled := h.svc.Toggle(); !enabled {
		t.Fatal("Toggle() = false, want re-enabled")
	}
	h.svc.ProcessRow(context.Background(), row)
	if h.trash.count() != 1 {
		t.Errorf("trash moves = %d, want 1 after re-enable", h.trash.count())
	}
}

func TestProcessRowDropsUnextractableRow(t *testing.T) {
	cfg := core.DefaultSettings()
	cfg.BatchProcessing = false

	row := feed.NewSimRow("bad-1", map[string]string{
		"data-thread-perm-id": "No sender at all",
	}, nil)
	h := newHarness(t, []core.Row{row}, cfg)

	h.svc.ProcessRow(context.Background(), row)

	if !row.Processed() {
		t.Error("unextractable row not marked processed")
	}
	logs, _ := h.activity.Deletions(context.Background())
	if len(logs) != 0 {
		t.Errorf("deletion logs = %d, want 0", len(logs))
	}
}

func TestScanNow(t *testing.T) {
	cfg := core.DefaultSettings()
	cfg.BatchProcessing = false

	done := spamRow("seen-1")
	done.MarkProcessed()
	fresh := spamRow("fresh-1")
	h := newHarness(t, []core.Row{done, fresh}, cfg)

	n, err := h.svc.ScanNow(context.Background())
	if err != nil {
		t.Fatalf("ScanNow() error = %v", err)
	}
	if n != 1 {
		t.Errorf("ScanNow() = %d, want 1 (processed row skipped)", n)
	}
	if !fresh.Processed() {
		t.Error("fresh row not processed")
	}
}

func TestProcessBatchConcurrent(t *testing.T) {
	cfg := core.DefaultSettings()
	cfg.AutoDelete = true

	rows := make([]core.Row, 10)
	for i := range rows {
		rows[i] = spamRow("batch-" + string(rune('a'+i)))
	}
	h := newHarness(t, rows, cfg)

	h.svc.ProcessBatch(context.Background(), rows)

	logs, _ := h.activity.Deletions(context.Background())
	if len(logs) != len(rows) {
		t.Errorf("deletion logs = %d, want %d", len(logs), len(rows))
	}
}

func TestManualUnsubscribe(t *testing.T) {
	cfg := core.DefaultSettings()
	cfg.BatchProcessing = false

	row := feed.NewSimRow("man-1", map[string]string{
		"data-tooltip":        "digest@weekly.io",
		"data-thread-perm-id": "Your weekly digest",
	}, []string{"https://weekly.io/opt-out"})
	h := newHarness(t, []core.Row{row}, cfg)

	found, err := h.svc.ManualUnsubscribe(context.Background(), "DIGEST@weekly.io")
	if err != nil {
		t.Fatalf("ManualUnsubscribe() error = %v", err)
	}
	if !found {
		t.Fatal("ManualUnsubscribe() = false, want sender matched case-insensitively")
	}
	if len(h.unsub.followed) != 1 {
		t.Errorf("unsubscribes = %d, want 1", len(h.unsub.followed))
	}

	found, err = h.svc.ManualUnsubscribe(context.Background(), "nobody@nowhere.com")
	if err != nil {
		t.Fatalf("ManualUnsubscribe() error = %v", err)
	}
	if found {
		t.Error("ManualUnsubscribe() = true for unknown sender")
	}
}
