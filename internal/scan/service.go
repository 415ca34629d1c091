package scan

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/adapters/actions"
	"github.com/calder/inbox-sentinel/internal/analytics"
	"github.com/calder/inbox-sentinel/internal/core"
	"github.com/calder/inbox-sentinel/internal/lexicon"
)

// SettingsGetter provides the current runtime settings to the scan path.
type SettingsGetter interface {
	Get() core.Settings
}

// Service is the scan controller. It consumes row batches from the feed,
// runs each row through extract/cache/score, and dispatches the configured
// actions. Rows fail independently; a panic or error in one row never
// stops the rest of a batch.
type Service struct {
	source    core.RowSource
	extractor core.Extractor
	scorer    core.Scorer
	cache     core.CacheRepository
	trash     core.TrashMover
	unsub     core.Unsubscriber
	organizer core.Organizer
	notifier  core.Notifier
	activity  core.ActivityLog
	settings  SettingsGetter
	stats     *analytics.Collector
	logger    *zap.Logger
	clock     core.Clock

	enabled atomic.Bool
}

// NewService wires the scan controller. The service starts enabled.
func NewService(
	source core.RowSource,
	extractor core.Extractor,
	scorer core.Scorer,
	cache core.CacheRepository,
	trash core.TrashMover,
	unsub core.Unsubscriber,
	organizer core.Organizer,
	notifier core.Notifier,
	activity core.ActivityLog,
	settings SettingsGetter,
	stats *analytics.Collector,
	logger *zap.Logger,
	clock core.Clock,
) *Service {
	if clock == nil {
		clock = core.SystemClock{}
	}
	s := &Service{
		source:    source,
		extractor: extractor,
		scorer:    scorer,
		cache:     cache,
		trash:     trash,
		unsub:     unsub,
		organizer: organizer,
		notifier:  notifier,
		activity:  activity,
		settings:  settings,
		stats:     stats,
		logger:    logger,
		clock:     clock,
	}
	s.enabled.Store(true)
	return s
}

// Enabled reports whether row processing is active.
func (s *Service) Enabled() bool { return s.enabled.Load() }

// Toggle flips the processing flag and returns the new state.
func (s *Service) Toggle() bool {
	for {
		old := s.enabled.Load()
		if s.enabled.CompareAndSwap(old, !old) {
			s.logger.Info("protection toggled", zap.Bool("enabled", !old))
			return !old
		}
	}
}

// Run consumes the feed until the context is cancelled or the feed closes.
func (s *Service) Run(ctx context.Context) error {
	if err := s.source.Start(); err != nil {
		return fmt.Errorf("failed to start row source: %w", err)
	}
	defer s.source.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-s.source.Batches():
			if !ok {
				return nil
			}
			s.ProcessBatch(ctx, batch)
		}
	}
}

// ProcessBatch handles one observation callback's worth of rows. In batch
// mode the rows are fanned out concurrently and joined before returning;
// otherwise they are processed in delivery order.
func (s *Service) ProcessBatch(ctx context.Context, rows []core.Row) {
	if len(rows) == 0 {
		return
	}
	if s.settings.Get().BatchProcessing {
		var wg sync.WaitGroup
		for _, row := range rows {
			wg.Add(1)
			go func(r core.Row) {
				defer wg.Done()
				s.ProcessRow(ctx, r)
			}(row)
		}
		wg.Wait()
		return
	}
	for _, row := range rows {
		s.ProcessRow(ctx, row)
	}
}

// ScanNow re-walks the feed's current rows through the same pipeline.
// Already-processed rows are skipped by the idempotency guard. Returns
// the number of rows visited.
func (s *Service) ScanNow(ctx context.Context) (int, error) {
	rows, err := s.source.Snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to snapshot rows: %w", err)
	}

	visited := 0
	pending := make([]core.Row, 0, len(rows))
	for _, row := range rows {
		if row.Processed() || !row.Selectable() || !row.Visible() {
			continue
		}
		pending = append(pending, row)
		visited++
	}
	s.ProcessBatch(ctx, pending)
	s.logger.Info("manual scan completed", zap.Int("rows", visited))
	return visited, nil
}

// ProcessRow runs the full pipeline for a single row. The processed marker
// is set before any asynchronous work so a duplicate observation of the
// same row is a no-op.
func (s *Service) ProcessRow(ctx context.Context, row core.Row) {
	if !s.enabled.Load() {
		return
	}
	if row.Processed() {
		return
	}
	row.MarkProcessed()

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("row processing panicked: %v", r)
			s.logger.Error("row processing failed",
				zap.String("message_id", row.ID()),
				zap.Any("panic", r))
			s.stats.RecordError(msg, "process_row")
		}
	}()

	start := s.clock.Now()
	rec, err := s.extractor.Extract(row)
	if err != nil {
		s.logger.Debug("skipping row without extractable record",
			zap.String("message_id", row.ID()),
			zap.Error(err))
		return
	}

	cfg := s.settings.Get()
	score, fromCache := s.lookupScore(ctx, rec, cfg)

	s.logger.Debug("scored message",
		zap.String("sender", rec.Sender),
		zap.String("subject", rec.Subject),
		zap.Int("score", score),
		zap.Bool("from_cache", fromCache))

	if score >= cfg.Sensitivity {
		s.handleSpam(ctx, row, rec, score, cfg)
	}

	if cfg.AutoUnsubscribe {
		s.checkUnsubscribe(row, rec, cfg)
	}

	if cfg.AutoOrganize {
		s.organize(ctx, rec)
	}

	if tier, color, ok := s.scorer.Prioritize(rec); ok {
		row.Highlight(core.PriorityHighlight(tier, color))
		if lexicon.NotifyTiers[tier] && cfg.EnableNotifications {
			s.notifier.Notify(core.NoticeInfo,
				fmt.Sprintf("%s priority: %s", tier, rec.Subject))
		}
	}

	s.stats.RecordProcessed(s.clock.Now().Sub(start))
}

// lookupScore consults the fingerprint cache before falling back to the
// scorer. Cache misses store the computed score.
func (s *Service) lookupScore(ctx context.Context, rec *core.MessageRecord, cfg core.Settings) (int, bool) {
	if !cfg.EnableCaching {
		return s.scorer.Score(rec), false
	}

	fp := core.Fingerprint(rec)
	if entry, err := s.cache.Get(ctx, fp); err == nil {
		s.stats.RecordCacheHit()
		return entry.Score, true
	}
	s.stats.RecordCacheMiss()

	score := s.scorer.Score(rec)
	entry := &core.CacheEntry{
		Fingerprint: fp,
		Score:       score,
		ComputedAt:  s.clock.Now(),
	}
	if err := s.cache.Set(ctx, entry); err != nil {
		s.logger.Error("failed to cache score", zap.Error(err))
	}
	return score, false
}

func (s *Service) handleSpam(ctx context.Context, row core.Row, rec *core.MessageRecord, score int, cfg core.Settings) {
	s.stats.RecordSpam()

	if cfg.AutoDelete {
		s.deleteSpam(ctx, row, rec, score, cfg)
	} else {
		row.Highlight(core.SpamHighlight)
	}

	if cfg.EnableNotifications {
		s.notifier.Notify(core.NoticeWarning, "Spam detected: "+rec.Subject)
	}
}

func (s *Service) deleteSpam(ctx context.Context, row core.Row, rec *core.MessageRecord, score int, cfg core.Settings) {
	if err := s.trash.MoveToTrash(ctx, row); err != nil {
		s.logger.Error("failed to move row to trash",
			zap.String("message_id", rec.ID),
			zap.Error(err))
		s.stats.RecordError(err.Error(), "move_to_trash")
		return
	}
	s.stats.RecordDeletion()

	if !cfg.LogDeletions {
		return
	}
	entry := core.DeletionLog{
		ID:        rec.ID,
		Sender:    rec.Sender,
		Subject:   rec.Subject,
		Snippet:   rec.Snippet,
		Domain:    rec.Domain,
		SpamScore: score,
		DeletedAt: s.clock.Now(),
		Reason:    core.SpamReason(score),
	}
	if err := s.activity.AppendDeletion(ctx, entry); err != nil {
		s.logger.Error("failed to log deletion", zap.Error(err))
		s.stats.RecordError(err.Error(), "log_deletion")
	}
}

// checkUnsubscribe looks for an unsubscribe link in the row and schedules
// the follow after the configured delay. The timer is fire-and-forget: it
// still fires if autoUnsubscribe is switched off during the delay window.
func (s *Service) checkUnsubscribe(row core.Row, rec *core.MessageRecord, cfg core.Settings) {
	link := actions.FindUnsubscribeLink(row)
	if link == "" {
		return
	}

	if cfg.EnableNotifications {
		s.notifier.Notify(core.NoticeInfo, "Unsubscribe link found: "+rec.Sender)
	}

	s.clock.AfterFunc(cfg.UnsubscribeDelay, func() {
		s.Unsubscribe(context.Background(), row, rec, link)
	})
}

// Unsubscribe follows the link, logs the result, and notifies. Also invoked
// directly by the control surface's manualUnsubscribe action.
func (s *Service) Unsubscribe(ctx context.Context, row core.Row, rec *core.MessageRecord, link string) {
	if err := s.unsub.Unsubscribe(ctx, row, link); err != nil {
		s.logger.Error("failed to unsubscribe",
			zap.String("sender", rec.Sender),
			zap.Error(err))
		s.stats.RecordError(err.Error(), "unsubscribe")
		return
	}
	s.stats.RecordUnsubscribe()

	entry := core.UnsubscribeLog{
		ID:              rec.ID,
		Sender:          rec.Sender,
		Subject:         rec.Subject,
		Snippet:         rec.Snippet,
		Domain:          rec.Domain,
		UnsubscribeLink: link,
		Timestamp:       s.clock.Now(),
	}
	if err := s.activity.AppendUnsubscribe(ctx, entry); err != nil {
		s.logger.Error("failed to log unsubscribe", zap.Error(err))
		s.stats.RecordError(err.Error(), "log_unsubscribe")
	}

	if s.settings.Get().EnableNotifications {
		s.notifier.Notify(core.NoticeSuccess, "Unsubscribed from "+rec.Sender)
	}
}

func (s *Service) organize(ctx context.Context, rec *core.MessageRecord) {
	category := s.scorer.Categorize(rec)
	if category == lexicon.GeneralCategory {
		return
	}
	if err := s.organizer.Organize(ctx, rec, category); err != nil {
		s.logger.Error("failed to organize message",
			zap.String("message_id", rec.ID),
			zap.String("category", category),
			zap.Error(err))
		s.stats.RecordError(err.Error(), "organize")
		return
	}
	s.stats.RecordOrganize()
}

// ManualUnsubscribe finds the first current row from the given sender that
// carries an unsubscribe link and follows it immediately, skipping the
// configured delay. Reports whether a matching row was found.
func (s *Service) ManualUnsubscribe(ctx context.Context, sender string) (bool, error) {
	rows, err := s.source.Snapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to snapshot rows: %w", err)
	}

	for _, row := range rows {
		rec, err := s.extractor.Extract(row)
		if err != nil {
			continue
		}
		if !strings.EqualFold(rec.Sender, sender) {
			continue
		}
		link := actions.FindUnsubscribeLink(row)
		if link == "" {
			continue
		}
		s.Unsubscribe(ctx, row, rec, link)
		return true, nil
	}
	return false, nil
}

// ScanUnsubscribeLinks walks the current rows looking for unsubscribe
// links without scoring. Returns senders with at least one link.
func (s *Service) ScanUnsubscribeLinks(ctx context.Context) ([]string, error) {
	rows, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot rows: %w", err)
	}

	var senders []string
	for _, row := range rows {
		link := actions.FindUnsubscribeLink(row)
		if link == "" {
			continue
		}
		rec, err := s.extractor.Extract(row)
		if err != nil {
			continue
		}
		senders = append(senders, rec.Sender)
	}
	return senders, nil
}
