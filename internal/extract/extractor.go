// Package extract reads normalized message records off rendered rows.
package extract

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/core"
)

// Selector fallback chains, tried in order until one yields text. The keys
// mirror the provider's rendered attributes.
var (
	senderSelectors  = []string{"data-tooltip", "email"}
	subjectSelectors = []string{"data-thread-perm-id", "bog", "gridcell"}
	snippetSelectors = []string{"bog", "data-thread-perm-id"}
)

var domainPattern = regexp.MustCompile(`@([^>]+)`)

// RowExtractor extracts MessageRecords from rows using fallback selector
// chains. Sender is mandatory; subject and snippet default to empty.
type RowExtractor struct {
	logger *zap.Logger
	clock  core.Clock
}

// NewRowExtractor creates a new row extractor.
func NewRowExtractor(logger *zap.Logger, clock core.Clock) *RowExtractor {
	return &RowExtractor{logger: logger, clock: clock}
}

// Extract reads sender, subject, snippet, and id off a row. It fails closed
// with ErrNoSender when no sender can be found, since both scoring and
// cache keying require one.
func (e *RowExtractor) Extract(row core.Row) (*core.MessageRecord, error) {
	sender := firstMatch(row, senderSelectors)
	if sender == "" {
		e.logger.Debug("no sender element found", zap.String("row_id", row.ID()))
		return nil, core.ErrNoSender
	}

	subject := firstMatch(row, subjectSelectors)
	snippet := firstMatch(row, snippetSelectors)

	id := row.ID()
	if id == "" {
		id = uuid.NewString()
	}

	return &core.MessageRecord{
		ID:        id,
		Sender:    strings.TrimSpace(sender),
		Subject:   strings.TrimSpace(subject),
		Snippet:   strings.TrimSpace(snippet),
		Domain:    ExtractDomain(sender),
		Timestamp: e.clock.Now(),
	}, nil
}

// ExtractDomain returns the lowercased substring after "@" up to the next
// ">" or end of string, or "" when the sender carries no address.
func ExtractDomain(sender string) string {
	m := domainPattern.FindStringSubmatch(sender)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

func firstMatch(row core.Row, selectors []string) string {
	for _, sel := range selectors {
		if v := row.Lookup(sel); v != "" {
			return v
		}
	}
	return ""
}
