package feed

import (
	"sync"

	"github.com/calder/inbox-sentinel/internal/core"
)

// SimRow is an in-memory message row backed by a selector-to-text map.
// It implements core.Row for the replay feed, the IMAP feed, and tests.
type SimRow struct {
	mu         sync.Mutex
	id         string
	fields     map[string]string
	links      []string
	selectable bool
	visible    bool
	processed  bool
	highlights []core.HighlightStyle
}

// NewSimRow creates a selectable, visible row with the given fields.
func NewSimRow(id string, fields map[string]string, links []string) *SimRow {
	if fields == nil {
		fields = make(map[string]string)
	}
	return &SimRow{
		id:         id,
		fields:     fields,
		links:      links,
		selectable: true,
		visible:    true,
	}
}

func (r *SimRow) ID() string { return r.id }

func (r *SimRow) Lookup(selector string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fields[selector]
}

func (r *SimRow) Links() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.links...)
}

func (r *SimRow) Selectable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selectable
}

func (r *SimRow) Visible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

func (r *SimRow) Processed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processed
}

func (r *SimRow) MarkProcessed() {
	r.mu.Lock()
	r.processed = true
	r.mu.Unlock()
}

func (r *SimRow) Highlight(style core.HighlightStyle) {
	r.mu.Lock()
	r.highlights = append(r.highlights, style)
	r.mu.Unlock()
}

// Highlights returns the styles applied so far, in order.
func (r *SimRow) Highlights() []core.HighlightStyle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.HighlightStyle(nil), r.highlights...)
}

// SetSelectable overrides the selection-control flag, for tests.
func (r *SimRow) SetSelectable(v bool) {
	r.mu.Lock()
	r.selectable = v
	r.mu.Unlock()
}

// SetVisible overrides the rendered-height flag, for tests.
func (r *SimRow) SetVisible(v bool) {
	r.mu.Lock()
	r.visible = v
	r.mu.Unlock()
}
