package extract

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/adapters/feed"
	"github.com/calder/inbox-sentinel/internal/core"
)

func TestExtract(t *testing.T) {
	e := NewRowExtractor(zap.NewNop(), core.SystemClock{})

	t.Run("full row", func(t *testing.T) {
		row := feed.NewSimRow("id-1", map[string]string{
			"data-tooltip":        " Jane <jane@corp.com> ",
			"data-thread-perm-id": "Quarterly Report",
			"bog":                 "numbers attached",
		}, nil)

		rec, err := e.Extract(row)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if rec.ID != "id-1" {
			t.Errorf("ID = %q, want id-1", rec.ID)
		}
		if rec.Sender != "Jane <jane@corp.com>" {
			t.Errorf("Sender = %q, want trimmed tooltip", rec.Sender)
		}
		if rec.Subject != "Quarterly Report" {
			t.Errorf("Subject = %q", rec.Subject)
		}
		if rec.Domain != "corp.com" {
			t.Errorf("Domain = %q, want corp.com", rec.Domain)
		}
	})

	t.Run("missing sender fails closed", func(t *testing.T) {
		row := feed.NewSimRow("id-2", map[string]string{
			"data-thread-perm-id": "No Sender Here",
		}, nil)

		_, err := e.Extract(row)
		if !errors.Is(err, core.ErrNoSender) {
			t.Errorf("Extract() error = %v, want ErrNoSender", err)
		}
	})

	t.Run("secondary sender selector", func(t *testing.T) {
		row := feed.NewSimRow("id-3", map[string]string{
			"email": "fallback@x.com",
		}, nil)

		rec, err := e.Extract(row)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if rec.Sender != "fallback@x.com" {
			t.Errorf("Sender = %q, want fallback selector value", rec.Sender)
		}
		if rec.Subject != "" || rec.Snippet != "" {
			t.Errorf("optional fields = (%q, %q), want empty", rec.Subject, rec.Snippet)
		}
	})

	t.Run("empty row id gets generated", func(t *testing.T) {
		row := feed.NewSimRow("", map[string]string{
			"data-tooltip": "a@b.com",
		}, nil)

		rec, err := e.Extract(row)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if rec.ID == "" {
			t.Error("ID is empty, want generated id")
		}
	})
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		sender string
		want   string
	}{
		{"jane@corp.com", "corp.com"},
		{"Jane Doe <jane@Corp.COM>", "corp.com"},
		{"no address here", ""},
		{"", ""},
		{"double@at@x.com", "at@x.com"},
	}

	for _, tt := range tests {
		if got := ExtractDomain(tt.sender); got != tt.want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tt.sender, got, tt.want)
		}
	}
}
