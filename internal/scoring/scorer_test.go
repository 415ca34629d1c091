package scoring

import (
	"testing"

	"github.com/calder/inbox-sentinel/internal/core"
	"github.com/calder/inbox-sentinel/internal/extract"
)

func record(sender, subject, snippet string) *core.MessageRecord {
	return &core.MessageRecord{
		Sender:  sender,
		Subject: subject,
		Snippet: snippet,
		Domain:  extract.ExtractDomain(sender),
	}
}

func TestScoreKnownMessages(t *testing.T) {
	scorer := NewHeuristicScorer()

	tests := []struct {
		name     string
		rec      *core.MessageRecord
		minScore int
		maxScore int
	}{
		{
			name: "marketing blast",
			rec: record(
				"spam@marketing.com",
				"🔥 LIMITED TIME OFFER! 50% OFF EVERYTHING! 🔥",
				"click here now to claim your exclusive deal. Limited time only",
			),
			minScore: 8,
			maxScore: 100,
		},
		{
			name: "plain work email",
			rec: record(
				"john.doe@company.com",
				"Meeting Tomorrow",
				"let's discuss the project updates",
			),
			minScore: 0,
			maxScore: 0,
		},
		{
			name: "newsletter promotion",
			rec: record(
				"promotions@newsletter.com",
				"Special Offer - Free Trial Available!!!",
				"",
			),
			minScore: 9,
			maxScore: 100,
		},
		{
			name:     "empty record",
			rec:      record("", "", ""),
			minScore: 0,
			maxScore: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.rec)
			if got < tt.minScore || got > tt.maxScore {
				t.Errorf("Score() = %d, want within [%d, %d]", got, tt.minScore, tt.maxScore)
			}
			if got < 0 {
				t.Errorf("Score() = %d, must be non-negative", got)
			}
		})
	}
}

func TestScoreDeterministic(t *testing.T) {
	scorer := NewHeuristicScorer()
	rec := record("promotions@newsletter.com", "Special Offer - Free Trial Available!!!", "act now")

	first := scorer.Score(rec)
	for i := 0; i < 10; i++ {
		if got := scorer.Score(rec); got != first {
			t.Fatalf("Score() = %d on repeat call, want %d", got, first)
		}
	}
}

func TestScoreSenderBonusAppliedOnce(t *testing.T) {
	scorer := NewHeuristicScorer()

	// Domain matches both "deals" and "offers" fragments; the flat sender
	// bonus must not stack.
	single := scorer.Score(record("x@deals.com", "hello", "plain message"))
	double := scorer.Score(record("x@deals-offers.com", "hello", "plain message"))
	if single != double {
		t.Errorf("sender bonus stacked: %d vs %d", single, double)
	}
}

func TestScoreTextPatterns(t *testing.T) {
	scorer := NewHeuristicScorer()

	tests := []struct {
		name string
		rec  *core.MessageRecord
		want int
	}{
		{
			name: "exclamation pressure",
			rec:  record("a@b.com", "hello!!! world", "nothing else at all"),
			want: 1,
		},
		{
			name: "shouting subject",
			rec:  record("a@b.com", "HELLO WORLD BIG NEWS", ""),
			want: 2,
		},
		{
			name: "price spam",
			rec:  record("a@b.com", "was 19.99 then 30% then $5", ""),
			want: 1,
		},
		{
			name: "short caps text gets no bonus",
			rec:  record("a@b.com", "HI ALL", ""),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scorer.Score(tt.rec); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreSenderPatterns(t *testing.T) {
	scorer := NewHeuristicScorer()

	if got := scorer.Score(record("abcdefghijklmnop@x.com", "hello", "plain text")); got != 2 {
		t.Errorf("random-run sender score = %d, want 2", got)
	}
	if got := scorer.Score(record("bob@temp-mail.org", "hello", "plain text")); got != 3 {
		t.Errorf("throwaway sender score = %d, want 3", got)
	}
}

func TestCategorize(t *testing.T) {
	scorer := NewHeuristicScorer()

	tests := []struct {
		name string
		rec  *core.MessageRecord
		want string
	}{
		{
			name: "no matches",
			rec:  record("a@b.com", "greetings", "nothing relevant here"),
			want: "general",
		},
		{
			name: "single keyword meets threshold",
			rec:  record("a@b.com", "the invoice", "attached"),
			want: "finance",
		},
		{
			name: "work by keywords and domain",
			rec:  record("john.doe@company.com", "Meeting Tomorrow", "let's discuss the project updates"),
			want: "work",
		},
		{
			name: "tie breaks to first declared",
			rec:  record("a@b.com", "meeting with family", ""),
			want: "work",
		},
		{
			name: "health keywords",
			rec:  record("appointments@clinic.com", "Appointment Reminder", "your prescription refill is ready"),
			want: "health",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scorer.Categorize(tt.rec); got != tt.want {
				t.Errorf("Categorize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrioritize(t *testing.T) {
	scorer := NewHeuristicScorer()

	tests := []struct {
		name     string
		rec      *core.MessageRecord
		wantTier string
		wantOK   bool
	}{
		{
			name:     "no signals",
			rec:      record("a@b.com", "greetings", "nothing relevant"),
			wantTier: "",
			wantOK:   false,
		},
		{
			name:     "work keywords win",
			rec:      record("john.doe@company.com", "Meeting Tomorrow", "let's discuss the project updates"),
			wantTier: "work",
			wantOK:   true,
		},
		{
			name:     "urgent keyword",
			rec:      record("a@b.com", "urgent: server down", ""),
			wantTier: "urgent",
			wantOK:   true,
		},
		{
			name:     "boosts alone stay below threshold",
			rec:      record("a@b.com", "see you tomorrow", "no tier keywords present"),
			wantTier: "",
			wantOK:   false,
		},
		{
			name:     "important sender boosts tier over threshold",
			rec:      record("boss@company.com", "bank", ""),
			wantTier: "finance",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, color, ok := scorer.Prioritize(tt.rec)
			if ok != tt.wantOK || tier != tt.wantTier {
				t.Errorf("Prioritize() = (%q, %q, %t), want tier %q ok %t", tier, color, ok, tt.wantTier, tt.wantOK)
			}
			if ok && color == "" {
				t.Error("Prioritize() returned empty color for matched tier")
			}
		})
	}
}
