// Package scoring implements the heuristic spam scoring, categorization, and
// prioritization engine. All three entry points are pure functions of the
// message record and the lexicon; they never touch shared state and are safe
// to compute redundantly.
package scoring

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/calder/inbox-sentinel/internal/core"
	"github.com/calder/inbox-sentinel/internal/lexicon"
)

var (
	moneyPattern     = regexp.MustCompile(`\d+%|\$\d+|\d+\.\d{2}`)
	randomRunPattern = regexp.MustCompile(`[a-z]{10,}|[0-9]{8,}`)
)

const (
	capsRatioMin      = 0.7
	capsMinTextLength = 10
)

// HeuristicScorer scores messages by additive keyword and pattern matching.
type HeuristicScorer struct{}

// NewHeuristicScorer creates a new heuristic scorer.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

// Score computes the integer spam score for a record. The score is a pure
// sum of keyword, marker, sender, and text-pattern contributions and is
// always non-negative.
func (s *HeuristicScorer) Score(rec *core.MessageRecord) int {
	rawText := rec.Subject + " " + rec.Snippet
	text := strings.ToLower(rawText)
	sender := strings.ToLower(rec.Sender)

	score := 0

	for _, kw := range lexicon.SpamKeywords {
		if strings.Contains(text, kw) {
			score += lexicon.SpamKeywordWeight
		}
	}
	for _, marker := range lexicon.SponsoredMarkers {
		if strings.Contains(text, marker) {
			score += lexicon.SponsoredMarkerWeight
		}
	}
	for _, word := range lexicon.UrgencyWords {
		if strings.Contains(text, word) {
			score += lexicon.UrgencyWordWeight
		}
	}

	if isKnownSpamSender(sender, rec.Domain) {
		score += lexicon.SpamSenderBonus
	}

	score += textPatternScore(rawText, text)
	score += senderPatternScore(sender)

	return score
}

// isKnownSpamSender reports whether the sender's domain or the sender string
// itself matches a known bulk-mail fragment.
func isKnownSpamSender(sender, domain string) bool {
	for _, frag := range lexicon.SpamDomainFragments {
		if domain != "" && strings.Contains(domain, frag) {
			return true
		}
	}
	for _, frag := range lexicon.SpamSenderFragments {
		if strings.Contains(sender, frag) {
			return true
		}
	}
	return false
}

// textPatternScore scores punctuation pressure, shouting, and price spam.
// The caps ratio is computed over letters of the original-cased text.
func textPatternScore(rawText, loweredText string) int {
	score := 0

	if strings.Count(loweredText, "!") > 2 {
		score++
	}
	if strings.Count(loweredText, "?") > 3 {
		score++
	}

	letters, uppers := 0, 0
	for _, r := range rawText {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	if letters > 0 && len(rawText) > capsMinTextLength {
		if float64(uppers)/float64(letters) > capsRatioMin {
			score += 2
		}
	}

	if len(moneyPattern.FindAllString(loweredText, -1)) > 2 {
		score++
	}

	return score
}

// senderPatternScore flags machine-generated and throwaway sender addresses.
func senderPatternScore(sender string) int {
	score := 0
	if randomRunPattern.MatchString(sender) {
		score += lexicon.RandomSenderBonus
	}
	for _, frag := range lexicon.SuspiciousSenderFragments {
		if strings.Contains(sender, frag) {
			score += lexicon.SuspiciousSenderBonus
			break
		}
	}
	return score
}

// Categorize assigns a record to the category with the strictly highest
// accumulated keyword/domain score, or "general" when no category reaches
// the threshold. Ties break toward the first declared category.
func (s *HeuristicScorer) Categorize(rec *core.MessageRecord) string {
	text := strings.ToLower(rec.Subject + " " + rec.Snippet)
	sender := strings.ToLower(rec.Sender)

	best := ""
	bestScore := 0
	for _, cat := range lexicon.Categories {
		score := 0
		for _, kw := range cat.Keywords {
			if strings.Contains(text, kw) {
				score += lexicon.CategoryKeywordWeight
			}
		}
		for _, frag := range cat.Domains {
			if strings.Contains(rec.Domain, frag) || strings.Contains(sender, frag) {
				score += lexicon.CategoryDomainWeight
			}
		}
		if score > bestScore {
			bestScore = score
			best = cat.Name
		}
	}

	if bestScore < lexicon.CategoryThreshold {
		return lexicon.GeneralCategory
	}
	return best
}

// Prioritize assigns a record to the priority tier with the highest
// accumulated score, returning its name and display color. The important-
// sender and time-sensitive boosts apply to every tier; ok is false when no
// tier reaches the threshold. Ties break toward the first declared tier.
func (s *HeuristicScorer) Prioritize(rec *core.MessageRecord) (string, string, bool) {
	text := strings.ToLower(rec.Subject + " " + rec.Snippet)
	sender := strings.ToLower(rec.Sender)

	important := containsAny(sender, lexicon.ImportantSenderFragments)
	timeSensitive := containsAny(text, lexicon.TimeSensitivePhrases)

	bestTier := ""
	bestColor := ""
	bestScore := 0
	for _, tier := range lexicon.PriorityTiers {
		score := 0
		for _, kw := range tier.Keywords {
			if strings.Contains(text, kw) {
				score += tier.Base
			}
		}
		if important {
			score += lexicon.ImportantSenderBonus
		}
		if timeSensitive {
			score += lexicon.TimeSensitiveBonus
		}
		if score > bestScore {
			bestScore = score
			bestTier = tier.Name
			bestColor = tier.Color
		}
	}

	if bestScore < lexicon.PriorityThreshold {
		return "", "", false
	}
	return bestTier, bestColor, true
}

func containsAny(s string, fragments []string) bool {
	for _, frag := range fragments {
		if strings.Contains(s, frag) {
			return true
		}
	}
	return false
}
