package core

import (
	"time"
)

// MessageRecord is the normalized view of one rendered message row. It is
// immutable once produced by the extractor; Domain is derived from Sender
// and is empty when no address could be recognized.
type MessageRecord struct {
	ID        string
	Sender    string
	Subject   string
	Snippet   string
	Domain    string
	Timestamp time.Time
}

// CacheEntry is one cached score keyed by message fingerprint.
type CacheEntry struct {
	Fingerprint string
	Score       int
	ComputedAt  time.Time
}

// Settings is the flat runtime configuration record shared across surfaces.
// Updates are last-writer-wins; readers may briefly observe stale values
// between an update and its propagation.
type Settings struct {
	AutoDelete          bool          `json:"autoDelete"`
	LogDeletions        bool          `json:"logDeletions"`
	Sensitivity         int           `json:"sensitivity"`
	AutoUnsubscribe     bool          `json:"autoUnsubscribe"`
	UnsubscribeDelay    time.Duration `json:"unsubscribeDelay"`
	EnableCaching       bool          `json:"enableCaching"`
	EnableNotifications bool          `json:"enableNotifications"`
	BatchProcessing     bool          `json:"batchProcessing"`
	AutoOrganize        bool          `json:"autoOrganize"`
	RealTimeProtection  bool          `json:"realTimeProtection"`
}

// DefaultSettings returns the settings used until a persisted record is loaded.
func DefaultSettings() Settings {
	return Settings{
		AutoDelete:          false,
		LogDeletions:        true,
		Sensitivity:         3,
		AutoUnsubscribe:     true,
		UnsubscribeDelay:    2 * time.Second,
		EnableCaching:       true,
		EnableNotifications: true,
		BatchProcessing:     true,
		AutoOrganize:        false,
		RealTimeProtection:  true,
	}
}

// DeletionLog records one (simulated) move-to-trash of a spam message.
type DeletionLog struct {
	ID        string    `json:"id" db:"message_id"`
	Sender    string    `json:"sender" db:"sender"`
	Subject   string    `json:"subject" db:"subject"`
	Snippet   string    `json:"snippet" db:"snippet"`
	Domain    string    `json:"domain" db:"domain"`
	SpamScore int       `json:"spamScore" db:"spam_score"`
	DeletedAt time.Time `json:"deletedAt" db:"deleted_at"`
	Reason    string    `json:"reason" db:"reason"`
}

// UnsubscribeLog records one (simulated) unsubscribe-link follow.
type UnsubscribeLog struct {
	ID              string    `json:"id" db:"message_id"`
	Sender          string    `json:"sender" db:"sender"`
	Subject         string    `json:"subject" db:"subject"`
	Snippet         string    `json:"snippet" db:"snippet"`
	Domain          string    `json:"domain" db:"domain"`
	UnsubscribeLink string    `json:"unsubscribeLink" db:"unsubscribe_link"`
	Timestamp       time.Time `json:"timestamp" db:"logged_at"`
}

// SpamReason derives the human-readable reason string stored with a deletion.
func SpamReason(score int) string {
	reasons := make([]string, 0, 4)
	if score >= 8 {
		reasons = append(reasons, "High spam score")
	}
	if score >= 6 {
		reasons = append(reasons, "Multiple spam indicators")
	}
	if score >= 4 {
		reasons = append(reasons, "Suspicious content")
	}
	if score >= 2 {
		reasons = append(reasons, "Spam keywords detected")
	}
	if len(reasons) == 0 {
		return "Spam detected"
	}
	out := reasons[0]
	for _, r := range reasons[1:] {
		out += ", " + r
	}
	return out
}

// NoticeLevel classifies a transient banner notification.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// HighlightStyle describes the visual marker applied to a row.
type HighlightStyle struct {
	Background string
	Border     string
	Badge      string
}

// SpamHighlight is the style applied to rows flagged as spam.
var SpamHighlight = HighlightStyle{
	Background: "#ffebee",
	Border:     "#f44336",
	Badge:      "SPAM",
}

// PriorityHighlight builds the style for a priority tier color and name.
func PriorityHighlight(name, color string) HighlightStyle {
	return HighlightStyle{
		Background: color + "10",
		Border:     color,
		Badge:      name,
	}
}
