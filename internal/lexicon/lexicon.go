// Package lexicon holds the static word lists the heuristic engine matches
// against. The data is declaration-ordered: wherever two categories or tiers
// accumulate the same score, the one declared first wins, and that ordering
// is part of the engine's contract.
package lexicon

// Match weights used by the scorer.
const (
	SpamKeywordWeight     = 2
	SponsoredMarkerWeight = 3
	UrgencyWordWeight     = 1
	SpamSenderBonus       = 4
	SuspiciousSenderBonus = 3
	RandomSenderBonus     = 2
	CategoryKeywordWeight = 2
	CategoryDomainWeight  = 3
	ImportantSenderBonus  = 5
	TimeSensitiveBonus    = 3
	CategoryThreshold     = 2
	PriorityThreshold     = 5
)

// SpamKeywords are generic promotional phrases, matched case-insensitively
// as substrings of subject+snippet.
var SpamKeywords = []string{
	"sponsored", "advertisement", "promotion", "offer", "limited time",
	"act now", "click here", "unsubscribe", "special offer", "discount",
	"sale", "free trial", "exclusive deal", "urgent", "last chance",
	"limited offer", "one time", "flash sale", "clearance", "buy now",
	"order now", "limited quantity", "while supplies last", "expires soon",
}

// SponsoredMarkers strongly indicate paid or branded content and carry a
// higher weight than plain spam keywords.
var SponsoredMarkers = []string{
	"[ad]", "[sponsored]", "[promotion]", "[advertisement]", "[sponsored content]",
	"sponsored content", "paid partnership", "advertisement", "promoted post",
	"sponsored post", "paid content", "branded content", "sponsored by",
}

// UrgencyWords add mild pressure-tactic weight.
var UrgencyWords = []string{
	"urgent", "immediate", "now", "today only", "expires", "deadline",
	"limited time", "act fast", "don't miss", "last chance",
}

// SpamDomainFragments mark sender domains that are effectively always bulk mail.
var SpamDomainFragments = []string{
	"noreply", "donotreply", "no-reply", "marketing", "newsletter",
	"promotions", "offers", "deals", "sales", "ads", "spam",
}

// SpamSenderFragments are matched against the whole sender string.
var SpamSenderFragments = []string{
	"noreply", "donotreply", "no-reply", "marketing", "newsletter",
	"promotions", "offers", "deals", "sales", "ads", "spam",
	"notifications", "alerts", "updates", "news",
}

// SuspiciousSenderFragments hint at throwaway addresses.
var SuspiciousSenderFragments = []string{"temp", "test", "example", "fake"}

// Category is one keyword/domain bucket used for message categorization.
type Category struct {
	Name     string
	Keywords []string
	Domains  []string
}

// GeneralCategory is returned when no category accumulates enough score.
const GeneralCategory = "general"

// Categories in declared tie-break order.
var Categories = []Category{
	{
		Name:     "work",
		Keywords: []string{"meeting", "project", "deadline", "report", "presentation", "client", "business", "work", "office", "team"},
		Domains:  []string{"company.com", "corp.com", "business.com", "work.com"},
	},
	{
		Name:     "personal",
		Keywords: []string{"family", "friend", "personal", "home", "love", "dear", "mom", "dad", "sister", "brother"},
		Domains:  []string{"gmail.com", "yahoo.com", "hotmail.com"},
	},
	{
		Name:     "finance",
		Keywords: []string{"bank", "account", "payment", "invoice", "bill", "credit", "debit", "transaction", "balance", "statement"},
		Domains:  []string{"bank.com", "paypal.com", "stripe.com", "square.com"},
	},
	{
		Name:     "shopping",
		Keywords: []string{"order", "purchase", "shipping", "delivery", "tracking", "receipt", "confirmation", "amazon", "ebay", "etsy"},
		Domains:  []string{"amazon.com", "ebay.com", "etsy.com", "shop.com", "store.com"},
	},
	{
		Name:     "social",
		Keywords: []string{"facebook", "twitter", "instagram", "linkedin", "social", "post", "like", "follow", "share"},
		Domains:  []string{"facebook.com", "twitter.com", "instagram.com", "linkedin.com"},
	},
	{
		Name:     "travel",
		Keywords: []string{"flight", "hotel", "booking", "reservation", "travel", "trip", "vacation", "airline", "airbnb", "uber"},
		Domains:  []string{"booking.com", "airbnb.com", "uber.com", "lyft.com", "hotels.com"},
	},
	{
		Name:     "health",
		Keywords: []string{"doctor", "appointment", "medical", "health", "pharmacy", "prescription", "insurance", "hospital", "clinic"},
		Domains:  []string{"health.com", "medical.com", "pharmacy.com", "insurance.com"},
	},
	{
		Name:     "education",
		Keywords: []string{"course", "class", "assignment", "homework", "exam", "test", "grade", "school", "university", "college"},
		Domains:  []string{"edu", "school.com", "university.com", "college.com"},
	},
}

// PriorityTier is one priority bucket. Base is added once per keyword match;
// Color keys the highlight style applied to matching rows.
type PriorityTier struct {
	Name  string
	Base  int
	Color string

	Keywords []string
}

// PriorityTiers in declared tie-break order.
var PriorityTiers = []PriorityTier{
	{
		Name:     "urgent",
		Base:     10,
		Color:    "#ff4757",
		Keywords: []string{"urgent", "immediate", "emergency", "critical", "asap", "deadline", "important", "priority"},
	},
	{
		Name:     "work",
		Base:     8,
		Color:    "#3742fa",
		Keywords: []string{"meeting", "project", "deadline", "report", "presentation", "client", "boss", "manager"},
	},
	{
		Name:     "personal",
		Base:     7,
		Color:    "#ffa502",
		Keywords: []string{"family", "friend", "love", "dear", "mom", "dad", "sister", "brother", "birthday", "anniversary"},
	},
	{
		Name:     "finance",
		Base:     9,
		Color:    "#2ed573",
		Keywords: []string{"bank", "account", "payment", "invoice", "bill", "credit", "debit", "transaction", "balance"},
	},
	{
		Name:     "health",
		Base:     9,
		Color:    "#ff6348",
		Keywords: []string{"doctor", "appointment", "medical", "health", "pharmacy", "prescription", "insurance", "hospital"},
	},
}

// NotifyTiers are the tiers severe enough to raise a banner on match.
var NotifyTiers = map[string]bool{"urgent": true, "finance": true, "health": true}

// ImportantSenderFragments boost every tier when the sender matches.
var ImportantSenderFragments = []string{
	"boss", "manager", "ceo", "director", "president", "executive",
	"hr", "human.resources", "payroll", "accounting", "finance",
	"support", "help", "admin", "system", "noreply",
}

// TimeSensitivePhrases boost every tier when the text matches.
var TimeSensitivePhrases = []string{
	"today", "tomorrow", "this week", "this month", "deadline",
	"expires", "limited time", "act now", "urgent", "immediate",
}

// UnsubscribeFragments identify unsubscribe-style links by href or text.
var UnsubscribeFragments = []string{"unsubscribe", "opt-out", "remove"}
