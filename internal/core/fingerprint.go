package core

import (
	"golang.org/x/text/cases"
)

var fold = cases.Fold()

// Fingerprint derives the cache key for a record from its sender and subject.
// Both parts are Unicode case-folded so that re-renders of the same message
// with different casing hit the same entry.
func Fingerprint(rec *MessageRecord) string {
	return fold.String(rec.Sender) + ":" + fold.String(rec.Subject)
}
