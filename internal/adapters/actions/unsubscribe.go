package actions

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/core"
	"github.com/calder/inbox-sentinel/internal/lexicon"
)

// FindUnsubscribeLink returns the first link in the row whose href matches
// a known unsubscribe fragment, "" when none matches.
func FindUnsubscribeLink(row core.Row) string {
	for _, href := range row.Links() {
		lowered := strings.ToLower(href)
		for _, fragment := range lexicon.UnsubscribeFragments {
			if strings.Contains(lowered, fragment) {
				return href
			}
		}
	}
	return ""
}

// SimUnsubscriber simulates following an unsubscribe link. No request is
// made; the follow is logged and reported as completed.
type SimUnsubscriber struct {
	logger *zap.Logger
}

// NewSimUnsubscriber creates a simulated unsubscriber.
func NewSimUnsubscriber(logger *zap.Logger) *SimUnsubscriber {
	return &SimUnsubscriber{logger: logger}
}

func (u *SimUnsubscriber) Unsubscribe(ctx context.Context, row core.Row, link string) error {
	if link == "" {
		return fmt.Errorf("row %s has no unsubscribe link", row.ID())
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u.logger.Info("followed unsubscribe link",
		zap.String("message_id", row.ID()),
		zap.String("link", link),
	)
	return nil
}
