package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/adapters/feed"
	"github.com/calder/inbox-sentinel/internal/config"
	"github.com/calder/inbox-sentinel/internal/core"
)

// FeedFactory creates row sources based on configuration
type FeedFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFeedFactory creates a new feed factory
func NewFeedFactory(cfg *config.Config, logger *zap.Logger) *FeedFactory {
	return &FeedFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateRowSource creates a row source based on the configuration
func (f *FeedFactory) CreateRowSource() (core.RowSource, error) {
	feedCfg, err := f.cfg.GetFeed()
	if err != nil {
		return nil, fmt.Errorf("invalid feed configuration: %w", err)
	}

	switch feedCfg.Type {
	case "replay":
		return feed.NewReplayFeed(feedCfg.ReplayPath, feedCfg.BatchSize, f.logger)
	case "imap":
		imapCfg, err := f.cfg.GetIMAP()
		if err != nil {
			return nil, fmt.Errorf("invalid IMAP configuration: %w", err)
		}
		return feed.NewIMAPFeed(feed.IMAPConfig{
			Host:         imapCfg.Host,
			Port:         imapCfg.Port,
			Username:     imapCfg.Username,
			Password:     imapCfg.Password,
			TLS:          imapCfg.TLS,
			Mailbox:      imapCfg.Mailbox,
			PollInterval: imapCfg.PollInterval,
			FetchLimit:   imapCfg.FetchLimit,
		}, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported feed type: %s", feedCfg.Type)
	}
}
