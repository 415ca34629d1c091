package config

import "time"

// FeedConfig represents the configuration for the row feed
type FeedConfig struct {
	Type       string
	ReplayPath string
	BatchSize  int
}

// IMAPConfig represents the configuration for the IMAP mailbox feed
type IMAPConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	TLS          bool
	Mailbox      string
	PollInterval time.Duration
	FetchLimit   int
}

// CacheConfig represents the configuration for the score cache
type CacheConfig struct {
	Type             string
	MaxEntries       int
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
}

// ActivityConfig represents the configuration for the activity log store
type ActivityConfig struct {
	Store           string
	SQLitePath      string
	MaxDeletions    int
	MaxUnsubscribes int
}

// SettingsConfig represents the configuration for the settings repository
type SettingsConfig struct {
	Repository    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// ControlConfig represents the configuration for the control surface
type ControlConfig struct {
	ListenAddress string
}

// AnalyticsConfig represents the configuration for analytics persistence
type AnalyticsConfig struct {
	FlushInterval time.Duration
}

// GetFeed returns the feed configuration
func (c *Config) GetFeed() (FeedConfig, error) {
	return FeedConfig{
		Type:       c.GetString("feed.type"),
		ReplayPath: c.GetString("feed.replay_path"),
		BatchSize:  c.GetInt("feed.batch_size"),
	}, nil
}

// GetIMAP returns the IMAP feed configuration
func (c *Config) GetIMAP() (IMAPConfig, error) {
	pollInterval, err := c.GetDuration("feed.imap.poll_interval")
	if err != nil {
		return IMAPConfig{}, err
	}
	return IMAPConfig{
		Host:         c.GetString("feed.imap.host"),
		Port:         c.GetString("feed.imap.port"),
		Username:     c.GetString("feed.imap.username"),
		Password:     c.GetString("feed.imap.password"),
		TLS:          c.GetBool("feed.imap.tls"),
		Mailbox:      c.GetString("feed.imap.mailbox"),
		PollInterval: pollInterval,
		FetchLimit:   c.GetInt("feed.imap.fetch_limit"),
	}, nil
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanupFrequency, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}
	return CacheConfig{
		Type:             c.GetString("cache.type"),
		MaxEntries:       c.GetInt("cache.max_entries"),
		TTL:              ttl,
		CleanupFrequency: cleanupFrequency,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
		RedisAddr:        c.GetString("cache.redis_addr"),
		RedisPassword:    c.GetString("cache.redis_password"),
		RedisDB:          c.GetInt("cache.redis_db"),
	}, nil
}

// GetActivity returns the activity log configuration
func (c *Config) GetActivity() ActivityConfig {
	return ActivityConfig{
		Store:           c.GetString("activity.store"),
		SQLitePath:      c.GetString("activity.sqlite_path"),
		MaxDeletions:    c.GetInt("activity.max_deletions"),
		MaxUnsubscribes: c.GetInt("activity.max_unsubscribes"),
	}
}

// GetSettings returns the settings repository configuration
func (c *Config) GetSettings() SettingsConfig {
	return SettingsConfig{
		Repository:    c.GetString("settings.repository"),
		RedisAddr:     c.GetString("settings.redis_addr"),
		RedisPassword: c.GetString("settings.redis_password"),
		RedisDB:       c.GetInt("settings.redis_db"),
	}
}

// GetControl returns the control surface configuration
func (c *Config) GetControl() ControlConfig {
	return ControlConfig{
		ListenAddress: c.GetString("control.listen_address"),
	}
}

// GetAnalytics returns the analytics configuration
func (c *Config) GetAnalytics() (AnalyticsConfig, error) {
	flushInterval, err := c.GetDuration("analytics.flush_interval")
	if err != nil {
		return AnalyticsConfig{}, err
	}
	return AnalyticsConfig{FlushInterval: flushInterval}, nil
}
