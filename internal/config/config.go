package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/inbox-sentinel/")
	v.AddConfigPath("$HOME/.inbox-sentinel")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("SENTINEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Feed defaults
	v.SetDefault("feed.type", "replay")
	v.SetDefault("feed.replay_path", "./configs/inbox.json")
	v.SetDefault("feed.batch_size", 10)
	v.SetDefault("feed.imap.host", "localhost")
	v.SetDefault("feed.imap.port", "993")
	v.SetDefault("feed.imap.username", "")
	v.SetDefault("feed.imap.password", "")
	v.SetDefault("feed.imap.tls", true)
	v.SetDefault("feed.imap.mailbox", "INBOX")
	v.SetDefault("feed.imap.poll_interval", "1m")
	v.SetDefault("feed.imap.fetch_limit", 50)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("cache.ttl", "0")
	v.SetDefault("cache.cleanup_frequency", "5m")
	v.SetDefault("cache.sqlite_path", "/data/score_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/inbox_sentinel")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	// Activity log defaults
	v.SetDefault("activity.store", "sqlite")
	v.SetDefault("activity.sqlite_path", "/data/activity.db")
	v.SetDefault("activity.max_deletions", 100)
	v.SetDefault("activity.max_unsubscribes", 50)

	// Settings repository defaults
	v.SetDefault("settings.repository", "memory")
	v.SetDefault("settings.redis_addr", "localhost:6379")
	v.SetDefault("settings.redis_password", "")
	v.SetDefault("settings.redis_db", 0)

	// Control surface defaults
	v.SetDefault("control.listen_address", "0.0.0.0:8025")

	// Analytics defaults
	v.SetDefault("analytics.flush_interval", "1m")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	s := c.GetString(key)
	if s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
