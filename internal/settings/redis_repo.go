package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/core"
)

const (
	settingsKey     = "sentinel:settings"
	settingsChannel = "sentinel:settings:changed"
)

// RedisRepository persists settings in Redis, the small replicated "sync"
// namespace shared by every surface. Saves publish the new record so other
// processes can follow changes.
type RedisRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisRepository creates a new Redis-backed settings repository.
func NewRedisRepository(addr, password string, db int, logger *zap.Logger) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRepository{client: client, logger: logger}, nil
}

// Load returns the persisted settings, ErrNotFound when none exist.
func (r *RedisRepository) Load(ctx context.Context) (*core.Settings, error) {
	raw, err := r.client.Get(ctx, settingsKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	var s core.Settings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &s, nil
}

// Save persists the settings and publishes the change.
func (r *RedisRepository) Save(ctx context.Context, s *core.Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := r.client.Set(ctx, settingsKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	if err := r.client.Publish(ctx, settingsChannel, raw).Err(); err != nil {
		r.logger.Warn("Failed to publish settings change", zap.Error(err))
	}
	return nil
}

// Watch subscribes to settings changes published by any process.
func (r *RedisRepository) Watch(ctx context.Context) (<-chan core.Settings, error) {
	sub := r.client.Subscribe(ctx, settingsChannel)
	out := make(chan core.Settings)

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var s core.Settings
				if err := json.Unmarshal([]byte(msg.Payload), &s); err != nil {
					r.logger.Warn("Ignoring malformed settings update", zap.Error(err))
					continue
				}
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close closes the Redis client.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}
