package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/snake-arena/internal/config"
	"github.com/snake-arena/internal/domain"
)

// Cache keeps pre-ranked leaderboard pages in Redis so the public read
// path does not hit PostgreSQL on every request. Pages are stored as
// the JSON-serialized top slice per mode (plus one page across all
// modes), which preserves the store's tie-break ordering exactly;
// entries are written in ranked order and served back verbatim.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache connects to Redis and verifies the connection.
func NewCache(cfg *config.RedisConfig, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// PageKey returns the cache key for a mode's ranked page. An empty
// mode addresses the page spanning all modes.
func PageKey(mode string) string {
	if mode == "" {
		mode = "all"
	}
	return fmt.Sprintf("leaderboard:%s:top", mode)
}

// TopPage returns the cached ranked page for a mode. The second return
// value is false on a cache miss; corrupt pages are treated as misses
// and dropped.
func (c *Cache) TopPage(ctx context.Context, mode string) ([]domain.LeaderboardEntry, bool) {
	data, err := c.client.Get(ctx, PageKey(mode)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("leaderboard cache read failed", "mode", mode, "error", err)
		}
		return nil, false
	}

	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Warn("dropping corrupt leaderboard page", "mode", mode, "error", err)
		c.client.Del(ctx, PageKey(mode))
		return nil, false
	}
	return entries, true
}

// SetTopPage stores a ranked page for a mode.
func (c *Cache) SetTopPage(ctx context.Context, mode string, entries []domain.LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling page: %w", err)
	}
	if err := c.client.Set(ctx, PageKey(mode), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("storing page: %w", err)
	}
	return nil
}

// Invalidate drops the pages a new submission in the given mode makes
// stale: the mode's own page and the all-modes page.
func (c *Cache) Invalidate(ctx context.Context, mode domain.GameMode) error {
	pipe := c.client.Pipeline()
	pipe.Del(ctx, PageKey(string(mode)))
	pipe.Del(ctx, PageKey(""))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidating pages: %w", err)
	}
	return nil
}
