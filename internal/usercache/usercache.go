// Package usercache caches resolved Slack display names so repeated bulk
// runs do not re-fetch the same profiles.
package usercache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/swyang-dev/opskb/pkg/logging"
)

const keyPrefix = "opskb:user:"

// Cache maps user IDs to display names. Misses and backend failures both
// return ok=false; callers fall through to the API.
type Cache interface {
	Get(ctx context.Context, userID string) (string, bool)
	Set(ctx context.Context, userID, name string)
}

// RedisCache is a Redis-backed Cache with per-entry TTL. Backend errors are
// logged and treated as misses so an unavailable Redis never blocks a run.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if client == nil {
		panic("usercache: nil redis client")
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = logging.Default().Logger
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, userID string) (string, bool) {
	name, err := c.client.Get(ctx, keyPrefix+userID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("user cache read failed", "user", userID, "error", err)
		}
		return "", false
	}
	return name, true
}

func (c *RedisCache) Set(ctx context.Context, userID, name string) {
	if err := c.client.Set(ctx, keyPrefix+userID, name, c.ttl).Err(); err != nil {
		c.logger.Debug("user cache write failed", "user", userID, "error", err)
	}
}
