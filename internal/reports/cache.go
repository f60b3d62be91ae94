package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "reports:version"

// Cache wraps Redis based report caching with a global version for
// invalidation. A nil cache (or nil client) degrades to calling the loader
// directly, and so does any Redis I/O failure: the loader result serves the
// request and the cache error is only logged. The engine never needs Redis
// to answer a report.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache instantiates the cache helper. logger may be nil.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func (c *Cache) warn(msg string, err error) {
	if c == nil || c.logger == nil {
		return
	}
	c.logger.Warn(msg, slog.Any("error", err))
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes the cache key with the current version. When the version
// lookup fails the plain key comes back and the entry rides on its TTL alone.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) string {
	joined := strings.Join(parts, ":")
	if c == nil || c.client == nil {
		return joined
	}
	ver, err := c.Version(ctx)
	if err != nil {
		c.warn("report cache version", err)
		return joined
	}
	return fmt.Sprintf("%s:%d", joined, ver)
}

// FetchJSON returns the cached payload for key, or builds it with the loader
// and stores it. The marshalled bytes come back either way, so cached and
// fresh responses are byte-identical. Cache reads and writes that fail fall
// through to the loader; only loader errors fail the request.
func (c *Cache) FetchJSON(ctx context.Context, key string, loader func(context.Context) (any, error)) ([]byte, error) {
	if loader == nil {
		return nil, errors.New("reports: cache loader required")
	}
	if c != nil && c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return payload, nil
		}
		if err != redis.Nil {
			c.warn("report cache read", err)
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if c != nil && c.client != nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.warn("report cache write", err)
		}
	}
	return raw, nil
}

// Bump invalidates every cached report by incrementing the global version.
// Voucher posting and year close call this after commit.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}
