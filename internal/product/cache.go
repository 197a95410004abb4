package product

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL keeps resolved products for a day; barcode-to-product
// mappings change rarely.
const DefaultCacheTTL = 24 * time.Hour

const cacheKeyPrefix = "scanbar:product:"

// CachedResolver is a read-through cache in front of another Resolver.
// Cache failures never fail a lookup; they fall through to the inner
// resolver. Only positive results are cached so a product added to the
// upstream database becomes visible immediately.
type CachedResolver struct {
	inner Resolver
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedResolver wraps inner with a Redis cache. A zero ttl selects
// DefaultCacheTTL.
func NewCachedResolver(inner Resolver, rdb *redis.Client, ttl time.Duration) *CachedResolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedResolver{inner: inner, rdb: rdb, ttl: ttl}
}

// Resolve returns the cached record when present, otherwise delegates and
// stores the result.
func (c *CachedResolver) Resolve(ctx context.Context, code string) (*Record, error) {
	key := cacheKeyPrefix + code

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var rec Record
		if uerr := json.Unmarshal(data, &rec); uerr == nil {
			return &rec, nil
		}
		// Unreadable entry; drop it and resolve fresh.
		c.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		slog.Debug("product cache read failed", "code", code, "error", err)
	}

	rec, err := c.inner.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	if data, merr := json.Marshal(rec); merr == nil {
		if serr := c.rdb.Set(ctx, key, data, c.ttl).Err(); serr != nil {
			slog.Debug("product cache write failed", "code", code, "error", serr)
		}
	}
	return rec, nil
}
