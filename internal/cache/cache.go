// Package cache holds a small Redis-backed cache for finished lookup
// results. It sits in the transport layer; the lookup core stays pure and
// never sees it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/curbside/internal/model"
)

// LookupCache caches lookup results keyed by coordinate and civil date.
// Results change at most daily (the schedule is calendar-driven), so the
// date is part of the key and entries expire on a short TTL.
type LookupCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects a LookupCache to Redis.
func New(addr, password string, db int, ttl time.Duration) *LookupCache {
	return &LookupCache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

// Key builds the cache key for a query point on a given civil date.
// Coordinates are rounded to 5 decimal places (roughly a meter), so nearby
// repeat queries from the same parked car hit the same entry.
func Key(p model.Point, day time.Time) string {
	return fmt.Sprintf("lookup:%.5f:%.5f:%s", p.Latitude, p.Longitude, day.Format("2006-01-02"))
}

// Get returns the cached result for key, or ok=false on a miss. Transport
// errors are logged and treated as misses; the cache never fails a lookup.
func (c *LookupCache) Get(ctx context.Context, key string) (model.LookupResult, bool) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !eris.Is(err, redis.Nil) {
			zap.L().Warn("cache: get failed", zap.String("key", key), zap.Error(err))
		}
		return model.LookupResult{}, false
	}

	var res model.LookupResult
	if err := json.Unmarshal(data, &res); err != nil {
		zap.L().Warn("cache: corrupt entry", zap.String("key", key), zap.Error(err))
		return model.LookupResult{}, false
	}
	return res, true
}

// Set stores a result under key with the cache TTL. Failures are logged
// and ignored.
func (c *LookupCache) Set(ctx context.Context, key string, res model.LookupResult) {
	data, err := json.Marshal(res)
	if err != nil {
		zap.L().Warn("cache: marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		zap.L().Warn("cache: set failed", zap.String("key", key), zap.Error(err))
	}
}

// Ping verifies connectivity at startup.
func (c *LookupCache) Ping(ctx context.Context) error {
	return eris.Wrap(c.rdb.Ping(ctx).Err(), "cache: ping")
}

// Close releases the client.
func (c *LookupCache) Close() error {
	return c.rdb.Close()
}
