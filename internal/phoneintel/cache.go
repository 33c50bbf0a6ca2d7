package phoneintel

import (
	"context"
	"encoding/json"
	"time"

	"caller-agent/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisValidationCache caches upstream validation responses keyed by phone
// number. The upstream is a metered API and a single call flow checks the
// same number twice (spam check, then caller lookup), so even a short TTL
// halves spend.
//
// All failures degrade to a miss. The cache must never make a lookup fail.
type RedisValidationCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisValidationCache(rdb *redis.Client, ttl time.Duration) *RedisValidationCache {
	return &RedisValidationCache{rdb: rdb, ttl: ttl}
}

func cacheKey(phoneNumber string) string {
	return "phoneintel:num:" + phoneNumber
}

func (c *RedisValidationCache) Get(ctx context.Context, phoneNumber string) (Validation, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(phoneNumber)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.From(ctx).Debug("validation cache read failed", "err", err)
		}
		return Validation{}, false
	}

	var v Validation
	if err := json.Unmarshal(raw, &v); err != nil {
		// Stale or corrupt entry; treat as a miss.
		return Validation{}, false
	}
	return v, true
}

func (c *RedisValidationCache) Put(ctx context.Context, phoneNumber string, v Validation) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(phoneNumber), raw, c.ttl).Err(); err != nil {
		logger.From(ctx).Debug("validation cache write failed", "err", err)
	}
}
