package phoneintel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ErrSecretUnavailable means the upstream API key could not be obtained:
// the secret store was unreachable, the secret is missing, or the blob does
// not carry an api_key field. Callers must not swallow this.
var ErrSecretUnavailable = errors.New("phoneintel: secret unavailable")

// SecretSource fetches a raw secret blob by name.
type SecretSource interface {
	FetchSecret(ctx context.Context, name string) (string, error)
}

// RedisSecretSource reads secrets stored as plain Redis values.
// The value is expected to be the JSON blob written by the provisioning side.
type RedisSecretSource struct {
	rdb *redis.Client
}

func NewRedisSecretSource(rdb *redis.Client) *RedisSecretSource {
	return &RedisSecretSource{rdb: rdb}
}

func (s *RedisSecretSource) FetchSecret(ctx context.Context, name string) (string, error) {
	v, err := s.rdb.Get(ctx, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%w: secret %q not found", ErrSecretUnavailable, name)
		}
		return "", fmt.Errorf("%w: %v", ErrSecretUnavailable, err)
	}
	return v, nil
}

// KeySource yields the upstream API key.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// CachedKeySource fetches the API key once and memoizes it for the process
// lifetime. There is no TTL and no invalidation; key rotation is handled by
// restarting the process. A failed fetch is not cached, so the next request
// retries.
type CachedKeySource struct {
	src  SecretSource
	name string

	mu  sync.Mutex
	key string
}

func NewCachedKeySource(src SecretSource, secretName string) *CachedKeySource {
	return &CachedKeySource{src: src, name: secretName}
}

func (c *CachedKeySource) APIKey(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key != "" {
		return c.key, nil
	}

	raw, err := c.src.FetchSecret(ctx, c.name)
	if err != nil {
		return "", err
	}

	var blob struct {
		APIKey string `json:"api_key"`
	}
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return "", fmt.Errorf("%w: secret %q is not valid JSON", ErrSecretUnavailable, c.name)
	}
	if blob.APIKey == "" {
		return "", fmt.Errorf("%w: secret %q has no api_key field", ErrSecretUnavailable, c.name)
	}

	c.key = blob.APIKey
	return c.key, nil
}
