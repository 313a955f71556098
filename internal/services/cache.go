package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "cvscreen:record:"

// ResultCache stores successfully validated records keyed by the exact
// prompt that produced them.
type ResultCache interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// CacheKey hashes the inputs that fully determine a generation request.
func CacheKey(kind SchemaKind, model, prompt string) string {
	sum := sha256.Sum256([]byte(string(kind) + "\x00" + model + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}

type redisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisResultCache(client *redis.Client, ttl time.Duration) ResultCache {
	return &redisResultCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *redisResultCache) Get(ctx context.Context, key string, out any) (bool, error) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cached record: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode cached record: %w", err)
	}
	return true, nil
}

func (c *redisResultCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode record for cache: %w", err)
	}
	return c.client.Set(ctx, cacheKeyPrefix+key, data, c.ttl).Err()
}

type noopResultCache struct{}

// NewNoopResultCache is used when no cache address is configured.
func NewNoopResultCache() ResultCache {
	return noopResultCache{}
}

func (noopResultCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (noopResultCache) Set(context.Context, string, any) error         { return nil }
