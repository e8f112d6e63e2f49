package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenCachePrefix = "auth:token:"

// TokenCache maps token keys to user ids.
type TokenCache interface {
	Get(ctx context.Context, key string) (uint, bool, error)
	Set(ctx context.Context, key string, userID uint, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type RedisTokenCache struct {
	client *redis.Client
}

func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

func (c *RedisTokenCache) Get(ctx context.Context, key string) (uint, bool, error) {
	id, err := c.client.Get(ctx, tokenCachePrefix+key).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return uint(id), true, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, key string, userID uint, ttl time.Duration) error {
	return c.client.Set(ctx, tokenCachePrefix+key, uint64(userID), ttl).Err()
}

func (c *RedisTokenCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, tokenCachePrefix+key).Err()
}
