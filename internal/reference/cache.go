package reference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultCacheTTL = 10 * time.Minute

// RedisCache keeps option lists as JSON under "<prefix>:<kind>".
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(kind Kind) string {
	return c.prefix + ":" + string(kind)
}

func (c *RedisCache) Get(ctx context.Context, kind Kind) ([]Option, bool, error) {
	raw, err := c.client.Get(ctx, c.key(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("getting %s: %w", c.key(kind), err)
	}

	var opts []Option
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, false, fmt.Errorf("decoding %s: %w", c.key(kind), err)
	}

	return opts, true, nil
}

func (c *RedisCache) Set(ctx context.Context, kind Kind, opts []Option) error {
	raw, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", c.key(kind), err)
	}

	if err := c.client.Set(ctx, c.key(kind), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("setting %s: %w", c.key(kind), err)
	}

	return nil
}

func (c *RedisCache) Delete(ctx context.Context, kind Kind) error {
	if err := c.client.Del(ctx, c.key(kind)).Err(); err != nil {
		return fmt.Errorf("deleting %s: %w", c.key(kind), err)
	}

	return nil
}
