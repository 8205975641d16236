package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisCache stores rates as JSON values with a Redis-side expiration, so the
// TTL holds across instances and restarts.
type redisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) Cache {
	return &redisCache{rdb: rdb}
}

func (c *redisCache) Get(ctx context.Context, from, to string) (Rate, bool, error) {
	val, err := c.rdb.Get(ctx, cacheKey(from, to)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Rate{}, false, nil
		}
		return Rate{}, false, fmt.Errorf("could not read rate from redis: %w", err)
	}
	var rate Rate
	if err := json.Unmarshal([]byte(val), &rate); err != nil {
		return Rate{}, false, fmt.Errorf("could not unmarshal cached rate: %w", err)
	}
	return rate, true, nil
}

func (c *redisCache) Set(ctx context.Context, from, to string, rate Rate) error {
	val, err := json.Marshal(rate)
	if err != nil {
		return fmt.Errorf("could not marshal rate: %w", err)
	}
	return c.rdb.Set(ctx, cacheKey(from, to), val, RateTTL).Err()
}
