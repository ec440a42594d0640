package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"sugeria/backend/internal/domain"
)

type RedisRecommendationCache struct {
	client *redis.Client
}

func NewRedisRecommendationCache(addr string, password string, db int) *RedisRecommendationCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisRecommendationCache{client: client}
}

func (c *RedisRecommendationCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisRecommendationCache) Close() error {
	return c.client.Close()
}

// Get returns the cached result for key. Entries that no longer decode,
// typically after the result schema changed between releases, are evicted
// and reported as a miss rather than an error.
func (c *RedisRecommendationCache) Get(ctx context.Context, key string) (*domain.RecommendationResult, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var result domain.RecommendationResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		c.client.Del(ctx, key)
		return nil, false, nil
	}
	return &result, true, nil
}

func (c *RedisRecommendationCache) Set(ctx context.Context, key string, value *domain.RecommendationResult, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
