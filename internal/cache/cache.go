package cache

import (
	"context"
	"time"

	"sugeria/backend/internal/domain"
)

// RecommendationCache stores computed recommendation results keyed by a
// request fingerprint. Implementations must treat a miss as a normal
// outcome, not an error.
type RecommendationCache interface {
	Get(ctx context.Context, key string) (*domain.RecommendationResult, bool, error)
	Set(ctx context.Context, key string, value *domain.RecommendationResult, ttl time.Duration) error
}

// NoopRecommendationCache always misses. Used when Redis is unavailable so
// the engine recomputes every request instead of failing.
type NoopRecommendationCache struct{}

func (NoopRecommendationCache) Get(_ context.Context, _ string) (*domain.RecommendationResult, bool, error) {
	return nil, false, nil
}

func (NoopRecommendationCache) Set(_ context.Context, _ string, _ *domain.RecommendationResult, _ time.Duration) error {
	return nil
}
