package recommendation

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"sugeria/backend/internal/cache"
	"sugeria/backend/internal/config"
	"sugeria/backend/internal/domain"
)

const algorithmName = "hybrid"

// Engine blends collaborative and content-based scoring over an immutable
// dataset snapshot. An Engine is safe for concurrent use; all per-request
// state lives on the stack.
type Engine struct {
	cache    cache.RecommendationCache
	cacheTTL time.Duration
	cfg      config.RecommenderConfig
	rules    []businessRule
}

func NewEngine(cfg config.RecommenderConfig, cacheStore cache.RecommendationCache) *Engine {
	if cacheStore == nil {
		cacheStore = cache.NoopRecommendationCache{}
	}
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 20 * time.Second
	}

	return &Engine{
		cache:    cacheStore,
		cacheTTL: ttl,
		cfg:      cfg,
		rules:    defaultRules(),
	}
}

// Recommend produces the ranked hybrid recommendation list for one user. An
// unknown user yields a result with Error populated; an empty candidate pool
// is a normal result with zero items.
func (e *Engine) Recommend(ctx context.Context, req domain.RecommendationRequest, ds Dataset) domain.RecommendationResult {
	result := domain.RecommendationResult{
		UserID:    req.UserID,
		Algorithm: algorithmName,
		Weights: domain.AlgorithmWeights{
			Collaborative: e.cfg.AlgorithmWeights.Collaborative,
			Content:       e.cfg.AlgorithmWeights.Content,
		},
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Items:       []domain.RecommendedItem{},
	}

	user, ok := ds.Users[req.UserID]
	if !ok {
		result.Error = fmt.Sprintf("user %q not found", req.UserID)
		return result
	}
	result.UserName = user.Name

	limit := req.Limit
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}

	cacheKey := e.buildCacheKey(req.UserID, limit, req.Explain)
	if cached, hit, err := e.cache.Get(ctx, cacheKey); err == nil && hit {
		return *cached
	}

	idx := buildIndex(ds)

	// Oversample both scorers so the blend has enough candidates to rank
	// even when the two lists barely overlap.
	pool := limit * e.cfg.Oversample
	collab := e.recommendCollaborative(user, pool, ds, idx)
	content := e.recommendContent(user, pool, ds, idx)

	blended := make(map[string]float64, len(collab)+len(content))
	for _, s := range collab {
		blended[s.itemID] += e.cfg.AlgorithmWeights.Collaborative * s.score
	}
	for _, s := range content {
		blended[s.itemID] += e.cfg.AlgorithmWeights.Content * s.score
	}

	e.applyRules(user, blended, ds)

	ranked := topScored(blended, limit)

	var peers []peer
	if req.Explain {
		peers = e.topPeers(user, explainPeerCount, ds, idx)
	}

	for rank, s := range ranked {
		item := ds.Items[s.itemID]
		entry := domain.RecommendedItem{
			Rank:       rank + 1,
			ItemID:     item.ID,
			Name:       item.Name,
			Category:   item.Category,
			PriceCents: item.PriceCents,
			Quality:    item.Quality,
			Popularity: item.Popularity,
			Tags:       item.Tags,
			Score:      round3(s.score),
		}
		if req.Explain {
			entry.Explanations = e.explain(user, item, ds, idx, peers)
		}
		result.Items = append(result.Items, entry)
	}
	result.Total = len(result.Items)

	_ = e.cache.Set(ctx, cacheKey, &result, e.cacheTTL)
	return result
}

// SimilarUsers returns the user's nearest peers with their similarity scores.
// The boolean is false when the user does not exist.
func (e *Engine) SimilarUsers(userID string, n int, ds Dataset) ([]domain.SimilarUser, bool) {
	user, ok := ds.Users[userID]
	if !ok {
		return nil, false
	}
	if n <= 0 {
		n = e.cfg.TopPeers
	}

	idx := buildIndex(ds)
	peers := e.topPeers(user, n, ds, idx)

	out := make([]domain.SimilarUser, 0, len(peers))
	for _, p := range peers {
		out = append(out, domain.SimilarUser{
			UserID:     p.userID,
			Name:       ds.Users[p.userID].Name,
			Similarity: round3(p.similarity),
		})
	}
	return out, true
}

// SimilarityStats summarizes the pairwise similarity distribution across all
// users. Returns nil when there are fewer than two users.
func (e *Engine) SimilarityStats(ds Dataset) *domain.SimilarityStats {
	if len(ds.Users) < 2 {
		return nil
	}

	ids := make([]string, 0, len(ds.Users))
	for id := range ds.Users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	idx := buildIndex(ds)

	stats := domain.SimilarityStats{Min: math.MaxFloat64}
	sum := 0.0
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			sim := e.similarity(ds.Users[ids[i]], ds.Users[ids[j]], idx)
			stats.Pairs++
			sum += sim
			if sim > stats.Max {
				stats.Max = sim
			}
			if sim < stats.Min {
				stats.Min = sim
			}
		}
	}

	stats.Average = round3(sum / float64(stats.Pairs))
	stats.Max = round3(stats.Max)
	stats.Min = round3(stats.Min)
	return &stats
}

// topScored orders accumulated scores descending, breaking ties on item ID,
// and truncates to n.
func topScored(scores map[string]float64, n int) []scoredItem {
	ranked := make([]scoredItem, 0, len(scores))
	for id, score := range scores {
		ranked = append(ranked, scoredItem{itemID: id, score: score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].itemID < ranked[j].itemID
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func (e *Engine) buildCacheKey(userID string, limit int, explain bool) string {
	parts := []string{userID, fmt.Sprintf("n:%d", limit), fmt.Sprintf("x:%t", explain)}
	hash := sha1.Sum([]byte(strings.Join(parts, "|")))
	return "sugeria:recommendation:" + hex.EncodeToString(hash[:])
}

func round3(val float64) float64 {
	return math.Round(val*1000) / 1000
}
