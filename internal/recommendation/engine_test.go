package recommendation

import (
	"context"
	"strings"
	"testing"

	"sugeria/backend/internal/cache"
	"sugeria/backend/internal/config"
	"sugeria/backend/internal/domain"
)

func intPtr(v int) *int { return &v }

func newTestEngine() *Engine {
	return NewEngine(config.Default().Recommender, cache.NoopRecommendationCache{})
}

func testDataset() Dataset {
	users := []domain.User{
		{ID: "u-alba", Name: "Alba", Age: 27, Gender: "f", Location: "lima", SpendingTier: domain.TierMedium, Interests: []string{"tech", "gaming"}},
		{ID: "u-bruno", Name: "Bruno", Age: 29, Gender: "f", Location: "lima", SpendingTier: domain.TierMedium, Interests: []string{"tech", "gaming"}},
		{ID: "u-clara", Name: "Clara", Age: 58, Gender: "m", Location: "cusco", SpendingTier: domain.TierHigh, Interests: []string{"cooking"}},
	}
	items := []domain.Item{
		{ID: "it-keyboard", Name: "Mech Keyboard", Category: "tech", PriceCents: 32000, Quality: 4.6, Popularity: 82, Tags: []string{"gaming"}},
		{ID: "it-panset", Name: "Pan Set", Category: "cooking", PriceCents: 61000, Quality: 4.1, Popularity: 40, Tags: []string{"kitchen"}},
		{ID: "it-charger", Name: "Travel Charger", Category: "tech", PriceCents: 9000, Quality: 3.8, Popularity: 55, Tags: []string{"travel"}},
	}
	interactions := []domain.Interaction{
		{ID: "ix-1", UserID: "u-bruno", ItemID: "it-keyboard", Kind: domain.KindRating, Rating: intPtr(5)},
		{ID: "ix-2", UserID: "u-bruno", ItemID: "it-charger", Kind: domain.KindPurchase},
		{ID: "ix-3", UserID: "u-clara", ItemID: "it-panset", Kind: domain.KindPurchase, Rating: intPtr(4)},
		{ID: "ix-4", UserID: "u-alba", ItemID: "it-charger", Kind: domain.KindView},
	}
	return NewDataset(users, items, interactions)
}

func TestJaccardBothEmptyIsZero(t *testing.T) {
	if got := jaccard(nil, nil); got != 0 {
		t.Fatalf("expected 0 for two empty sets, got %f", got)
	}
	if got := jaccard(toSet([]string{"a"}), nil); got != 0 {
		t.Fatalf("expected 0 when one set is empty, got %f", got)
	}
}

func TestJaccardBounds(t *testing.T) {
	a := toSet([]string{"a", "b", "c"})
	b := toSet([]string{"b", "c", "d"})
	got := jaccard(a, b)
	if got < 0 || got > 1 {
		t.Fatalf("jaccard out of [0,1]: %f", got)
	}
	if got != 0.5 {
		t.Fatalf("expected 0.5 for half-overlapping sets, got %f", got)
	}
	if jaccard(a, a) != 1 {
		t.Fatalf("expected 1 for identical sets")
	}
}

func TestSimilarityIsSymmetric(t *testing.T) {
	e := newTestEngine()
	ds := testDataset()
	idx := buildIndex(ds)

	for idA, a := range ds.Users {
		for idB, b := range ds.Users {
			ab := e.similarity(a, b, idx)
			ba := e.similarity(b, a, idx)
			if ab != ba {
				t.Fatalf("similarity(%s,%s)=%f but similarity(%s,%s)=%f", idA, idB, ab, idB, idA, ba)
			}
			if ab < 0 || ab > 1.0001 {
				t.Fatalf("similarity(%s,%s) out of bounds: %f", idA, idB, ab)
			}
		}
	}
}

func TestIdenticalProfilesScoreNearMaximum(t *testing.T) {
	e := newTestEngine()
	ds := testDataset()
	idx := buildIndex(ds)

	// Alba and Bruno share interests, gender, and location, with ages two
	// years apart under a ten-year tolerance. Without any item overlap the
	// similarity should approach the demographic plus interest weight mass.
	sim := e.similarity(ds.Users["u-alba"], ds.Users["u-bruno"], idx)

	w := e.cfg.Similarity
	demoMax := w.DemographicWeight * (w.Demographic.AgeWeight*0.8 + w.Demographic.SameGenderBoost + w.Demographic.SameLocationBoost)
	want := demoMax + w.InterestWeight
	if diff := sim - want; diff > 0.0001 || diff < -0.0001 {
		t.Fatalf("expected similarity %f, got %f", want, sim)
	}
}

func TestTopPeersExcludesSelf(t *testing.T) {
	e := newTestEngine()
	ds := testDataset()
	idx := buildIndex(ds)

	peers := e.topPeers(ds.Users["u-alba"], 10, ds, idx)
	if len(peers) != len(ds.Users)-1 {
		t.Fatalf("expected %d peers, got %d", len(ds.Users)-1, len(peers))
	}
	for _, p := range peers {
		if p.userID == "u-alba" {
			t.Fatalf("target user appeared in its own peer list")
		}
	}
}

func TestRecommendNeverReturnsSeenItems(t *testing.T) {
	e := newTestEngine()
	ds := testDataset()

	// Alba has viewed the charger; even a weak view must suppress it.
	res := e.Recommend(context.Background(), domain.RecommendationRequest{UserID: "u-alba", Limit: 10}, ds)
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	for _, it := range res.Items {
		if it.ItemID == "it-charger" {
			t.Fatalf("recommended an item the user already interacted with")
		}
	}
}

func TestRecommendRanksStrictlyDescending(t *testing.T) {
	e := newTestEngine()
	ds := testDataset()

	res := e.Recommend(context.Background(), domain.RecommendationRequest{UserID: "u-alba", Limit: 10}, ds)
	for i := 1; i < len(res.Items); i++ {
		prev, cur := res.Items[i-1], res.Items[i]
		if cur.Score > prev.Score {
			t.Fatalf("items not sorted descending: %f before %f", prev.Score, cur.Score)
		}
		if cur.Score == prev.Score && cur.ItemID < prev.ItemID {
			t.Fatalf("tie not broken by item id: %s before %s", prev.ItemID, cur.ItemID)
		}
		if cur.Rank != prev.Rank+1 {
			t.Fatalf("ranks not consecutive: %d then %d", prev.Rank, cur.Rank)
		}
	}
}

func TestRecommendUnknownUserReturnsStructuredError(t *testing.T) {
	e := newTestEngine()
	ds := testDataset()

	res := e.Recommend(context.Background(), domain.RecommendationRequest{UserID: "u-ghost", Limit: 5}, ds)
	if res.Error == "" {
		t.Fatalf("expected error field to be populated for unknown user")
	}
	if len(res.Items) != 0 {
		t.Fatalf("expected no items for unknown user, got %d", len(res.Items))
	}
}

func TestRecommendEmptyCatalogIsNotAnError(t *testing.T) {
	e := newTestEngine()
	ds := NewDataset(
		[]domain.User{{ID: "u-solo", Name: "Solo", Age: 40, SpendingTier: domain.TierMedium}},
		nil,
		nil,
	)

	res := e.Recommend(context.Background(), domain.RecommendationRequest{UserID: "u-solo", Limit: 5}, ds)
	if res.Error != "" {
		t.Fatalf("empty catalog must not produce an error, got %s", res.Error)
	}
	if len(res.Items) != 0 {
		t.Fatalf("expected empty list, got %d items", len(res.Items))
	}
}

func TestCollaborativeUsesUnratedPurchaseDefault(t *testing.T) {
	value, ok := endorsementValue(domain.Interaction{Kind: domain.KindPurchase})
	if !ok || value != unratedPurchaseValue {
		t.Fatalf("expected unrated purchase to count as %f, got %f ok=%t", unratedPurchaseValue, value, ok)
	}

	value, ok = endorsementValue(domain.Interaction{Kind: domain.KindRating, Rating: intPtr(4)})
	if !ok || value != 0.8 {
		t.Fatalf("expected 4/5 rating to normalize to 0.8, got %f ok=%t", value, ok)
	}

	if _, ok = endorsementValue(domain.Interaction{Kind: domain.KindView}); ok {
		t.Fatalf("views must not contribute to collaborative scores")
	}
}

func TestContentScoreDropsNonPositiveCandidates(t *testing.T) {
	e := newTestEngine()
	user := domain.User{ID: "u-x", Age: 20, SpendingTier: domain.TierLow}
	// Expensive, low-quality, unpopular, no interest match: penalty-dominated.
	item := domain.Item{ID: "it-dud", Category: "luxury", PriceCents: 900000, Quality: 0, Popularity: 0}

	ds := NewDataset([]domain.User{user}, []domain.Item{item}, nil)
	idx := buildIndex(ds)
	if got := e.recommendContent(user, 10, ds, idx); len(got) != 0 {
		t.Fatalf("expected non-positive candidate to be dropped, got %d items", len(got))
	}
}

func TestAgeFitPartialCredit(t *testing.T) {
	item := domain.Item{TargetAgeMin: intPtr(20), TargetAgeMax: intPtr(30)}

	if got := ageFit(domain.User{Age: 25}, item); got != 1 {
		t.Fatalf("expected full credit inside range, got %f", got)
	}
	if got := ageFit(domain.User{Age: 33}, item); got != ageFitPartialCredit {
		t.Fatalf("expected partial credit near boundary, got %f", got)
	}
	if got := ageFit(domain.User{Age: 44}, item); got != 0 {
		t.Fatalf("expected no credit far from range, got %f", got)
	}
	if got := ageFit(domain.User{Age: 25}, domain.Item{}); got != 0 {
		t.Fatalf("expected no credit without a target range, got %f", got)
	}
}

func TestExplanationsFallBackToDefault(t *testing.T) {
	e := newTestEngine()
	user := domain.User{ID: "u-x", Age: 40, SpendingTier: domain.TierHigh}
	item := domain.Item{ID: "it-plain", Category: "misc", PriceCents: 1000, Quality: 2, Popularity: 10}
	ds := NewDataset([]domain.User{user}, []domain.Item{item}, nil)
	idx := buildIndex(ds)

	reasons := e.explain(user, item, ds, idx, nil)
	if len(reasons) != 1 || reasons[0] != defaultExplanation {
		t.Fatalf("expected only the default explanation, got %v", reasons)
	}
}

func TestExplainAttachesReasons(t *testing.T) {
	e := newTestEngine()
	ds := testDataset()

	res := e.Recommend(context.Background(), domain.RecommendationRequest{UserID: "u-alba", Limit: 10, Explain: true}, ds)
	if len(res.Items) == 0 {
		t.Fatalf("expected at least one recommendation")
	}
	for _, it := range res.Items {
		if len(it.Explanations) == 0 {
			t.Fatalf("item %s has no explanations", it.ItemID)
		}
	}

	// The keyboard carries Alba's gaming interest as a tag, so an interest
	// reason must be present, not just the default.
	for _, it := range res.Items {
		if it.ItemID != "it-keyboard" {
			continue
		}
		found := false
		for _, r := range it.Explanations {
			if strings.Contains(r, "interest in gaming") {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected interest explanation for keyboard, got %v", it.Explanations)
		}
	}
}

func TestBusinessRulesBoostYoungAdultTech(t *testing.T) {
	cfg := config.Default().Recommender
	withRules := NewEngine(cfg, cache.NoopRecommendationCache{})
	cfg.Rules.Enabled = false
	withoutRules := NewEngine(cfg, cache.NoopRecommendationCache{})

	ds := testDataset()
	user := ds.Users["u-alba"]

	scoresOn := map[string]float64{"it-keyboard": 1.0, "it-panset": 1.0}
	scoresOff := map[string]float64{"it-keyboard": 1.0, "it-panset": 1.0}
	withRules.applyRules(user, scoresOn, ds)
	withoutRules.applyRules(user, scoresOff, ds)

	if scoresOff["it-keyboard"] != 1.0 {
		t.Fatalf("disabled rules must not touch scores, got %f", scoresOff["it-keyboard"])
	}
	// Young-adult tech boost times trending boost (popularity 82).
	want := 1.0 * 1.3 * 1.1
	if diff := scoresOn["it-keyboard"] - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected keyboard score %f after boosts, got %f", want, scoresOn["it-keyboard"])
	}
	if scoresOn["it-panset"] != 1.0 {
		t.Fatalf("panset matches no rule for this user, got %f", scoresOn["it-panset"])
	}
}

func TestSimilarUsers(t *testing.T) {
	e := newTestEngine()
	ds := testDataset()

	peers, ok := e.SimilarUsers("u-alba", 2, ds)
	if !ok {
		t.Fatalf("expected known user")
	}
	if len(peers) != 2 {
		t.Fatalf("expected 2 peers, got %d", len(peers))
	}
	if peers[0].UserID != "u-bruno" {
		t.Fatalf("expected Bruno as nearest peer, got %s", peers[0].UserID)
	}

	if _, ok := e.SimilarUsers("u-ghost", 2, ds); ok {
		t.Fatalf("expected ok=false for unknown user")
	}
}

func TestSimilarityStats(t *testing.T) {
	e := newTestEngine()
	ds := testDataset()

	stats := e.SimilarityStats(ds)
	if stats == nil {
		t.Fatalf("expected stats for three users")
	}
	if stats.Pairs != 3 {
		t.Fatalf("expected 3 pairs, got %d", stats.Pairs)
	}
	if stats.Min > stats.Average || stats.Average > stats.Max {
		t.Fatalf("inconsistent stats: min=%f avg=%f max=%f", stats.Min, stats.Average, stats.Max)
	}

	solo := NewDataset([]domain.User{{ID: "u-one"}}, nil, nil)
	if e.SimilarityStats(solo) != nil {
		t.Fatalf("expected nil stats below two users")
	}
}
