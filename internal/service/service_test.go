package service

import (
	"context"
	"errors"
	"testing"

	"sugeria/backend/internal/cache"
	"sugeria/backend/internal/config"
	"sugeria/backend/internal/domain"
	"sugeria/backend/internal/recommendation"
	"sugeria/backend/internal/store"
	"sugeria/backend/internal/store/memory"
)

func newTestService() *Service {
	repo := memory.NewSeeded()
	engine := recommendation.NewEngine(config.Default().Recommender, cache.NoopRecommendationCache{})
	return New(repo, engine)
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleAdmin})
}

func analystCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "analyst", Role: domain.RoleAnalyst})
}

func intPtr(v int) *int { return &v }

func TestRecommendForSeededUser(t *testing.T) {
	svc := newTestService()

	res, err := svc.Recommend(context.Background(), domain.RecommendationRequest{UserID: "user-ana", Limit: 3})
	if err != nil {
		t.Fatalf("recommend failed: %v", err)
	}
	if res.Error != "" {
		t.Fatalf("unexpected result error: %s", res.Error)
	}
	if res.Algorithm != "hybrid" {
		t.Fatalf("expected hybrid algorithm, got %s", res.Algorithm)
	}
	if len(res.Items) == 0 {
		t.Fatalf("expected recommendations for seeded user")
	}
	if len(res.Items) > 3 {
		t.Fatalf("expected at most 3 items, got %d", len(res.Items))
	}
}

func TestRecommendUnknownUserPopulatesError(t *testing.T) {
	svc := newTestService()

	res, err := svc.Recommend(context.Background(), domain.RecommendationRequest{UserID: "user-missing"})
	if err != nil {
		t.Fatalf("unknown user must not be a transport error: %v", err)
	}
	if res.Error == "" {
		t.Fatalf("expected populated error field")
	}
	if len(res.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(res.Items))
	}
}

func TestRecommendBlankUserIDIsInvalid(t *testing.T) {
	svc := newTestService()

	if _, err := svc.Recommend(context.Background(), domain.RecommendationRequest{UserID: "  "}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSimilarUsers(t *testing.T) {
	svc := newTestService()

	resp, err := svc.SimilarUsers(context.Background(), "user-ana", 3)
	if err != nil {
		t.Fatalf("similar users failed: %v", err)
	}
	if len(resp.Peers) != 3 {
		t.Fatalf("expected 3 peers, got %d", len(resp.Peers))
	}
	for i := 1; i < len(resp.Peers); i++ {
		if resp.Peers[i].Similarity > resp.Peers[i-1].Similarity {
			t.Fatalf("peers not sorted by similarity")
		}
	}

	if _, err := svc.SimilarUsers(context.Background(), "user-missing", 3); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	svc := newTestService()

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Users.Total == 0 || stats.Items.Total == 0 || stats.Interactions.Total == 0 {
		t.Fatalf("expected non-empty seeded stats, got %+v", stats)
	}
	if stats.Users.AverageAge <= 0 {
		t.Fatalf("expected positive average age")
	}
	if stats.Similarity == nil {
		t.Fatalf("expected similarity stats with multiple users")
	}
	if stats.Interactions.ActiveUsers > stats.Users.Total {
		t.Fatalf("active users cannot exceed total users")
	}
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	svc := newTestService()

	req := domain.UserCreateRequest{ID: "user-new", Name: "New User", Age: 30}
	if _, err := svc.CreateUser(context.Background(), req); err == nil {
		t.Fatalf("expected unauthenticated create to fail")
	}
	if _, err := svc.CreateUser(analystCtx(), req); err == nil {
		t.Fatalf("expected analyst create to fail")
	}

	created, err := svc.CreateUser(adminCtx(), req)
	if err != nil {
		t.Fatalf("admin create failed: %v", err)
	}
	if created.SpendingTier != domain.TierMedium {
		t.Fatalf("expected default medium tier, got %s", created.SpendingTier)
	}
}

func TestCreateUserValidation(t *testing.T) {
	svc := newTestService()

	cases := []domain.UserCreateRequest{
		{ID: "", Name: "No ID", Age: 30},
		{ID: "user-x", Name: "", Age: 30},
		{ID: "user-x", Name: "Bad Age", Age: -1},
		{ID: "user-x", Name: "Bad Tier", Age: 30, SpendingTier: "platinum"},
	}
	for _, req := range cases {
		if _, err := svc.CreateUser(adminCtx(), req); !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", req, err)
		}
	}

	if _, err := svc.CreateUser(adminCtx(), domain.UserCreateRequest{ID: "user-ana", Name: "Dup", Age: 30}); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateUserNormalizesInterests(t *testing.T) {
	svc := newTestService()

	created, err := svc.CreateUser(adminCtx(), domain.UserCreateRequest{
		ID: "user-norm", Name: "Norm", Age: 30,
		Interests: []string{" Tech ", "tech", "", "Gaming"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(created.Interests) != 2 || created.Interests[0] != "gaming" || created.Interests[1] != "tech" {
		t.Fatalf("expected sorted deduplicated lowercase interests, got %v", created.Interests)
	}
}

func TestCreateItemValidation(t *testing.T) {
	svc := newTestService()

	cases := []domain.ItemCreateRequest{
		{ID: "item-x", Name: "No Category", PriceCents: 100},
		{ID: "item-x", Name: "Bad Quality", Category: "tech", Quality: 6},
		{ID: "item-x", Name: "Bad Popularity", Category: "tech", Popularity: 101},
		{ID: "item-x", Name: "Half Range", Category: "tech", TargetAgeMin: intPtr(20)},
		{ID: "item-x", Name: "Inverted Range", Category: "tech", TargetAgeMin: intPtr(40), TargetAgeMax: intPtr(20)},
	}
	for _, req := range cases {
		if _, err := svc.CreateItem(adminCtx(), req); !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", req, err)
		}
	}

	created, err := svc.CreateItem(adminCtx(), domain.ItemCreateRequest{
		ID: "item-new", Name: "New Item", Category: "tech",
		PriceCents: 4500, Quality: 4.2, Popularity: 60,
		TargetAgeMin: intPtr(18), TargetAgeMax: intPtr(40),
	})
	if err != nil {
		t.Fatalf("create item failed: %v", err)
	}
	if !created.HasTargetAgeRange() {
		t.Fatalf("expected target age range to survive")
	}
}

func TestCreateInteractionRatingRules(t *testing.T) {
	svc := newTestService()
	ctx := analystCtx()

	if _, err := svc.CreateInteraction(ctx, domain.InteractionCreateRequest{
		UserID: "user-ana", ItemID: "item-phone", Kind: domain.KindRating,
	}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("rating kind without rating must fail, got %v", err)
	}

	if _, err := svc.CreateInteraction(ctx, domain.InteractionCreateRequest{
		UserID: "user-ana", ItemID: "item-phone", Kind: domain.KindView, Rating: intPtr(5),
	}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("view with rating must fail, got %v", err)
	}

	if _, err := svc.CreateInteraction(ctx, domain.InteractionCreateRequest{
		UserID: "user-ana", ItemID: "item-phone", Kind: domain.KindRating, Rating: intPtr(6),
	}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("rating above 5 must fail, got %v", err)
	}

	if _, err := svc.CreateInteraction(ctx, domain.InteractionCreateRequest{
		UserID: "user-ghost", ItemID: "item-phone", Kind: domain.KindView,
	}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown user must fail with ErrNotFound, got %v", err)
	}

	created, err := svc.CreateInteraction(ctx, domain.InteractionCreateRequest{
		UserID: "user-ana", ItemID: "item-phone", Kind: domain.KindPurchase, Rating: intPtr(4),
	})
	if err != nil {
		t.Fatalf("valid interaction failed: %v", err)
	}
	if created.ID == "" || created.OccurredAt.IsZero() {
		t.Fatalf("expected generated id and timestamp, got %+v", created)
	}
}

func TestNewInteractionAffectsRecommendations(t *testing.T) {
	svc := newTestService()

	before, err := svc.Recommend(context.Background(), domain.RecommendationRequest{UserID: "user-ana", Limit: 20})
	if err != nil {
		t.Fatalf("recommend failed: %v", err)
	}

	// Interacting with an item removes it from future recommendations.
	target := ""
	if len(before.Items) > 0 {
		target = before.Items[0].ItemID
	}
	if target == "" {
		t.Skip("seeded user has no recommendations")
	}

	if _, err := svc.CreateInteraction(analystCtx(), domain.InteractionCreateRequest{
		UserID: "user-ana", ItemID: target, Kind: domain.KindPurchase,
	}); err != nil {
		t.Fatalf("create interaction failed: %v", err)
	}

	after, err := svc.Recommend(context.Background(), domain.RecommendationRequest{UserID: "user-ana", Limit: 20})
	if err != nil {
		t.Fatalf("recommend failed: %v", err)
	}
	for _, it := range after.Items {
		if it.ItemID == target {
			t.Fatalf("purchased item %s still recommended", target)
		}
	}
}

func TestListInteractionsFilterByUser(t *testing.T) {
	svc := newTestService()

	all, err := svc.ListInteractions(context.Background(), "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	forAna, err := svc.ListInteractions(context.Background(), "user-ana")
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if len(forAna) == 0 || len(forAna) >= len(all) {
		t.Fatalf("expected a proper subset for one user, got %d of %d", len(forAna), len(all))
	}
	for _, ix := range forAna {
		if ix.UserID != "user-ana" {
			t.Fatalf("filter leaked interaction for %s", ix.UserID)
		}
	}
}
