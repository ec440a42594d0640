package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"sugeria/backend/internal/domain"
	"sugeria/backend/internal/recommendation"
	"sugeria/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo        store.Repository
	recommender *recommendation.Engine
}

func New(repo store.Repository, recommender *recommendation.Engine) *Service {
	return &Service{
		repo:        repo,
		recommender: recommender,
	}
}

// snapshot loads the three tables once so a whole request scores against a
// consistent view of the data.
func (s *Service) snapshot(ctx context.Context) (recommendation.Dataset, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return recommendation.Dataset{}, fmt.Errorf("load users: %w", err)
	}
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return recommendation.Dataset{}, fmt.Errorf("load items: %w", err)
	}
	interactions, err := s.repo.ListInteractions(ctx)
	if err != nil {
		return recommendation.Dataset{}, fmt.Errorf("load interactions: %w", err)
	}
	return recommendation.NewDataset(users, items, interactions), nil
}

// Recommend runs the hybrid recommender for one user. An unknown user comes
// back as a result with the Error field set, not as a Go error; storage
// failures are the only error path.
func (s *Service) Recommend(ctx context.Context, req domain.RecommendationRequest) (domain.RecommendationResult, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return domain.RecommendationResult{}, store.ErrInvalidInput
	}

	ds, err := s.snapshot(ctx)
	if err != nil {
		return domain.RecommendationResult{}, err
	}

	return s.recommender.Recommend(ctx, req, ds), nil
}

func (s *Service) SimilarUsers(ctx context.Context, userID string, n int) (domain.SimilarUsersResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.SimilarUsersResponse{}, store.ErrInvalidInput
	}

	ds, err := s.snapshot(ctx)
	if err != nil {
		return domain.SimilarUsersResponse{}, err
	}

	peers, ok := s.recommender.SimilarUsers(userID, n, ds)
	if !ok {
		return domain.SimilarUsersResponse{}, store.ErrNotFound
	}
	return domain.SimilarUsersResponse{UserID: userID, Peers: peers}, nil
}

// Stats aggregates counts and averages over the three tables plus the
// pairwise similarity distribution.
func (s *Service) Stats(ctx context.Context) (domain.SystemStats, error) {
	ds, err := s.snapshot(ctx)
	if err != nil {
		return domain.SystemStats{}, err
	}

	stats := domain.SystemStats{
		Users: domain.UserStats{
			Total:          len(ds.Users),
			ByGender:       map[string]int{},
			ByLocation:     map[string]int{},
			BySpendingTier: map[string]int{},
		},
		Items: domain.ItemStats{
			Total:      len(ds.Items),
			ByCategory: map[string]int{},
		},
		Interactions: domain.InteractionStats{
			Total:  len(ds.Interactions),
			ByKind: map[string]int{},
		},
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}

	ageSum := 0
	for _, u := range ds.Users {
		stats.Users.ByGender[u.Gender]++
		stats.Users.ByLocation[u.Location]++
		stats.Users.BySpendingTier[string(u.SpendingTier)]++
		ageSum += u.Age
	}
	if len(ds.Users) > 0 {
		stats.Users.AverageAge = round2(float64(ageSum) / float64(len(ds.Users)))
	}

	var priceSum int64
	qualitySum := 0.0
	for _, it := range ds.Items {
		stats.Items.ByCategory[it.Category]++
		priceSum += it.PriceCents
		qualitySum += it.Quality
	}
	if len(ds.Items) > 0 {
		stats.Items.AveragePriceCents = round2(float64(priceSum) / float64(len(ds.Items)))
		stats.Items.AverageQuality = round2(qualitySum / float64(len(ds.Items)))
	}

	active := make(map[string]struct{})
	for _, ix := range ds.Interactions {
		stats.Interactions.ByKind[string(ix.Kind)]++
		active[ix.UserID] = struct{}{}
	}
	stats.Interactions.ActiveUsers = len(active)

	stats.Similarity = s.recommender.SimilarityStats(ds)
	return stats, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *Service) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, err := s.repo.GetUserByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.User{}, err
	}
	return *user, nil
}

func (s *Service) CreateUser(ctx context.Context, req domain.UserCreateRequest) (domain.User, error) {
	if err := requireRole(ctx, domain.RoleAdmin); err != nil {
		return domain.User{}, err
	}

	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if req.ID == "" || req.Name == "" {
		return domain.User{}, store.ErrInvalidInput
	}
	if req.Age < 0 || req.Age > 120 {
		return domain.User{}, store.ErrInvalidInput
	}
	if req.SpendingTier == "" {
		req.SpendingTier = domain.TierMedium
	}
	switch req.SpendingTier {
	case domain.TierLow, domain.TierMedium, domain.TierHigh:
	default:
		return domain.User{}, store.ErrInvalidInput
	}

	user := domain.User{
		ID:           req.ID,
		Name:         req.Name,
		Age:          req.Age,
		Gender:       strings.TrimSpace(req.Gender),
		Location:     strings.TrimSpace(req.Location),
		SpendingTier: req.SpendingTier,
		Interests:    normalizeTags(req.Interests),
	}

	created, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return domain.User{}, err
	}

	s.logAudit(ctx, "user_create", created.ID)
	return *created, nil
}

func (s *Service) ListItems(ctx context.Context) ([]domain.Item, error) {
	return s.repo.ListItems(ctx)
}

func (s *Service) GetItem(ctx context.Context, id string) (domain.Item, error) {
	item, err := s.repo.GetItemByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Item{}, err
	}
	return *item, nil
}

func (s *Service) CreateItem(ctx context.Context, req domain.ItemCreateRequest) (domain.Item, error) {
	if err := requireRole(ctx, domain.RoleAdmin); err != nil {
		return domain.Item{}, err
	}

	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.ID == "" || req.Name == "" || req.Category == "" {
		return domain.Item{}, store.ErrInvalidInput
	}
	if req.PriceCents < 0 {
		return domain.Item{}, store.ErrInvalidInput
	}
	if req.Quality < 0 || req.Quality > 5 {
		return domain.Item{}, store.ErrInvalidInput
	}
	if req.Popularity < 0 || req.Popularity > 100 {
		return domain.Item{}, store.ErrInvalidInput
	}
	if (req.TargetAgeMin == nil) != (req.TargetAgeMax == nil) {
		return domain.Item{}, store.ErrInvalidInput
	}
	if req.TargetAgeMin != nil && *req.TargetAgeMin > *req.TargetAgeMax {
		return domain.Item{}, store.ErrInvalidInput
	}

	item := domain.Item{
		ID:           req.ID,
		Name:         req.Name,
		Category:     req.Category,
		PriceCents:   req.PriceCents,
		Quality:      req.Quality,
		Popularity:   req.Popularity,
		Tags:         normalizeTags(req.Tags),
		TargetAgeMin: req.TargetAgeMin,
		TargetAgeMax: req.TargetAgeMax,
	}

	created, err := s.repo.CreateItem(ctx, item)
	if err != nil {
		return domain.Item{}, err
	}

	s.logAudit(ctx, "item_create", created.ID)
	return *created, nil
}

func (s *Service) ListInteractions(ctx context.Context, userID string) ([]domain.Interaction, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return s.repo.ListInteractions(ctx)
	}
	return s.repo.ListInteractionsByUser(ctx, userID)
}

// CreateInteraction appends one event to the log. A rating value is required
// for the rating kind, optional for purchases, and rejected elsewhere.
func (s *Service) CreateInteraction(ctx context.Context, req domain.InteractionCreateRequest) (domain.Interaction, error) {
	if err := requireRole(ctx, domain.RoleAdmin, domain.RoleAnalyst); err != nil {
		return domain.Interaction{}, err
	}

	req.UserID = strings.TrimSpace(req.UserID)
	req.ItemID = strings.TrimSpace(req.ItemID)
	if req.UserID == "" || req.ItemID == "" {
		return domain.Interaction{}, store.ErrInvalidInput
	}

	switch req.Kind {
	case domain.KindView, domain.KindPurchase, domain.KindRating, domain.KindWishlist:
	default:
		return domain.Interaction{}, store.ErrInvalidInput
	}

	if req.Kind == domain.KindRating && req.Rating == nil {
		return domain.Interaction{}, store.ErrInvalidInput
	}
	if req.Rating != nil {
		if req.Kind != domain.KindRating && req.Kind != domain.KindPurchase {
			return domain.Interaction{}, store.ErrInvalidInput
		}
		if *req.Rating < 1 || *req.Rating > 5 {
			return domain.Interaction{}, store.ErrInvalidInput
		}
	}

	created, err := s.repo.CreateInteraction(ctx, domain.Interaction{
		UserID: req.UserID,
		ItemID: req.ItemID,
		Kind:   req.Kind,
		Rating: req.Rating,
	})
	if err != nil {
		return domain.Interaction{}, err
	}

	s.logAudit(ctx, "interaction_create", created.ID)
	return *created, nil
}

func requireRole(ctx context.Context, roles ...string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return fmt.Errorf("authentication required")
	}
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return fmt.Errorf("%s role required", strings.Join(roles, " or "))
}

func (s *Service) logAudit(ctx context.Context, action string, entityID string) {
	username := "unknown"
	if actor, ok := ActorFromContext(ctx); ok {
		username = actor.Username
	}
	log.Printf("[service] audit action=%s entity=%s actor=%s", action, entityID, username)
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func round2(val float64) float64 {
	return math.Round(val*100) / 100
}
