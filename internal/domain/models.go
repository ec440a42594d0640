package domain

import "time"

type SpendingTier string

const (
	TierLow    SpendingTier = "low"
	TierMedium SpendingTier = "medium"
	TierHigh   SpendingTier = "high"
)

type InteractionKind string

const (
	KindView     InteractionKind = "view"
	KindPurchase InteractionKind = "purchase"
	KindRating   InteractionKind = "rating"
	KindWishlist InteractionKind = "wishlist"
)

// IsStrong reports whether the interaction kind counts toward the
// item-overlap similarity term. Views are always a weak signal.
func (k InteractionKind) IsStrong() bool {
	return k == KindPurchase || k == KindRating || k == KindWishlist
}

// CountsForCollaborative reports whether the interaction kind feeds the
// collaborative scorer. Wishlist entries influence similarity but are not
// treated as endorsements the way purchases and ratings are.
func (k InteractionKind) CountsForCollaborative() bool {
	return k == KindPurchase || k == KindRating
}

type User struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Age          int          `json:"age"`
	Gender       string       `json:"gender"`
	Location     string       `json:"location"`
	SpendingTier SpendingTier `json:"spending_tier"`
	Interests    []string     `json:"interests"`
}

type Item struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	PriceCents   int64    `json:"price_cents"`
	Quality      float64  `json:"quality"`
	Popularity   int      `json:"popularity"`
	Tags         []string `json:"tags"`
	TargetAgeMin *int     `json:"target_age_min,omitempty"`
	TargetAgeMax *int     `json:"target_age_max,omitempty"`
}

// HasTargetAgeRange reports whether both bounds of the target age range are set.
func (i Item) HasTargetAgeRange() bool {
	return i.TargetAgeMin != nil && i.TargetAgeMax != nil
}

type Interaction struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	ItemID     string          `json:"item_id"`
	Kind       InteractionKind `json:"kind"`
	Rating     *int            `json:"rating,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type UserCreateRequest struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Age          int          `json:"age"`
	Gender       string       `json:"gender"`
	Location     string       `json:"location"`
	SpendingTier SpendingTier `json:"spending_tier"`
	Interests    []string     `json:"interests"`
}

type ItemCreateRequest struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	PriceCents   int64    `json:"price_cents"`
	Quality      float64  `json:"quality"`
	Popularity   int      `json:"popularity"`
	Tags         []string `json:"tags"`
	TargetAgeMin *int     `json:"target_age_min,omitempty"`
	TargetAgeMax *int     `json:"target_age_max,omitempty"`
}

type InteractionCreateRequest struct {
	UserID string          `json:"user_id"`
	ItemID string          `json:"item_id"`
	Kind   InteractionKind `json:"kind"`
	Rating *int            `json:"rating,omitempty"`
}

type RecommendationRequest struct {
	UserID  string `json:"user_id"`
	Limit   int    `json:"limit"`
	Explain bool   `json:"explain"`
}

type RecommendedItem struct {
	Rank         int      `json:"rank"`
	ItemID       string   `json:"item_id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	PriceCents   int64    `json:"price_cents"`
	Quality      float64  `json:"quality"`
	Popularity   int      `json:"popularity"`
	Tags         []string `json:"tags,omitempty"`
	Score        float64  `json:"score"`
	Explanations []string `json:"explanations,omitempty"`
}

type AlgorithmWeights struct {
	Collaborative float64 `json:"collaborative"`
	Content       float64 `json:"content"`
}

// RecommendationResult is the structured output of a recommend call. Error is
// populated (and Items left empty) when the target user does not exist; every
// other shortfall, including an empty candidate pool, is a normal result.
type RecommendationResult struct {
	UserID      string            `json:"user_id"`
	UserName    string            `json:"user_name,omitempty"`
	Algorithm   string            `json:"algorithm"`
	Weights     AlgorithmWeights  `json:"weights"`
	GeneratedAt string            `json:"generated_at"`
	Total       int               `json:"total"`
	Items       []RecommendedItem `json:"items"`
	Error       string            `json:"error,omitempty"`
}

type SimilarUser struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

type SimilarUsersResponse struct {
	UserID string        `json:"user_id"`
	Peers  []SimilarUser `json:"peers"`
}

type UserStats struct {
	Total          int            `json:"total"`
	ByGender       map[string]int `json:"by_gender"`
	ByLocation     map[string]int `json:"by_location"`
	BySpendingTier map[string]int `json:"by_spending_tier"`
	AverageAge     float64        `json:"average_age"`
}

type ItemStats struct {
	Total             int            `json:"total"`
	ByCategory        map[string]int `json:"by_category"`
	AveragePriceCents float64        `json:"average_price_cents"`
	AverageQuality    float64        `json:"average_quality"`
}

type InteractionStats struct {
	Total       int            `json:"total"`
	ByKind      map[string]int `json:"by_kind"`
	ActiveUsers int            `json:"active_users"`
}

type SimilarityStats struct {
	Pairs   int     `json:"pairs"`
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
}

type SystemStats struct {
	Users        UserStats        `json:"users"`
	Items        ItemStats        `json:"items"`
	Interactions InteractionStats `json:"interactions"`
	Similarity   *SimilarityStats `json:"similarity,omitempty"`
	GeneratedAt  string           `json:"generated_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type AccountCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type AccountInfo struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Account is an internal persistence model for auth credentials.
type Account struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	RoleAdmin   = "admin"
	RoleAnalyst = "analyst"
)
