package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sugeria/backend/internal/domain"
	"sugeria/backend/internal/store"
	"sugeria/backend/internal/xid"
)

type Store struct {
	mu                 sync.RWMutex
	users              map[string]domain.User
	items              map[string]domain.Item
	interactions       []domain.Interaction
	accountsByUsername map[string]domain.Account
}

// seedAccounts builds the initial auth accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_ANALYST_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedAccounts() map[string]domain.Account {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	analystPwd := envOr("SEED_ANALYST_PASSWORD", "analyst123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_ANALYST_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_ANALYST_PASSWORD to override.")
	}

	now := time.Now().UTC()
	accounts := map[string]domain.Account{}
	for _, a := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"analyst", analystPwd, domain.RoleAnalyst},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", a.username, err)
		}
		accounts[a.username] = domain.Account{
			Username:  a.username,
			Password:  string(hash),
			Role:      a.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return accounts
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intPtr(v int) *int { return &v }

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		log.Fatalf("[memory-store] bad seed date %q: %v", value, err)
	}
	return t.UTC()
}

// NewSeeded returns a store preloaded with a small demo dataset sized for
// interactive exploration: a handful of users with distinct profiles, a
// catalog spanning several categories and an interaction log mixing strong
// and weak signals.
func NewSeeded() *Store {
	users := []domain.User{
		{ID: "user-ana", Name: "Ana Whitfield", Age: 28, Gender: "F", Location: "portland", SpendingTier: domain.TierMedium, Interests: []string{"tech", "fitness", "books"}},
		{ID: "user-cole", Name: "Cole Brandt", Age: 35, Gender: "M", Location: "denver", SpendingTier: domain.TierHigh, Interests: []string{"sports", "gaming", "music"}},
		{ID: "user-mara", Name: "Mara Delgado", Age: 42, Gender: "F", Location: "austin", SpendingTier: domain.TierLow, Interests: []string{"cooking", "garden", "art"}},
		{ID: "user-dev", Name: "Dev Okafor", Age: 24, Gender: "M", Location: "portland", SpendingTier: domain.TierMedium, Interests: []string{"tech", "gaming", "fitness"}},
		{ID: "user-erin", Name: "Erin Kowalski", Age: 31, Gender: "F", Location: "denver", SpendingTier: domain.TierHigh, Interests: []string{"tech", "music", "travel"}},
		{ID: "user-frank", Name: "Frank Leung", Age: 55, Gender: "M", Location: "austin", SpendingTier: domain.TierLow, Interests: []string{"garden", "books", "cooking"}},
	}

	items := []domain.Item{
		{ID: "item-phone", Name: "Galaxy Smartphone", Category: "tech", PriceCents: 149900, Quality: 4.5, Popularity: 95, Tags: []string{"android", "camera", "5g"}, TargetAgeMin: intPtr(20), TargetAgeMax: intPtr(50)},
		{ID: "item-earbuds", Name: "Sport Bluetooth Earbuds", Category: "tech", PriceCents: 25900, Quality: 4.3, Popularity: 88, Tags: []string{"bluetooth", "fitness", "audio"}, TargetAgeMin: intPtr(16), TargetAgeMax: intPtr(45)},
		{ID: "item-laptop", Name: "Ultralight Laptop 14", Category: "tech", PriceCents: 389900, Quality: 4.7, Popularity: 90, Tags: []string{"work", "portable"}, TargetAgeMin: intPtr(18), TargetAgeMax: intPtr(60)},
		{ID: "item-headphones", Name: "Studio Headphones", Category: "tech", PriceCents: 54900, Quality: 4.9, Popularity: 85, Tags: []string{"audio", "music"}, TargetAgeMin: intPtr(18), TargetAgeMax: intPtr(55)},
		{ID: "item-console", Name: "Game Console X", Category: "gaming", PriceCents: 219900, Quality: 4.8, Popularity: 92, Tags: []string{"gaming", "4k"}, TargetAgeMin: intPtr(14), TargetAgeMax: intPtr(40)},
		{ID: "item-controller", Name: "Wireless Controller", Category: "gaming", PriceCents: 18900, Quality: 4.2, Popularity: 76, Tags: []string{"gaming", "wireless"}, TargetAgeMin: intPtr(14), TargetAgeMax: intPtr(40)},
		{ID: "item-runshoes", Name: "Trail Running Shoes", Category: "sports", PriceCents: 35900, Quality: 4.4, Popularity: 83, Tags: []string{"running", "fitness"}, TargetAgeMin: intPtr(16), TargetAgeMax: intPtr(55)},
		{ID: "item-yogamat", Name: "Pro Yoga Mat", Category: "sports", PriceCents: 9900, Quality: 4.1, Popularity: 70, Tags: []string{"fitness", "yoga"}, TargetAgeMin: intPtr(18), TargetAgeMax: intPtr(65)},
		{ID: "item-novel", Name: "The Glass Meridian", Category: "books", PriceCents: 6900, Quality: 4.6, Popularity: 64, Tags: []string{"fiction", "bestseller"}, TargetAgeMin: intPtr(16), TargetAgeMax: intPtr(80)},
		{ID: "item-cookbook", Name: "Weeknight Kitchen", Category: "books", PriceCents: 12900, Quality: 4.0, Popularity: 58, Tags: []string{"cooking", "recipes"}, TargetAgeMin: intPtr(25), TargetAgeMax: intPtr(75)},
		{ID: "item-blender", Name: "High-Speed Blender", Category: "kitchen", PriceCents: 28900, Quality: 3.9, Popularity: 61, Tags: []string{"cooking", "smoothie"}, TargetAgeMin: intPtr(25), TargetAgeMax: intPtr(70)},
		{ID: "item-planter", Name: "Self-Watering Planter", Category: "garden", PriceCents: 7900, Quality: 4.2, Popularity: 47, Tags: []string{"garden", "outdoor"}},
	}

	interactions := []domain.Interaction{
		{ID: "ix-001", UserID: "user-ana", ItemID: "item-earbuds", Kind: domain.KindPurchase, OccurredAt: day("2026-06-02")},
		{ID: "ix-002", UserID: "user-ana", ItemID: "item-novel", Kind: domain.KindRating, Rating: intPtr(5), OccurredAt: day("2026-06-10")},
		{ID: "ix-003", UserID: "user-ana", ItemID: "item-laptop", Kind: domain.KindView, OccurredAt: day("2026-06-15")},
		{ID: "ix-004", UserID: "user-cole", ItemID: "item-console", Kind: domain.KindPurchase, OccurredAt: day("2026-05-21")},
		{ID: "ix-005", UserID: "user-cole", ItemID: "item-controller", Kind: domain.KindRating, Rating: intPtr(4), OccurredAt: day("2026-05-30")},
		{ID: "ix-006", UserID: "user-cole", ItemID: "item-runshoes", Kind: domain.KindPurchase, OccurredAt: day("2026-06-12")},
		{ID: "ix-007", UserID: "user-mara", ItemID: "item-cookbook", Kind: domain.KindRating, Rating: intPtr(4), OccurredAt: day("2026-05-18")},
		{ID: "ix-008", UserID: "user-mara", ItemID: "item-planter", Kind: domain.KindPurchase, OccurredAt: day("2026-06-01")},
		{ID: "ix-009", UserID: "user-mara", ItemID: "item-blender", Kind: domain.KindView, OccurredAt: day("2026-06-20")},
		{ID: "ix-010", UserID: "user-dev", ItemID: "item-earbuds", Kind: domain.KindRating, Rating: intPtr(5), OccurredAt: day("2026-06-05")},
		{ID: "ix-011", UserID: "user-dev", ItemID: "item-console", Kind: domain.KindWishlist, OccurredAt: day("2026-06-08")},
		{ID: "ix-012", UserID: "user-dev", ItemID: "item-controller", Kind: domain.KindPurchase, OccurredAt: day("2026-06-18")},
		{ID: "ix-013", UserID: "user-erin", ItemID: "item-headphones", Kind: domain.KindRating, Rating: intPtr(5), OccurredAt: day("2026-05-25")},
		{ID: "ix-014", UserID: "user-erin", ItemID: "item-phone", Kind: domain.KindPurchase, OccurredAt: day("2026-06-03")},
		{ID: "ix-015", UserID: "user-erin", ItemID: "item-laptop", Kind: domain.KindWishlist, OccurredAt: day("2026-06-22")},
		{ID: "ix-016", UserID: "user-frank", ItemID: "item-planter", Kind: domain.KindRating, Rating: intPtr(4), OccurredAt: day("2026-05-17")},
		{ID: "ix-017", UserID: "user-frank", ItemID: "item-novel", Kind: domain.KindPurchase, OccurredAt: day("2026-06-09")},
		{ID: "ix-018", UserID: "user-frank", ItemID: "item-cookbook", Kind: domain.KindView, OccurredAt: day("2026-06-19")},
	}

	return newStore(users, items, interactions)
}

type usersFile struct {
	Users []domain.User `json:"users"`
}

type itemsFile struct {
	Items []domain.Item `json:"items"`
}

type interactionsFile struct {
	Interactions []domain.Interaction `json:"interactions"`
}

// NewFromDir loads users.json, items.json and interactions.json from dir.
// Malformed or missing files abort loading; a dataset that fails to load is
// worse than an obvious startup error.
func NewFromDir(dir string) (*Store, error) {
	var uf usersFile
	if err := readJSONFile(filepath.Join(dir, "users.json"), &uf); err != nil {
		return nil, err
	}
	var itf itemsFile
	if err := readJSONFile(filepath.Join(dir, "items.json"), &itf); err != nil {
		return nil, err
	}
	var ixf interactionsFile
	if err := readJSONFile(filepath.Join(dir, "interactions.json"), &ixf); err != nil {
		return nil, err
	}

	for _, u := range uf.Users {
		if strings.TrimSpace(u.ID) == "" {
			return nil, fmt.Errorf("users.json: user with empty id")
		}
	}
	for _, it := range itf.Items {
		if strings.TrimSpace(it.ID) == "" {
			return nil, fmt.Errorf("items.json: item with empty id")
		}
	}

	return newStore(uf.Users, itf.Items, ixf.Interactions), nil
}

func readJSONFile(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func newStore(users []domain.User, items []domain.Item, interactions []domain.Interaction) *Store {
	userMap := make(map[string]domain.User, len(users))
	for _, u := range users {
		userMap[u.ID] = u
	}
	itemMap := make(map[string]domain.Item, len(items))
	for _, it := range items {
		itemMap[it.ID] = it
	}

	ixLog := make([]domain.Interaction, len(interactions))
	copy(ixLog, interactions)

	return &Store{
		users:              userMap,
		items:              itemMap,
		interactions:       ixLog,
		accountsByUsername: seedAccounts(),
	}
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		return strings.Compare(a.ID, b.ID)
	})
	return users, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyUser := user
	return &copyUser, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" || user.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.users[user.ID]; exists {
		return nil, store.ErrDuplicate
	}

	s.users[user.ID] = user
	created := user
	return &created, nil
}

func (s *Store) ListItems(_ context.Context) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.Item, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it)
	}
	slices.SortFunc(items, func(a, b domain.Item) int {
		if a.Category == b.Category {
			return strings.Compare(a.ID, b.ID)
		}
		return strings.Compare(a.Category, b.Category)
	})
	return items, nil
}

func (s *Store) GetItemByID(_ context.Context, id string) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyItem := item
	return &copyItem, nil
}

func (s *Store) CreateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" || item.Name == "" || item.Category == "" || item.PriceCents < 0 {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.items[item.ID]; exists {
		return nil, store.ErrDuplicate
	}

	s.items[item.ID] = item
	created := item
	return &created, nil
}

func (s *Store) ListInteractions(_ context.Context) ([]domain.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Interaction, len(s.interactions))
	copy(result, s.interactions)
	return result, nil
}

func (s *Store) ListInteractionsByUser(_ context.Context, userID string) ([]domain.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Interaction, 0, 16)
	for _, ix := range s.interactions {
		if ix.UserID == userID {
			result = append(result, ix)
		}
	}
	slices.SortFunc(result, func(a, b domain.Interaction) int {
		return b.OccurredAt.Compare(a.OccurredAt)
	})
	return result, nil
}

func (s *Store) CreateInteraction(_ context.Context, interaction domain.Interaction) (*domain.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if interaction.UserID == "" || interaction.ItemID == "" {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.users[interaction.UserID]; !exists {
		return nil, store.ErrNotFound
	}
	if _, exists := s.items[interaction.ItemID]; !exists {
		return nil, store.ErrNotFound
	}

	if interaction.ID == "" {
		interaction.ID = xid.New("ix")
	}
	if interaction.OccurredAt.IsZero() {
		interaction.OccurredAt = time.Now().UTC()
	}
	s.interactions = append(s.interactions, interaction)
	created := interaction
	return &created, nil
}

func (s *Store) CreateAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if account.Username == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.accountsByUsername[account.Username]; exists {
		return store.ErrDuplicate
	}
	s.accountsByUsername[account.Username] = account
	return nil
}

func (s *Store) ListAccounts(_ context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(s.accountsByUsername))
	for _, a := range s.accountsByUsername {
		accounts = append(accounts, a)
	}
	slices.SortFunc(accounts, func(a, b domain.Account) int {
		return strings.Compare(a.Username, b.Username)
	})
	return accounts, nil
}

func (s *Store) UpdateAccountPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accountsByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	account.Password = password
	s.accountsByUsername[username] = account
	return nil
}
