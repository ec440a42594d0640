package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"sugeria/backend/internal/domain"
	"sugeria/backend/internal/store"
)

func TestInteractionRoundTrip(t *testing.T) {
	databaseURL := os.Getenv("SUGERIA_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set SUGERIA_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	userID := fmt.Sprintf("user-it-%d", stamp)
	itemID := fmt.Sprintf("item-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM interactions WHERE user_id = $1`, userID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, itemID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	})

	if _, err := s.CreateUser(ctx, domain.User{
		ID: userID, Name: "Integration User", Age: 30,
		Gender: "f", Location: "lima", SpendingTier: domain.TierMedium,
		Interests: []string{"tech"},
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := s.CreateUser(ctx, domain.User{ID: userID, Name: "Dup", Age: 30}); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on second insert, got %v", err)
	}

	if _, err := s.CreateItem(ctx, domain.Item{
		ID: itemID, Name: "Integration Item", Category: "tech",
		PriceCents: 4500, Quality: 4.0, Popularity: 50, Tags: []string{"gadget"},
	}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	rating := 4
	created, err := s.CreateInteraction(ctx, domain.Interaction{
		UserID: userID, ItemID: itemID, Kind: domain.KindRating, Rating: &rating,
	})
	if err != nil {
		t.Fatalf("create interaction: %v", err)
	}
	if created.ID == "" || created.OccurredAt.IsZero() {
		t.Fatalf("expected generated id and timestamp, got %+v", created)
	}

	if _, err := s.CreateInteraction(ctx, domain.Interaction{
		UserID: "user-missing", ItemID: itemID, Kind: domain.KindView,
	}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for dangling user, got %v", err)
	}

	listed, err := s.ListInteractionsByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list interactions: %v", err)
	}
	if len(listed) != 1 || listed[0].ItemID != itemID {
		t.Fatalf("unexpected interactions: %+v", listed)
	}
	if listed[0].Rating == nil || *listed[0].Rating != rating {
		t.Fatalf("rating did not round-trip: %+v", listed[0])
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(user.Interests) != 1 || user.Interests[0] != "tech" {
		t.Fatalf("interests did not round-trip: %+v", user.Interests)
	}
}
