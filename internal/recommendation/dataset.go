package recommendation

import (
	"sugeria/backend/internal/domain"
)

// Dataset is a point-in-time snapshot of the three recommendation tables.
// Scoring never mutates it, so a snapshot can be shared across the whole
// request without locking.
type Dataset struct {
	Users        map[string]domain.User
	Items        map[string]domain.Item
	Interactions []domain.Interaction
}

// NewDataset indexes the raw table slices by identifier.
func NewDataset(users []domain.User, items []domain.Item, interactions []domain.Interaction) Dataset {
	userMap := make(map[string]domain.User, len(users))
	for _, u := range users {
		userMap[u.ID] = u
	}
	itemMap := make(map[string]domain.Item, len(items))
	for _, it := range items {
		itemMap[it.ID] = it
	}
	return Dataset{Users: userMap, Items: itemMap, Interactions: interactions}
}

// index holds the per-user views of the interaction log that every scorer
// needs. Built once per request.
type index struct {
	interactionsByUser map[string][]domain.Interaction
	// strongItemsByUser feeds the item-overlap similarity term
	// (purchase/rating/wishlist).
	strongItemsByUser map[string]map[string]struct{}
	// seenItemsByUser holds every item a user touched, including views.
	// Anything here is excluded from that user's recommendations.
	seenItemsByUser map[string]map[string]struct{}
}

func buildIndex(ds Dataset) *index {
	idx := &index{
		interactionsByUser: make(map[string][]domain.Interaction, len(ds.Users)),
		strongItemsByUser:  make(map[string]map[string]struct{}, len(ds.Users)),
		seenItemsByUser:    make(map[string]map[string]struct{}, len(ds.Users)),
	}

	for _, ix := range ds.Interactions {
		idx.interactionsByUser[ix.UserID] = append(idx.interactionsByUser[ix.UserID], ix)

		seen := idx.seenItemsByUser[ix.UserID]
		if seen == nil {
			seen = make(map[string]struct{}, 8)
			idx.seenItemsByUser[ix.UserID] = seen
		}
		seen[ix.ItemID] = struct{}{}

		if ix.Kind.IsStrong() {
			strong := idx.strongItemsByUser[ix.UserID]
			if strong == nil {
				strong = make(map[string]struct{}, 8)
				idx.strongItemsByUser[ix.UserID] = strong
			}
			strong[ix.ItemID] = struct{}{}
		}
	}

	return idx
}

func (idx *index) hasSeen(userID string, itemID string) bool {
	_, seen := idx.seenItemsByUser[userID][itemID]
	return seen
}
