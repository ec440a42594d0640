package recommendation

import (
	"sugeria/backend/internal/domain"
)

// unratedPurchaseValue stands in for a missing rating on a purchase. A
// purchase without a score is still a strong endorsement, just not a perfect
// one.
const unratedPurchaseValue = 0.8

// scoredItem pairs a candidate with its accumulated score.
type scoredItem struct {
	itemID string
	score  float64
}

// endorsementValue maps an interaction to its normalized strength in [0, 1].
// Only purchases and ratings count here; the second return is false for
// everything else.
func endorsementValue(ix domain.Interaction) (float64, bool) {
	if !ix.Kind.CountsForCollaborative() {
		return 0, false
	}
	if ix.Rating != nil {
		return float64(*ix.Rating) / 5.0, true
	}
	if ix.Kind == domain.KindPurchase {
		return unratedPurchaseValue, true
	}
	return 0, false
}

// recommendCollaborative scores candidates by what the target's nearest peers
// endorsed, weighted by how similar each peer is. Items the target has
// already seen never come back.
func (e *Engine) recommendCollaborative(user domain.User, n int, ds Dataset, idx *index) []scoredItem {
	peers := e.topPeers(user, e.cfg.TopPeers, ds, idx)

	scores := make(map[string]float64)
	for _, p := range peers {
		if p.similarity <= 0 {
			continue
		}
		for _, ix := range idx.interactionsByUser[p.userID] {
			if idx.hasSeen(user.ID, ix.ItemID) {
				continue
			}
			if _, ok := ds.Items[ix.ItemID]; !ok {
				continue
			}
			value, ok := endorsementValue(ix)
			if !ok {
				continue
			}
			scores[ix.ItemID] += p.similarity * value
		}
	}

	return topScored(scores, n)
}
