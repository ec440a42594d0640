package recommendation

import (
	"fmt"
	"sort"
	"strings"

	"sugeria/backend/internal/domain"
)

const (
	explainPeerSimilarityFloor = 0.3
	explainPeerCount           = 3
	explainPopularityFloor     = 80
	defaultExplanation         = "Selected especially for you"
)

// explain collects every justification that holds for one recommended item.
// Each check is independent; when none fire the caller still gets a friendly
// default.
func (e *Engine) explain(user domain.User, item domain.Item, ds Dataset, idx *index, peers []peer) []string {
	var reasons []string
	interests := toSet(user.Interests)

	var tagMatches []string
	for _, tag := range item.Tags {
		if _, ok := interests[tag]; ok {
			tagMatches = append(tagMatches, tag)
		}
	}
	sort.Strings(tagMatches)
	switch {
	case len(tagMatches) == 1:
		reasons = append(reasons, fmt.Sprintf("Matches your interest in %s", tagMatches[0]))
	case len(tagMatches) > 1:
		reasons = append(reasons, fmt.Sprintf("Matches your interests: %s", strings.Join(tagMatches, ", ")))
	}
	if _, ok := interests[item.Category]; ok {
		reasons = append(reasons, fmt.Sprintf("You like the %s category", item.Category))
	}

	if item.HasTargetAgeRange() && user.Age >= *item.TargetAgeMin && user.Age <= *item.TargetAgeMax {
		reasons = append(reasons, "A good fit for your age group")
	}

	if e.priceTierFits(user.SpendingTier, item.PriceCents) {
		switch user.SpendingTier {
		case domain.TierHigh:
			reasons = append(reasons, "A premium pick that fits your profile")
		case domain.TierLow:
			reasons = append(reasons, "An affordable, budget-friendly price")
		default:
			reasons = append(reasons, "Balanced price for your range")
		}
	}

	switch {
	case item.Quality >= 4.5:
		reasons = append(reasons, fmt.Sprintf("Excellent rating (%.1f/5)", item.Quality))
	case item.Quality >= 4.0:
		reasons = append(reasons, fmt.Sprintf("Good rating (%.1f/5)", item.Quality))
	}

	if peerAlsoLiked(item.ID, idx, peers) {
		reasons = append(reasons, "Users with a similar profile also liked this")
	}

	if item.Popularity >= explainPopularityFloor {
		reasons = append(reasons, "Very popular right now")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, defaultExplanation)
	}
	return reasons
}

// peerAlsoLiked reports whether any of the closest peers above the similarity
// floor has purchased or rated the item.
func peerAlsoLiked(itemID string, idx *index, peers []peer) bool {
	for i, p := range peers {
		if i >= explainPeerCount {
			break
		}
		if p.similarity <= explainPeerSimilarityFloor {
			continue
		}
		for _, ix := range idx.interactionsByUser[p.userID] {
			if ix.ItemID == itemID && ix.Kind.CountsForCollaborative() {
				return true
			}
		}
	}
	return false
}
