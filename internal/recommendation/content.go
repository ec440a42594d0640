package recommendation

import (
	"sugeria/backend/internal/domain"
)

// ageFitPartialCredit is granted when the user falls outside an item's target
// age range but within agePartialWindow years of its nearest boundary.
const (
	ageFitPartialCredit = 0.75
	agePartialWindow    = 5
)

// ageFit returns 1 inside the item's target range, a partial credit just
// outside it, and 0 otherwise. Items without a range contribute nothing.
func ageFit(user domain.User, item domain.Item) float64 {
	if !item.HasTargetAgeRange() {
		return 0
	}
	min, max := *item.TargetAgeMin, *item.TargetAgeMax
	switch {
	case user.Age >= min && user.Age <= max:
		return 1
	case user.Age >= min-agePartialWindow && user.Age <= max+agePartialWindow:
		return ageFitPartialCredit
	default:
		return 0
	}
}

// priceTierFits reports whether an item's price sits where the user's
// spending tier shops. Medium spenders take a generous band stretching from
// 65% of the low-tier cap up to twice the high-tier floor.
func (e *Engine) priceTierFits(tier domain.SpendingTier, priceCents int64) bool {
	w := e.cfg.Content
	switch tier {
	case domain.TierLow:
		return priceCents <= w.LowTierMaxPriceCents
	case domain.TierHigh:
		return priceCents >= w.HighTierMinPriceCents
	default:
		return float64(priceCents) >= 0.65*float64(w.LowTierMaxPriceCents) &&
			priceCents <= 2*w.HighTierMinPriceCents
	}
}

// contentScore rates how well a single item matches the user's stated
// profile. Each factor contributes additively; a price-tier mismatch is the
// only term that subtracts.
func (e *Engine) contentScore(user domain.User, item domain.Item) float64 {
	w := e.cfg.Content
	interests := toSet(user.Interests)

	score := 0.0
	if _, ok := interests[item.Category]; ok {
		score += w.CategoryInterestWeight
	}

	tagHits := 0
	for _, tag := range item.Tags {
		if _, ok := interests[tag]; ok {
			tagHits++
		}
	}
	score += float64(tagHits) * w.TagInterestWeight

	// Full age fit is worth the configured weight; the near-miss credit is
	// a fixed bonus that does not scale with it.
	if fit := ageFit(user, item); fit == 1 {
		score += w.AgeFitWeight
	} else {
		score += fit
	}
	score += item.Quality / 5.0 * w.QualityWeight
	score += float64(item.Popularity) / 100.0 * w.PopularityWeight

	if e.priceTierFits(user.SpendingTier, item.PriceCents) {
		score += w.PriceFitWeight
	} else {
		score -= w.PricePenalty
	}

	return score
}

// recommendContent scores the whole catalog against the user's profile,
// dropping seen items and anything that nets zero or less.
func (e *Engine) recommendContent(user domain.User, n int, ds Dataset, idx *index) []scoredItem {
	scores := make(map[string]float64)
	for id, item := range ds.Items {
		if idx.hasSeen(user.ID, id) {
			continue
		}
		if s := e.contentScore(user, item); s > 0 {
			scores[id] = s
		}
	}
	return topScored(scores, n)
}
