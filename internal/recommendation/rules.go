package recommendation

import (
	"sugeria/backend/internal/domain"
)

// businessRule is one merchandising adjustment. Rules run in declaration
// order after the hybrid blend; each one multiplies the scores of the
// candidates it matches.
type businessRule struct {
	name    string
	boost   float64
	applies func(user domain.User) bool
	matches func(e *Engine, user domain.User, item domain.Item) bool
}

const (
	youngAdultMaxAge   = 35
	techCategory       = "tech"
	trendingPopularity = 75
)

func anyUser(domain.User) bool { return true }

// defaultRules is the fixed rule set. Order matters only for readability
// today since boosts are multiplicative, but new rules that filter should
// keep the declaration order meaningful.
func defaultRules() []businessRule {
	return []businessRule{
		{
			name:    "young-adult-tech",
			boost:   1.3,
			applies: func(u domain.User) bool { return u.Age < youngAdultMaxAge },
			matches: func(_ *Engine, _ domain.User, item domain.Item) bool {
				return item.Category == techCategory
			},
		},
		{
			name:    "high-spender",
			boost:   1.2,
			applies: func(u domain.User) bool { return u.SpendingTier == domain.TierHigh },
			matches: func(_ *Engine, _ domain.User, _ domain.Item) bool { return true },
		},
		{
			name:    "budget-pick",
			boost:   1.4,
			applies: func(u domain.User) bool { return u.SpendingTier == domain.TierLow },
			matches: func(e *Engine, _ domain.User, item domain.Item) bool {
				return item.PriceCents <= e.cfg.Content.LowTierMaxPriceCents
			},
		},
		{
			name:    "trending",
			boost:   1.1,
			applies: anyUser,
			matches: func(_ *Engine, _ domain.User, item domain.Item) bool {
				return item.Popularity >= trendingPopularity
			},
		},
	}
}

// applyRules runs every applicable rule over the blended scores in place.
func (e *Engine) applyRules(user domain.User, scores map[string]float64, ds Dataset) {
	if !e.cfg.Rules.Enabled {
		return
	}
	for _, rule := range e.rules {
		if !rule.applies(user) {
			continue
		}
		for id := range scores {
			item, ok := ds.Items[id]
			if !ok {
				continue
			}
			if rule.matches(e, user, item) {
				scores[id] *= rule.boost
			}
		}
	}
}
