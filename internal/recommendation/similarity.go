package recommendation

import (
	"math"
	"sort"

	"sugeria/backend/internal/domain"
)

// peer is one neighbor in the similarity ranking for a user.
type peer struct {
	userID     string
	similarity float64
}

// jaccard returns |a∩b| / |a∪b|. Two empty sets share nothing, so the
// overlap is 0, not 1.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// demographicCloseness scores how alike two users look on paper. The age term
// decays linearly and hits zero once the gap reaches the configured tolerance;
// gender and location are exact-match boosts.
func (e *Engine) demographicCloseness(a, b domain.User) float64 {
	w := e.cfg.Similarity.Demographic

	ageGap := math.Abs(float64(a.Age - b.Age))
	tolerance := float64(e.cfg.Similarity.AgeToleranceYears)
	ageTerm := 0.0
	if ageGap < tolerance {
		ageTerm = 1 - ageGap/tolerance
	}

	score := w.AgeWeight * ageTerm
	if a.Gender != "" && a.Gender == b.Gender {
		score += w.SameGenderBoost
	}
	if a.Location != "" && a.Location == b.Location {
		score += w.SameLocationBoost
	}
	return score
}

// similarity computes the pairwise user similarity in [0, 1]. It blends the
// overlap of strongly-interacted items, demographic closeness, and interest
// overlap; the three weights sum to 1, keeping the result bounded.
func (e *Engine) similarity(a, b domain.User, idx *index) float64 {
	w := e.cfg.Similarity

	itemTerm := jaccard(idx.strongItemsByUser[a.ID], idx.strongItemsByUser[b.ID])
	demoTerm := e.demographicCloseness(a, b)
	interestTerm := jaccard(toSet(a.Interests), toSet(b.Interests))

	return w.ItemOverlapWeight*itemTerm + w.DemographicWeight*demoTerm + w.InterestWeight*interestTerm
}

// topPeers ranks every other user by similarity to the target, most similar
// first. Ties break on user ID so the ordering is stable across runs.
func (e *Engine) topPeers(target domain.User, n int, ds Dataset, idx *index) []peer {
	peers := make([]peer, 0, len(ds.Users))
	for id, candidate := range ds.Users {
		if id == target.ID {
			continue
		}
		peers = append(peers, peer{userID: id, similarity: e.similarity(target, candidate, idx)})
	}

	sort.Slice(peers, func(i, j int) bool {
		if peers[i].similarity != peers[j].similarity {
			return peers[i].similarity > peers[j].similarity
		}
		return peers[i].userID < peers[j].userID
	})

	if n > 0 && len(peers) > n {
		peers = peers[:n]
	}
	return peers
}
