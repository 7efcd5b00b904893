package retrieval

import (
	"strings"

	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/store"
)

// Diversify selects up to k candidates by Maximal Marginal Relevance:
// argmax over remaining candidates of
//
//	lambda*relevance - (1-lambda)*maxSimilarityToSelected
//
// Similarity-to-selected is token-set overlap (Jaccard) over title+content.
// Ties break by higher raw relevance, then by a category not yet present in
// the selection. Pure and order-independent: sorting the input by score
// first makes the outcome deterministic for identical candidate sets.
func Diversify(candidates []store.Candidate, k int, lambda float64) []store.Candidate {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	remaining := make([]store.Candidate, len(candidates))
	copy(remaining, candidates)
	sortByScoreDesc(remaining)

	tokens := make([]map[string]bool, len(remaining))
	for i, c := range remaining {
		tokens[i] = tokenSet(c.Title + " " + c.Content)
	}

	var selected []store.Candidate
	var selectedTokens []map[string]bool
	seenCategories := make(map[string]bool)
	used := make([]bool, len(remaining))

	for len(selected) < k {
		best := -1
		var bestScore float64
		for i, c := range remaining {
			if used[i] {
				continue
			}
			maxSim := 0.0
			for _, st := range selectedTokens {
				if s := jaccard(tokens[i], st); s > maxSim {
					maxSim = s
				}
			}
			score := lambda*c.SimilarityScore - (1-lambda)*maxSim
			if best == -1 || score > bestScore ||
				(score == bestScore && breaksTie(c, remaining[best], seenCategories)) {
				best = i
				bestScore = score
			}
		}
		if best == -1 {
			break
		}
		used[best] = true
		selected = append(selected, remaining[best])
		selectedTokens = append(selectedTokens, tokens[best])
		seenCategories[remaining[best].Category] = true
	}
	return selected
}

// breaksTie reports whether challenger should win an exact MMR-score tie
// against incumbent: higher raw relevance first, then an unrepresented
// category.
func breaksTie(challenger, incumbent store.Candidate, seen map[string]bool) bool {
	if challenger.SimilarityScore != incumbent.SimilarityScore {
		return challenger.SimilarityScore > incumbent.SimilarityScore
	}
	return !seen[challenger.Category] && seen[incumbent.Category]
}

func sortByScoreDesc(cs []store.Candidate) {
	// Insertion sort keeps equal-score candidates in input order, which the
	// rank-stability guarantee depends on.
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j].SimilarityScore > cs[j-1].SimilarityScore; j-- {
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if b[tok] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
