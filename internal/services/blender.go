package services

import (
	"sort"

	"github.com/teamcobee/roomie/pkg/models"
)

// ScoredCandidate carries one candidate post through the blending pipeline.
// MFScore is nil when the factorization model has no embedding for the pair;
// that is distinct from a true zero affinity and never coerced to one.
type ScoredCandidate struct {
	Post      *models.RecruitPost
	RuleScore float64
	MFScore   *float64
	Blended   float64
}

// Blend combines rule and factorization scores per the active weights and
// returns candidates ranked by blended score descending, ties broken by post
// recency and then post id for determinism.
//
// Factorization scores are min-max normalized over the candidate set being
// ranked (not globally) before blending, so scale drift between training
// runs cannot skew the mix. A candidate with no factorization score gets the
// missing weight redistributed to its rule score: blended == rule.
func Blend(weights BlendWeights, candidates []ScoredCandidate) []ScoredCandidate {
	if len(candidates) == 0 {
		return candidates
	}

	normalizeAffinities(candidates)

	for i := range candidates {
		c := &candidates[i]
		if weights.MF == 0 || c.MFScore == nil {
			c.Blended = c.RuleScore
		} else {
			c.Blended = weights.Rule*c.RuleScore + weights.MF**c.MFScore
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Blended != b.Blended {
			return a.Blended > b.Blended
		}
		if !a.Post.CreatedAt.Equal(b.Post.CreatedAt) {
			return a.Post.CreatedAt.After(b.Post.CreatedAt)
		}
		return a.Post.RecruitPostID < b.Post.RecruitPostID
	})

	return candidates
}

// normalizeAffinities rescales present factorization scores to [0,1] with
// min-max over the candidate set. A single present score, or a flat set,
// normalizes to 0.5.
func normalizeAffinities(candidates []ScoredCandidate) {
	minScore := 0.0
	maxScore := 0.0
	seen := false

	for i := range candidates {
		if candidates[i].MFScore == nil {
			continue
		}
		v := *candidates[i].MFScore
		if !seen {
			minScore, maxScore = v, v
			seen = true
			continue
		}
		if v < minScore {
			minScore = v
		}
		if v > maxScore {
			maxScore = v
		}
	}

	if !seen {
		return
	}

	scoreRange := maxScore - minScore
	for i := range candidates {
		if candidates[i].MFScore == nil {
			continue
		}
		var norm float64
		if scoreRange == 0 {
			norm = 0.5
		} else {
			norm = (*candidates[i].MFScore - minScore) / scoreRange
		}
		candidates[i].MFScore = &norm
	}
}
