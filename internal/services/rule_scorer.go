package services

import (
	"fmt"
	"math"
	"time"

	"github.com/teamcobee/roomie/internal/config"
	"github.com/teamcobee/roomie/pkg/models"
)

// RuleScorer computes a deterministic attribute-compatibility score in [0,1]
// between a requesting member and a recruiting post. It is pure: identical
// inputs always produce the identical score.
type RuleScorer struct {
	weights            config.RuleWeightsConfig
	maxCohabitantRange int
}

func NewRuleScorer(cfg *config.RecommendationConfig) *RuleScorer {
	maxRange := cfg.MaxCohabitantRange
	if maxRange <= 0 {
		maxRange = 5
	}
	return &RuleScorer{
		weights:            cfg.RuleWeights,
		maxCohabitantRange: maxRange,
	}
}

// Score evaluates member against post at the given reference time (ages are
// computed relative to it). Posts must already be filtered to RECRUITING.
func (s *RuleScorer) Score(member *models.Member, post *models.RecruitPost, at time.Time) float64 {
	w := s.weights

	type sub struct {
		weight float64
		score  float64
	}

	subs := []sub{
		{w.Gender, genderScore(member, post)},
		{w.Lifestyle, lifestyleScore(member, post)},
		{w.Personality, personalityScore(member, post)},
		{w.Smoking, habitScore(member.IsSmoking, post.SmokingAllowed, post.AuthorIsSmoking, member.PossibleSmoking)},
		{w.Snoring, habitScore(member.IsSnoring, post.SnoringAllowed, post.AuthorIsSnoring, member.PossibleSnoring)},
		{w.Pet, habitScore(member.HasPet, post.PetAllowed, post.AuthorHasPet, member.HasPetAllowed)},
		{w.Age, ageScore(member, post, at)},
		{w.Cohabitant, s.cohabitantScore(member, post)},
	}

	// The cost sub-score only participates when the member has stated a
	// budget; otherwise its weight is redistributed proportionally by
	// leaving it out of the normalization sum.
	if member.BudgetMin != nil && member.BudgetMax != nil {
		subs = append(subs, sub{w.Cost, costOverlapScore(member, post)})
	}

	var weightSum, total float64
	for _, sc := range subs {
		if sc.weight <= 0 {
			continue
		}
		weightSum += sc.weight
		total += sc.weight * sc.score
	}

	if weightSum == 0 {
		return 0
	}

	score := total / weightSum
	return math.Max(0, math.Min(1, score))
}

// Reasons produces human-readable match explanations for a candidate,
// mirroring the sub-scores that contributed.
func (s *RuleScorer) Reasons(member *models.Member, post *models.RecruitPost, at time.Time) []string {
	var reasons []string

	if genderScore(member, post) == 1 {
		reasons = append(reasons, "gender preference matched")
	}
	if member.PreferredLifeStyle != "" && member.PreferredLifeStyle == post.AuthorLifestyle {
		reasons = append(reasons, fmt.Sprintf("lifestyle matched (%s)", member.PreferredLifeStyle))
	}
	if member.PreferredPersonality != "" && member.PreferredPersonality == post.AuthorPersonality {
		reasons = append(reasons, fmt.Sprintf("personality matched (%s)", member.PreferredPersonality))
	}
	if ageScore(member, post, at) == 1 {
		reasons = append(reasons, "preferred age ranges compatible")
	}
	if habitScore(member.IsSmoking, post.SmokingAllowed, post.AuthorIsSmoking, member.PossibleSmoking) == 1 {
		reasons = append(reasons, "smoking habits compatible")
	}
	if habitScore(member.IsSnoring, post.SnoringAllowed, post.AuthorIsSnoring, member.PossibleSnoring) == 1 {
		reasons = append(reasons, "snoring tolerance compatible")
	}
	if habitScore(member.HasPet, post.PetAllowed, post.AuthorHasPet, member.HasPetAllowed) == 1 {
		reasons = append(reasons, "pet ownership compatible")
	}

	return reasons
}

// genderScore: the post's preferred gender is open (NONE/empty) or matches
// the requester.
func genderScore(member *models.Member, post *models.RecruitPost) float64 {
	if post.PreferredGender == "" || post.PreferredGender == models.GenderNone {
		return 1
	}
	if post.PreferredGender == member.Gender {
		return 1
	}
	return 0
}

// lifestyleScore averages both directions: the requester's preference against
// the author's lifestyle, and the post's preference against the requester's.
// An unstated preference counts as a match for its direction.
func lifestyleScore(member *models.Member, post *models.RecruitPost) float64 {
	var score float64
	if member.PreferredLifeStyle == "" || member.PreferredLifeStyle == post.AuthorLifestyle {
		score += 0.5
	}
	if post.PreferredLifeStyle == "" || post.PreferredLifeStyle == member.MyLifestyle {
		score += 0.5
	}
	return score
}

func personalityScore(member *models.Member, post *models.RecruitPost) float64 {
	var score float64
	if member.PreferredPersonality == "" || member.PreferredPersonality == post.AuthorPersonality {
		score += 0.5
	}
	if post.PreferredPersonality == "" || post.PreferredPersonality == member.MyPersonality {
		score += 0.5
	}
	return score
}

// habitScore: the household tolerates the requester's habit and the requester
// tolerates the author's.
func habitScore(memberHas, postTolerates, authorHas, memberTolerates bool) float64 {
	if memberHas && !postTolerates {
		return 0
	}
	if authorHas && !memberTolerates {
		return 0
	}
	return 1
}

// ageScore: bidirectional range containment. An unset range (zero bounds)
// passes for its direction.
func ageScore(member *models.Member, post *models.RecruitPost, at time.Time) float64 {
	memberAge := member.AgeAt(at)
	authorAge := post.AuthorAgeAt(at)

	if post.PreferredAgeMin > 0 && post.PreferredAgeMax > 0 {
		if memberAge < post.PreferredAgeMin || memberAge > post.PreferredAgeMax {
			return 0
		}
	}
	if member.PreferredAgeMin > 0 && member.PreferredAgeMax > 0 {
		if authorAge < member.PreferredAgeMin || authorAge > member.PreferredAgeMax {
			return 0
		}
	}
	return 1
}

// cohabitantScore decays linearly with the difference in cohabitant counts
// instead of a binary cutoff.
func (s *RuleScorer) cohabitantScore(member *models.Member, post *models.RecruitPost) float64 {
	diff := math.Abs(float64(member.CohabitantCount - post.CohabitantCount))
	return 1 - math.Min(1, diff/float64(s.maxCohabitantRange))
}

// costOverlapScore measures how much of the narrower of the two monthly cost
// ranges is covered by their intersection. Only called when the member has a
// stated budget; a post without cost bounds scores neutral.
func costOverlapScore(member *models.Member, post *models.RecruitPost) float64 {
	if post.MonthlyCostMin == nil || post.MonthlyCostMax == nil {
		return 0.5
	}

	lo := math.Max(float64(*member.BudgetMin), float64(*post.MonthlyCostMin))
	hi := math.Min(float64(*member.BudgetMax), float64(*post.MonthlyCostMax))
	overlap := hi - lo
	if overlap < 0 {
		return 0
	}

	memberRange := float64(*member.BudgetMax - *member.BudgetMin)
	postRange := float64(*post.MonthlyCostMax - *post.MonthlyCostMin)
	minRange := math.Min(memberRange, postRange)
	if minRange <= 0 {
		// Degenerate ranges: any intersection at all is a full match.
		return 1
	}

	return math.Min(1, overlap/minRange)
}
