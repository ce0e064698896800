package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/teamcobee/roomie/internal/config"
	"github.com/teamcobee/roomie/pkg/models"
)

// RecommendationOrchestrator assembles a ranking for one member: phase
// classification, candidate retrieval, rule scoring, model affinities and
// the final blend, with the result cache in front of the whole pipeline.
type RecommendationOrchestrator struct {
	members    MemberReader
	posts      CandidateSource
	phase      PhaseProvider
	ruleScorer *RuleScorer
	model      ModelProvider
	cache      ResultCacher
	cfg        *config.RecommendationConfig
	logger     *logrus.Logger
	now        func() time.Time
}

func NewRecommendationOrchestrator(
	members MemberReader,
	posts CandidateSource,
	phase PhaseProvider,
	ruleScorer *RuleScorer,
	model ModelProvider,
	cache ResultCacher,
	cfg *config.RecommendationConfig,
	logger *logrus.Logger,
) *RecommendationOrchestrator {
	return &RecommendationOrchestrator{
		members:    members,
		posts:      posts,
		phase:      phase,
		ruleScorer: ruleScorer,
		model:      model,
		cache:      cache,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// GetRecommendations returns the ranked recruiting posts for a member.
// An unknown member is an error; a known member with nothing to rank gets
// an empty list. When explain is set each item carries human-readable
// reasons and the cache is bypassed, since cached entries store none.
func (o *RecommendationOrchestrator) GetRecommendations(
	ctx context.Context, memberID int64, limit int, explain bool,
) (*models.RecommendationResult, error) {
	start := o.now()

	if limit <= 0 {
		limit = o.cfg.DefaultLimit
	}
	if limit > o.cfg.MaxLimit {
		limit = o.cfg.MaxLimit
	}

	member, err := o.members.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	phase, total, err := o.phase.Current(ctx)
	if err != nil {
		return nil, err
	}

	// Count the request as soon as the phase is known so cache hits and
	// recomputes land in the same series.
	defer func() {
		recommendationRequests.WithLabelValues(string(phase)).Inc()
		recommendationDuration.Observe(o.now().Sub(start).Seconds())
	}()

	candidates, err := o.posts.Candidates(ctx, memberID, o.cfg.CandidateFetchLimit)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return &models.RecommendationResult{
			MemberID:    memberID,
			Items:       []models.RecommendationItem{},
			Phase:       phase,
			GeneratedAt: o.now(),
		}, nil
	}

	fp := fingerprint(candidates)

	if !explain {
		if cached := o.cache.Get(ctx, memberID, phase, fp); cached != nil {
			recommendationCacheHits.Inc()
			o.truncate(cached, limit)
			return cached, nil
		}
		recommendationCacheMisses.Inc()
	}

	result := o.rank(member, candidates, phase, explain)
	result.GeneratedAt = o.now()

	if !explain {
		o.cache.Put(ctx, memberID, phase, fp, result)
	}
	o.truncate(result, limit)

	o.logger.WithFields(logrus.Fields{
		"member_id":          memberID,
		"phase":              phase,
		"total_interactions": total,
		"candidates":         len(candidates),
		"returned":           len(result.Items),
	}).Debug("Recommendations generated")

	return result, nil
}

// rank scores every candidate and blends per the phase weights. A missing or
// empty model degrades to rule-only scoring instead of failing the request.
func (o *RecommendationOrchestrator) rank(
	member *models.Member, candidates []models.RecruitPost, phase models.Phase, explain bool,
) *models.RecommendationResult {
	at := o.now()
	weights := o.phase.Weights(phase)

	var snap *ModelSnapshot
	if weights.MF > 0 {
		var ok bool
		snap, ok = o.model.Current()
		if !ok {
			o.logger.WithField("phase", phase).
				Warn("No factorization model published, serving rule-only scores")
			weights = BlendWeights{Rule: 1.0, MF: 0.0}
			modelFallbacks.Inc()
		}
	}

	scored := make([]ScoredCandidate, len(candidates))
	for i := range candidates {
		post := &candidates[i]
		sc := ScoredCandidate{
			Post:      post,
			RuleScore: o.ruleScorer.Score(member, post, at),
		}
		if snap != nil {
			if affinity, ok := snap.Affinity(member.MemberID, post.RecruitPostID); ok {
				sc.MFScore = &affinity
			}
		}
		scored[i] = sc
	}

	ranked := Blend(weights, scored)

	items := make([]models.RecommendationItem, len(ranked))
	for i, sc := range ranked {
		items[i] = models.RecommendationItem{
			RecruitPostID: sc.Post.RecruitPostID,
			Score:         sc.Blended,
			Rank:          i + 1,
		}
		if explain {
			items[i].Reasons = o.ruleScorer.Reasons(member, sc.Post, at)
		}
	}

	result := &models.RecommendationResult{
		MemberID: member.MemberID,
		Items:    items,
		Phase:    phase,
	}
	if snap != nil {
		version := snap.Version
		result.ModelVersion = &version
	}
	return result
}

func (o *RecommendationOrchestrator) truncate(result *models.RecommendationResult, limit int) {
	if len(result.Items) > limit {
		result.Items = result.Items[:limit]
	}
}

// fingerprint identifies the candidate set so cached rankings are dropped
// when the set itself changes.
func fingerprint(candidates []models.RecruitPost) CandidateFingerprint {
	fp := CandidateFingerprint{Count: len(candidates)}
	for i := range candidates {
		if candidates[i].RecruitPostID > fp.MaxPostID {
			fp.MaxPostID = candidates[i].RecruitPostID
		}
	}
	return fp
}
