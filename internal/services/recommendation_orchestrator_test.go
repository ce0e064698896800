package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/teamcobee/roomie/pkg/models"
)

type mockMemberReader struct {
	mock.Mock
}

func (m *mockMemberReader) GetMember(ctx context.Context, memberID int64) (*models.Member, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

type mockCandidateSource struct {
	mock.Mock
}

func (m *mockCandidateSource) Candidates(ctx context.Context, memberID int64, limit int) ([]models.RecruitPost, error) {
	args := m.Called(ctx, memberID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RecruitPost), args.Error(1)
}

type mockPhaseProvider struct {
	mock.Mock
}

func (m *mockPhaseProvider) Current(ctx context.Context) (models.Phase, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Phase), args.Get(1).(int64), args.Error(2)
}

func (m *mockPhaseProvider) Weights(phase models.Phase) BlendWeights {
	args := m.Called(phase)
	return args.Get(0).(BlendWeights)
}

type mockModelProvider struct {
	mock.Mock
}

func (m *mockModelProvider) Current() (*ModelSnapshot, bool) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*ModelSnapshot), args.Bool(1)
}

type mockResultCache struct {
	mock.Mock
}

func (m *mockResultCache) Get(ctx context.Context, memberID int64, phase models.Phase, fp CandidateFingerprint) *models.RecommendationResult {
	args := m.Called(ctx, memberID, phase, fp)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.RecommendationResult)
}

func (m *mockResultCache) Put(ctx context.Context, memberID int64, phase models.Phase, fp CandidateFingerprint, result *models.RecommendationResult) {
	m.Called(ctx, memberID, phase, fp, result)
}

func (m *mockResultCache) InvalidateMember(ctx context.Context, memberID int64) error {
	args := m.Called(ctx, memberID)
	return args.Error(0)
}

func (m *mockResultCache) InvalidateAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// syntheticSnapshot builds a two-post model where member 1 has a strong
// affinity for post 101 and a weak one for post 102; post 103 is unseen.
func syntheticSnapshot() *ModelSnapshot {
	return &ModelSnapshot{
		Version:       uuid.New(),
		TrainedAt:     time.Now(),
		Factors:       2,
		memberIndex:   map[int64]int{1: 0},
		postIndex:     map[int64]int{101: 0, 102: 1},
		memberFactors: mat.NewDense(1, 2, []float64{1.0, 0.5}),
		postFactors:   mat.NewDense(2, 2, []float64{2.0, 1.0, -1.0, 0.2}),
		memberBias:    []float64{0.1},
		postBias:      []float64{0.2, -0.3},
		globalBias:    3.0,
	}
}

func orchestratorFixture(t *testing.T) (*RecommendationOrchestrator, *mockMemberReader, *mockCandidateSource, *mockPhaseProvider, *mockModelProvider, *mockResultCache) {
	t.Helper()

	members := new(mockMemberReader)
	posts := new(mockCandidateSource)
	phase := new(mockPhaseProvider)
	model := new(mockModelProvider)
	cache := new(mockResultCache)

	cfg := testRecommendationConfig()
	orchestrator := NewRecommendationOrchestrator(
		members, posts, phase, NewRuleScorer(cfg), model, cache, cfg, quietLogger(),
	)
	orchestrator.now = func() time.Time { return scoreTime }

	return orchestrator, members, posts, phase, model, cache
}

func threeCandidates() []models.RecruitPost {
	mk := func(id int64, age time.Duration) models.RecruitPost {
		p := *compatiblePost()
		p.RecruitPostID = id
		p.CreatedAt = scoreTime.Add(-age)
		return p
	}
	return []models.RecruitPost{
		mk(101, 72*time.Hour),
		mk(102, 48*time.Hour),
		mk(103, 24*time.Hour),
	}
}

func TestOrchestrator_MemberNotFound(t *testing.T) {
	orchestrator, members, _, _, _, _ := orchestratorFixture(t)

	members.On("GetMember", mock.Anything, int64(404)).Return(nil, ErrMemberNotFound)

	_, err := orchestrator.GetRecommendations(context.Background(), 404, 10, false)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestOrchestrator_EmptyCandidatesIsEmptyResult(t *testing.T) {
	orchestrator, members, posts, phase, _, _ := orchestratorFixture(t)

	members.On("GetMember", mock.Anything, int64(1)).Return(compatibleMember(), nil)
	phase.On("Current", mock.Anything).Return(models.PhaseP1, int64(10), nil)
	posts.On("Candidates", mock.Anything, int64(1), 500).Return([]models.RecruitPost{}, nil)

	result, err := orchestrator.GetRecommendations(context.Background(), 1, 10, false)
	require.NoError(t, err)
	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Items)
	assert.Equal(t, models.PhaseP1, result.Phase)
}

func TestOrchestrator_P1IgnoresModel(t *testing.T) {
	orchestrator, members, posts, phase, model, cache := orchestratorFixture(t)

	members.On("GetMember", mock.Anything, int64(1)).Return(compatibleMember(), nil)
	phase.On("Current", mock.Anything).Return(models.PhaseP1, int64(50), nil)
	phase.On("Weights", models.PhaseP1).Return(BlendWeights{Rule: 1.0, MF: 0.0})
	posts.On("Candidates", mock.Anything, int64(1), 500).Return(threeCandidates(), nil)
	cache.On("Get", mock.Anything, int64(1), models.PhaseP1, mock.Anything).Return(nil)
	cache.On("Put", mock.Anything, int64(1), models.PhaseP1, mock.Anything, mock.Anything).Return()

	result, err := orchestrator.GetRecommendations(context.Background(), 1, 10, false)
	require.NoError(t, err)
	require.Len(t, result.Items, 3)

	// Identical rule scores: recency breaks the tie, and the model is never
	// consulted in P1.
	assert.Equal(t, int64(103), result.Items[0].RecruitPostID)
	assert.Equal(t, int64(102), result.Items[1].RecruitPostID)
	assert.Equal(t, int64(101), result.Items[2].RecruitPostID)
	assert.Nil(t, result.ModelVersion)
	model.AssertNotCalled(t, "Current")

	for i, item := range result.Items {
		assert.Equal(t, i+1, item.Rank)
	}
}

func TestOrchestrator_P2BlendsModelScores(t *testing.T) {
	orchestrator, members, posts, phase, model, cache := orchestratorFixture(t)

	snap := syntheticSnapshot()
	members.On("GetMember", mock.Anything, int64(1)).Return(compatibleMember(), nil)
	phase.On("Current", mock.Anything).Return(models.PhaseP2, int64(500), nil)
	phase.On("Weights", models.PhaseP2).Return(BlendWeights{Rule: 0.6, MF: 0.4})
	posts.On("Candidates", mock.Anything, int64(1), 500).Return(threeCandidates(), nil)
	model.On("Current").Return(snap, true)
	cache.On("Get", mock.Anything, int64(1), models.PhaseP2, mock.Anything).Return(nil)
	cache.On("Put", mock.Anything, int64(1), models.PhaseP2, mock.Anything, mock.Anything).Return()

	result, err := orchestrator.GetRecommendations(context.Background(), 1, 10, false)
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	require.NotNil(t, result.ModelVersion)
	assert.Equal(t, snap.Version, *result.ModelVersion)

	scores := map[int64]float64{}
	for _, item := range result.Items {
		scores[item.RecruitPostID] = item.Score
	}

	// Rule scores are all 1.0. Post 101 (high affinity, normalized to 1)
	// blends to 1.0; post 102 (low, normalized to 0) to 0.6. Post 103 has
	// no embedding, so its blended score equals its rule score exactly.
	assert.InDelta(t, 1.0, scores[101], 1e-9)
	assert.InDelta(t, 0.6, scores[102], 1e-9)
	assert.Equal(t, 1.0, scores[103])

	// 103 outranks 101 on the tie: same blended score, newer post.
	assert.Equal(t, int64(103), result.Items[0].RecruitPostID)
	assert.Equal(t, int64(101), result.Items[1].RecruitPostID)
}

func TestOrchestrator_MissingModelDegradesToRuleOnly(t *testing.T) {
	orchestrator, members, posts, phase, model, cache := orchestratorFixture(t)

	members.On("GetMember", mock.Anything, int64(1)).Return(compatibleMember(), nil)
	phase.On("Current", mock.Anything).Return(models.PhaseP3, int64(5000), nil)
	phase.On("Weights", models.PhaseP3).Return(BlendWeights{Rule: 0.2, MF: 0.8})
	posts.On("Candidates", mock.Anything, int64(1), 500).Return(threeCandidates(), nil)
	model.On("Current").Return(nil, false)
	cache.On("Get", mock.Anything, int64(1), models.PhaseP3, mock.Anything).Return(nil)
	cache.On("Put", mock.Anything, int64(1), models.PhaseP3, mock.Anything, mock.Anything).Return()

	result, err := orchestrator.GetRecommendations(context.Background(), 1, 10, false)
	require.NoError(t, err)
	require.Len(t, result.Items, 3)

	// Full rule scores survive undamped; nothing multiplied by 0.2.
	for _, item := range result.Items {
		assert.InDelta(t, 1.0, item.Score, 1e-9)
	}
	assert.Nil(t, result.ModelVersion)
}

func TestOrchestrator_CacheHitSkipsScoring(t *testing.T) {
	orchestrator, members, posts, phase, model, cache := orchestratorFixture(t)

	cached := &models.RecommendationResult{
		MemberID: 1,
		Items: []models.RecommendationItem{
			{RecruitPostID: 101, Score: 0.9, Rank: 1},
			{RecruitPostID: 102, Score: 0.7, Rank: 2},
		},
		Phase:    models.PhaseP2,
		CacheHit: true,
	}

	members.On("GetMember", mock.Anything, int64(1)).Return(compatibleMember(), nil)
	phase.On("Current", mock.Anything).Return(models.PhaseP2, int64(500), nil)
	posts.On("Candidates", mock.Anything, int64(1), 500).Return(threeCandidates(), nil)
	cache.On("Get", mock.Anything, int64(1), models.PhaseP2, mock.Anything).Return(cached)

	result, err := orchestrator.GetRecommendations(context.Background(), 1, 10, false)
	require.NoError(t, err)
	assert.True(t, result.CacheHit)
	assert.Len(t, result.Items, 2)

	model.AssertNotCalled(t, "Current")
	cache.AssertNotCalled(t, "Put")
}

func TestOrchestrator_CacheHitCountedAsRequest(t *testing.T) {
	orchestrator, members, posts, phase, _, cache := orchestratorFixture(t)

	cached := &models.RecommendationResult{
		MemberID: 1,
		Items:    []models.RecommendationItem{{RecruitPostID: 101, Score: 0.9, Rank: 1}},
		Phase:    models.PhaseP2,
		CacheHit: true,
	}

	members.On("GetMember", mock.Anything, int64(1)).Return(compatibleMember(), nil)
	phase.On("Current", mock.Anything).Return(models.PhaseP2, int64(500), nil)
	posts.On("Candidates", mock.Anything, int64(1), 500).Return(threeCandidates(), nil)
	cache.On("Get", mock.Anything, int64(1), models.PhaseP2, mock.Anything).Return(cached)

	before := testutil.ToFloat64(recommendationRequests.WithLabelValues(string(models.PhaseP2)))

	_, err := orchestrator.GetRecommendations(context.Background(), 1, 10, false)
	require.NoError(t, err)

	after := testutil.ToFloat64(recommendationRequests.WithLabelValues(string(models.PhaseP2)))
	assert.Equal(t, before+1, after)
}

func TestOrchestrator_LimitClamping(t *testing.T) {
	orchestrator, members, posts, phase, _, cache := orchestratorFixture(t)

	members.On("GetMember", mock.Anything, int64(1)).Return(compatibleMember(), nil)
	phase.On("Current", mock.Anything).Return(models.PhaseP1, int64(10), nil)
	phase.On("Weights", models.PhaseP1).Return(BlendWeights{Rule: 1.0, MF: 0.0})
	posts.On("Candidates", mock.Anything, int64(1), 500).Return(threeCandidates(), nil)
	cache.On("Get", mock.Anything, int64(1), models.PhaseP1, mock.Anything).Return(nil)
	cache.On("Put", mock.Anything, int64(1), models.PhaseP1, mock.Anything, mock.Anything).Return()

	result, err := orchestrator.GetRecommendations(context.Background(), 1, 2, false)
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
}

func TestOrchestrator_ExplainBypassesCache(t *testing.T) {
	orchestrator, members, posts, phase, _, cache := orchestratorFixture(t)

	members.On("GetMember", mock.Anything, int64(1)).Return(compatibleMember(), nil)
	phase.On("Current", mock.Anything).Return(models.PhaseP1, int64(10), nil)
	phase.On("Weights", models.PhaseP1).Return(BlendWeights{Rule: 1.0, MF: 0.0})
	posts.On("Candidates", mock.Anything, int64(1), 500).Return(threeCandidates(), nil)

	result, err := orchestrator.GetRecommendations(context.Background(), 1, 10, true)
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.NotEmpty(t, result.Items[0].Reasons)

	cache.AssertNotCalled(t, "Get")
	cache.AssertNotCalled(t, "Put")
}

func TestOrchestrator_StoreErrorFailsClosed(t *testing.T) {
	orchestrator, members, posts, phase, _, _ := orchestratorFixture(t)

	members.On("GetMember", mock.Anything, int64(1)).Return(compatibleMember(), nil)
	phase.On("Current", mock.Anything).Return(models.PhaseP1, int64(10), nil)
	posts.On("Candidates", mock.Anything, int64(1), 500).Return(nil, ErrStoreUnavailable)

	_, err := orchestrator.GetRecommendations(context.Background(), 1, 10, false)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestFingerprint(t *testing.T) {
	candidates := threeCandidates()
	fp := fingerprint(candidates)
	assert.Equal(t, int64(103), fp.MaxPostID)
	assert.Equal(t, 3, fp.Count)
	assert.Equal(t, "103-3", fp.String())
}
