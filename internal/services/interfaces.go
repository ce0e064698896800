package services

import (
	"context"

	"github.com/teamcobee/roomie/pkg/models"
)

// MemberReader defines member lookups needed by the orchestrator.
type MemberReader interface {
	GetMember(ctx context.Context, memberID int64) (*models.Member, error)
}

// CandidateSource defines candidate post retrieval.
type CandidateSource interface {
	Candidates(ctx context.Context, memberID int64, limit int) ([]models.RecruitPost, error)
}

// PhaseProvider defines phase classification for the orchestrator.
type PhaseProvider interface {
	Current(ctx context.Context) (models.Phase, int64, error)
	Weights(phase models.Phase) BlendWeights
}

// ModelProvider defines access to the published factorization snapshot.
type ModelProvider interface {
	Current() (*ModelSnapshot, bool)
}

// Recommender defines the serving entry point used by the HTTP layer.
type Recommender interface {
	GetRecommendations(ctx context.Context, memberID int64, limit int, explain bool) (*models.RecommendationResult, error)
}

// InteractionRecorder defines the write operations used by the HTTP layer.
type InteractionRecorder interface {
	RecordApply(ctx context.Context, memberID, postID int64) error
	RecordBookmark(ctx context.Context, memberID, postID int64) error
	RecordComment(ctx context.Context, memberID, postID int64, content string) error
}

// ResultCacher defines the recommendation result cache operations.
type ResultCacher interface {
	Get(ctx context.Context, memberID int64, phase models.Phase, fp CandidateFingerprint) *models.RecommendationResult
	Put(ctx context.Context, memberID int64, phase models.Phase, fp CandidateFingerprint, result *models.RecommendationResult)
	InvalidateMember(ctx context.Context, memberID int64) error
	InvalidateAll(ctx context.Context) error
}
