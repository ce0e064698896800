package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the data regime driving the rule/matrix-factorization blend.
type Phase string

const (
	PhaseP1 Phase = "P1"
	PhaseP2 Phase = "P2"
	PhaseP3 Phase = "P3"
)

// RecommendationItem is one ranked post with its blended score in [0,1].
type RecommendationItem struct {
	RecruitPostID int64    `json:"recruit_post_id"`
	Score         float64  `json:"score"`
	Rank          int      `json:"rank"`
	Reasons       []string `json:"reasons,omitempty"`
}

// RecommendationResult is an ordered ranking for one member. It is ephemeral:
// owned by the result cache, rebuilt whenever invalidated.
type RecommendationResult struct {
	MemberID     int64                `json:"member_id"`
	Items        []RecommendationItem `json:"items"`
	Phase        Phase                `json:"phase"`
	ModelVersion *uuid.UUID           `json:"model_version,omitempty"`
	GeneratedAt  time.Time            `json:"generated_at"`
	CacheHit     bool                 `json:"cache_hit"`
}

// RecommendationResponse is the serving API payload.
type RecommendationResponse struct {
	MemberID     int64                `json:"member_id"`
	Items        []RecommendationItem `json:"recommendations"`
	TotalCount   int                  `json:"total_count"`
	Phase        Phase                `json:"phase"`
	ModelVersion *uuid.UUID           `json:"model_version,omitempty"`
	GeneratedAt  time.Time            `json:"generated_at"`
	CacheHit     bool                 `json:"cache_hit"`
}

// StatsResponse summarizes the system for the /stats endpoint.
type StatsResponse struct {
	Members struct {
		Total int64 `json:"total"`
	} `json:"members"`
	Posts struct {
		Total      int64 `json:"total"`
		Recruiting int64 `json:"recruiting"`
	} `json:"posts"`
	Interactions InteractionSummary `json:"interactions"`
	Phase        Phase              `json:"phase"`
}
