package models

import (
	"time"
)

// MatchStatus is the state of an application to a recruit post.
type MatchStatus string

const (
	MatchOnWait   MatchStatus = "ON_WAIT"
	MatchMatching MatchStatus = "MATCHING"
	MatchRejected MatchStatus = "REJECTED"
	MatchMatched  MatchStatus = "MATCHED"
)

// ApplyRecord is a member's application to a post. Unique per
// (member_id, recruit_post_id).
type ApplyRecord struct {
	RecordID      int64       `json:"record_id"`
	MemberID      int64       `json:"member_id"`
	RecruitPostID int64       `json:"recruit_post_id"`
	MatchStatus   MatchStatus `json:"match_status"`
	SubmittedAt   time.Time   `json:"submitted_at"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Bookmark is a pure interest signal. Unique per (member_id, recruit_post_id).
type Bookmark struct {
	BookmarkID    int64     `json:"bookmark_id"`
	MemberID      int64     `json:"member_id"`
	RecruitPostID int64     `json:"recruit_post_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Comment on a post; a member may leave any number of them.
type Comment struct {
	CommentID     int64     `json:"comment_id"`
	MemberID      int64     `json:"member_id"`
	RecruitPostID int64     `json:"recruit_post_id"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}

// InteractionSummary holds derived per-member (or population-wide) counts of
// implicit-feedback events. It is recomputed from the store, never persisted.
type InteractionSummary struct {
	ApplyCount    int64 `json:"apply_count"`
	BookmarkCount int64 `json:"bookmark_count"`
	CommentCount  int64 `json:"comment_count"`
}

// Total is the unweighted event count used for Phase determination.
func (s InteractionSummary) Total() int64 {
	return s.ApplyCount + s.BookmarkCount + s.CommentCount
}
