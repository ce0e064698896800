package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/teamcobee/roomie/pkg/models"
)

// InteractionService records the implicit-feedback events the trainer and
// phase classifier consume. Applies and bookmarks are unique per
// (member, post); a repeated request is rejected rather than silently
// counted twice.
type InteractionService struct {
	db     DatabaseQuerier
	cache  ResultCacher
	logger *logrus.Logger
}

func NewInteractionService(db DatabaseQuerier, cache ResultCacher, logger *logrus.Logger) *InteractionService {
	return &InteractionService{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

// RecordApply inserts an application in the ON_WAIT state.
func (s *InteractionService) RecordApply(ctx context.Context, memberID, postID int64) error {
	tag, err := s.db.Exec(ctx,
		`INSERT INTO apply_record (member_id, recruit_post_id, match_status, created_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (member_id, recruit_post_id) DO NOTHING`,
		memberID, postID, models.MatchOnWait,
	)
	if err != nil {
		return fmt.Errorf("%w: apply insert: %v", ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: member %d already applied to post %d", ErrDuplicateInteraction, memberID, postID)
	}

	s.afterInteraction(ctx, memberID, postID, "apply")
	return nil
}

// RecordBookmark inserts a bookmark.
func (s *InteractionService) RecordBookmark(ctx context.Context, memberID, postID int64) error {
	tag, err := s.db.Exec(ctx,
		`INSERT INTO bookmark (member_id, recruit_post_id, created_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (member_id, recruit_post_id) DO NOTHING`,
		memberID, postID,
	)
	if err != nil {
		return fmt.Errorf("%w: bookmark insert: %v", ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: member %d already bookmarked post %d", ErrDuplicateInteraction, memberID, postID)
	}

	s.afterInteraction(ctx, memberID, postID, "bookmark")
	return nil
}

// RecordComment inserts a comment. Comments are not unique per pair: a member
// can comment on the same post any number of times.
func (s *InteractionService) RecordComment(ctx context.Context, memberID, postID int64, content string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO comment (member_id, recruit_post_id, content, created_at)
		 VALUES ($1, $2, $3, NOW())`,
		memberID, postID, content,
	)
	if err != nil {
		return fmt.Errorf("%w: comment insert: %v", ErrStoreUnavailable, err)
	}

	s.afterInteraction(ctx, memberID, postID, "comment")
	return nil
}

// afterInteraction drops the member's cached recommendations so the next
// request reflects the new interaction. Cache trouble never fails the write.
func (s *InteractionService) afterInteraction(ctx context.Context, memberID, postID int64, kind string) {
	if s.cache != nil {
		if err := s.cache.InvalidateMember(ctx, memberID); err != nil {
			s.logger.WithError(err).WithField("member_id", memberID).
				Warn("Failed to invalidate recommendation cache")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"member_id":       memberID,
		"recruit_post_id": postID,
		"interaction":     kind,
	}).Debug("Interaction recorded")
}
