package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/teamcobee/roomie/pkg/models"
)

// PostRepository reads recruit posts in the denormalized v_recruiting_posts
// shape and applies status transitions.
type PostRepository struct {
	db     DatabaseQuerier
	cache  ResultCacher
	logger *logrus.Logger
}

func NewPostRepository(db DatabaseQuerier, cache ResultCacher, logger *logrus.Logger) *PostRepository {
	return &PostRepository{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

const candidateColumns = `
	recruit_post_id, member_id, recruit_count,
	rent_cost_min, rent_cost_max, monthly_cost_min, monthly_cost_max,
	COALESCE(preferred_gender, ''), COALESCE(preferred_life_style, ''), COALESCE(preferred_personality, ''),
	is_smoking, is_snoring, is_pet_allowed,
	COALESCE(cohabitant_count, 0), COALESCE(preferred_age_min, 0), COALESCE(preferred_age_max, 0),
	has_room, COALESCE(address, ''), region_latitude, region_longitude,
	recruit_status,
	author_gender, author_birth_date, COALESCE(author_lifestyle, ''), COALESCE(author_personality, ''),
	author_is_smoking, author_is_snoring, author_has_pet,
	created_at, updated_at`

// Candidates returns the RECRUITING posts eligible for ranking for a member:
// never the member's own posts, never posts they already applied to unless
// that application was rejected.
func (r *PostRepository) Candidates(ctx context.Context, memberID int64, limit int) ([]models.RecruitPost, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM v_recruiting_posts
		WHERE recruit_status = $1
			AND member_id != $2
			AND recruit_post_id NOT IN (
				SELECT recruit_post_id FROM apply_record
				WHERE member_id = $2 AND match_status != $3
			)
		ORDER BY created_at DESC, recruit_post_id
		LIMIT $4`, candidateColumns)

	rows, err := r.db.Query(ctx, query, models.StatusRecruiting, memberID, models.MatchRejected, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: candidate query: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var posts []models.RecruitPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: candidate scan: %v", ErrStoreUnavailable, err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: candidate rows: %v", ErrStoreUnavailable, err)
	}

	return posts, nil
}

func scanPost(rows pgx.Rows) (models.RecruitPost, error) {
	var p models.RecruitPost
	err := rows.Scan(
		&p.RecruitPostID, &p.MemberID, &p.RecruitCount,
		&p.RentCostMin, &p.RentCostMax, &p.MonthlyCostMin, &p.MonthlyCostMax,
		&p.PreferredGender, &p.PreferredLifeStyle, &p.PreferredPersonality,
		&p.SmokingAllowed, &p.SnoringAllowed, &p.PetAllowed,
		&p.CohabitantCount, &p.PreferredAgeMin, &p.PreferredAgeMax,
		&p.HasRoom, &p.Address, &p.Latitude, &p.Longitude,
		&p.RecruitStatus,
		&p.AuthorGender, &p.AuthorBirthDate, &p.AuthorLifestyle, &p.AuthorPersonality,
		&p.AuthorIsSmoking, &p.AuthorIsSnoring, &p.AuthorHasPet,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// TransitionStatus moves a post forward through its lifecycle. Regressions
// and unknown states are rejected before any write happens.
func (r *PostRepository) TransitionStatus(ctx context.Context, postID int64, next models.RecruitStatus) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}

	var current models.RecruitStatus
	err := r.db.QueryRow(ctx,
		`SELECT recruit_status FROM recruit_post WHERE recruit_post_id = $1`, postID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: post %d", ErrPostNotFound, postID)
		}
		return fmt.Errorf("%w: post status query: %v", ErrStoreUnavailable, err)
	}

	if !current.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	// Guard the transition in the WHERE clause as well: a concurrent writer
	// may have advanced the status between read and update.
	tag, err := r.db.Exec(ctx,
		`UPDATE recruit_post SET recruit_status = $1, updated_at = NOW()
		 WHERE recruit_post_id = $2 AND recruit_status = $3`,
		next, postID, current,
	)
	if err != nil {
		return fmt.Errorf("%w: post status update: %v", ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
	}

	// A post leaving RECRUITING can drop out of everyone's candidate set, and
	// the (max id, count) fingerprint does not always notice when another post
	// slides into the fetch window. Flush all cached rankings; cache trouble
	// never fails the transition.
	if r.cache != nil {
		if err := r.cache.InvalidateAll(ctx); err != nil {
			r.logger.WithError(err).WithField("post_id", postID).
				Warn("Failed to invalidate recommendation cache after status change")
		}
	}

	r.logger.WithFields(logrus.Fields{
		"post_id": postID,
		"from":    current,
		"to":      next,
	}).Info("Recruit status transitioned")

	return nil
}

// CountPosts returns total and currently recruiting post counts.
func (r *PostRepository) CountPosts(ctx context.Context) (total, recruiting int64, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE recruit_status = $1) FROM recruit_post`,
		models.StatusRecruiting,
	).Scan(&total, &recruiting)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: post counts: %v", ErrStoreUnavailable, err)
	}
	return total, recruiting, nil
}
