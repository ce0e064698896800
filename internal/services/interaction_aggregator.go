package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/teamcobee/roomie/pkg/models"
)

// DatabaseQuerier is the subset of pgxpool.Pool used by the services. It is
// satisfied by pgxmock in tests.
type DatabaseQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// InteractionAggregator computes interaction counts from apply_record,
// bookmark and comment. It only reads; zero counts are a valid result, not
// an error.
type InteractionAggregator struct {
	db     DatabaseQuerier
	logger *logrus.Logger
}

func NewInteractionAggregator(db DatabaseQuerier, logger *logrus.Logger) *InteractionAggregator {
	return &InteractionAggregator{
		db:     db,
		logger: logger,
	}
}

// MemberSummary returns one member's event counts.
func (a *InteractionAggregator) MemberSummary(ctx context.Context, memberID int64) (models.InteractionSummary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM apply_record WHERE member_id = $1),
			(SELECT COUNT(*) FROM bookmark WHERE member_id = $1),
			(SELECT COUNT(*) FROM comment WHERE member_id = $1)`

	var summary models.InteractionSummary
	err := a.db.QueryRow(ctx, query, memberID).Scan(
		&summary.ApplyCount, &summary.BookmarkCount, &summary.CommentCount,
	)
	if err != nil {
		return models.InteractionSummary{}, fmt.Errorf("%w: member interaction counts: %v", ErrStoreUnavailable, err)
	}

	return summary, nil
}

// PopulationSummary returns event counts across all members. Phase selection
// runs off this total.
func (a *InteractionAggregator) PopulationSummary(ctx context.Context) (models.InteractionSummary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM apply_record),
			(SELECT COUNT(*) FROM bookmark),
			(SELECT COUNT(*) FROM comment)`

	var summary models.InteractionSummary
	err := a.db.QueryRow(ctx, query).Scan(
		&summary.ApplyCount, &summary.BookmarkCount, &summary.CommentCount,
	)
	if err != nil {
		return models.InteractionSummary{}, fmt.Errorf("%w: population interaction counts: %v", ErrStoreUnavailable, err)
	}

	a.logger.WithFields(logrus.Fields{
		"applies":   summary.ApplyCount,
		"bookmarks": summary.BookmarkCount,
		"comments":  summary.CommentCount,
	}).Debug("Aggregated population interactions")

	return summary, nil
}
