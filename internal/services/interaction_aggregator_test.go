package services

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractionAggregator_PopulationSummary(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	aggregator := NewInteractionAggregator(mockDB, quietLogger())

	mockDB.ExpectQuery("SELECT").
		WillReturnRows(pgxmock.NewRows([]string{"applies", "bookmarks", "comments"}).
			AddRow(int64(40), int64(35), int64(25)))

	summary, err := aggregator.PopulationSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(40), summary.ApplyCount)
	assert.Equal(t, int64(35), summary.BookmarkCount)
	assert.Equal(t, int64(25), summary.CommentCount)
	assert.Equal(t, int64(100), summary.Total())

	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestInteractionAggregator_ZeroCountsAreValid(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	aggregator := NewInteractionAggregator(mockDB, quietLogger())

	mockDB.ExpectQuery("SELECT").
		WillReturnRows(pgxmock.NewRows([]string{"applies", "bookmarks", "comments"}).
			AddRow(int64(0), int64(0), int64(0)))

	summary, err := aggregator.PopulationSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Total())
}

func TestInteractionAggregator_MemberSummary(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	aggregator := NewInteractionAggregator(mockDB, quietLogger())

	mockDB.ExpectQuery("SELECT").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"applies", "bookmarks", "comments"}).
			AddRow(int64(2), int64(5), int64(1)))

	summary, err := aggregator.MemberSummary(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(8), summary.Total())
}

func TestInteractionAggregator_StoreError(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	aggregator := NewInteractionAggregator(mockDB, quietLogger())

	mockDB.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	_, err = aggregator.PopulationSummary(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
