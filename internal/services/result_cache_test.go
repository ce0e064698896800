package services

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamcobee/roomie/pkg/models"
)

func TestCandidateFingerprint_String(t *testing.T) {
	fp := CandidateFingerprint{MaxPostID: 250, Count: 41}
	assert.Equal(t, "250-41", fp.String())

	assert.Equal(t, "0-0", CandidateFingerprint{}.String())
}

func TestResultCache_KeyShape(t *testing.T) {
	cache := NewResultCache(nil, time.Minute, quietLogger())
	key := cache.key(7, models.PhaseP2, CandidateFingerprint{MaxPostID: 250, Count: 41})
	assert.Equal(t, "recs:7:P2:250-41", key)
}

func TestResultCache_NilClientDegradesToMiss(t *testing.T) {
	cache := NewResultCache(nil, time.Minute, quietLogger())
	ctx := context.Background()
	fp := CandidateFingerprint{MaxPostID: 1, Count: 1}

	assert.Nil(t, cache.Get(ctx, 1, models.PhaseP1, fp))
	cache.Put(ctx, 1, models.PhaseP1, fp, &models.RecommendationResult{MemberID: 1})
	assert.NoError(t, cache.InvalidateMember(ctx, 1))
	assert.NoError(t, cache.InvalidateAll(ctx))
}

// The integration tests below need a local Redis, matching the development
// docker-compose setup. They use DB 1 and flush it.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	client.FlushDB(context.Background())
	return client
}

func TestResultCache_RoundTrip(t *testing.T) {
	client := testRedis(t)
	defer client.Close()

	cache := NewResultCache(client, time.Minute, quietLogger())
	ctx := context.Background()
	fp := CandidateFingerprint{MaxPostID: 103, Count: 3}

	require.Nil(t, cache.Get(ctx, 1, models.PhaseP2, fp))

	result := &models.RecommendationResult{
		MemberID: 1,
		Items: []models.RecommendationItem{
			{RecruitPostID: 103, Score: 0.92, Rank: 1},
			{RecruitPostID: 101, Score: 0.75, Rank: 2},
		},
		Phase:       models.PhaseP2,
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
	}
	cache.Put(ctx, 1, models.PhaseP2, fp, result)

	cached := cache.Get(ctx, 1, models.PhaseP2, fp)
	require.NotNil(t, cached)
	assert.True(t, cached.CacheHit)
	assert.Equal(t, result.Items, cached.Items)
	assert.Equal(t, models.PhaseP2, cached.Phase)
}

func TestResultCache_DifferentFingerprintMisses(t *testing.T) {
	client := testRedis(t)
	defer client.Close()

	cache := NewResultCache(client, time.Minute, quietLogger())
	ctx := context.Background()

	cache.Put(ctx, 1, models.PhaseP2, CandidateFingerprint{MaxPostID: 103, Count: 3},
		&models.RecommendationResult{MemberID: 1})

	// A new post changes the fingerprint; the stale ranking must not serve.
	assert.Nil(t, cache.Get(ctx, 1, models.PhaseP2, CandidateFingerprint{MaxPostID: 104, Count: 4}))
	// So does a phase change.
	assert.Nil(t, cache.Get(ctx, 1, models.PhaseP3, CandidateFingerprint{MaxPostID: 103, Count: 3}))
}

func TestResultCache_InvalidateMember(t *testing.T) {
	client := testRedis(t)
	defer client.Close()

	cache := NewResultCache(client, time.Minute, quietLogger())
	ctx := context.Background()
	fp := CandidateFingerprint{MaxPostID: 103, Count: 3}

	cache.Put(ctx, 1, models.PhaseP2, fp, &models.RecommendationResult{MemberID: 1})
	cache.Put(ctx, 2, models.PhaseP2, fp, &models.RecommendationResult{MemberID: 2})

	require.NoError(t, cache.InvalidateMember(ctx, 1))

	assert.Nil(t, cache.Get(ctx, 1, models.PhaseP2, fp), "member 1 entries must be gone")
	assert.NotNil(t, cache.Get(ctx, 2, models.PhaseP2, fp), "member 2 entries must survive")
}

func TestResultCache_InvalidateAll(t *testing.T) {
	client := testRedis(t)
	defer client.Close()

	cache := NewResultCache(client, time.Minute, quietLogger())
	ctx := context.Background()
	fp := CandidateFingerprint{MaxPostID: 103, Count: 3}

	cache.Put(ctx, 1, models.PhaseP2, fp, &models.RecommendationResult{MemberID: 1})
	cache.Put(ctx, 2, models.PhaseP3, fp, &models.RecommendationResult{MemberID: 2})

	require.NoError(t, cache.InvalidateAll(ctx))

	assert.Nil(t, cache.Get(ctx, 1, models.PhaseP2, fp))
	assert.Nil(t, cache.Get(ctx, 2, models.PhaseP3, fp))
}

func TestResultCache_CorruptEntryDropped(t *testing.T) {
	client := testRedis(t)
	defer client.Close()

	cache := NewResultCache(client, time.Minute, quietLogger())
	ctx := context.Background()
	fp := CandidateFingerprint{MaxPostID: 103, Count: 3}

	require.NoError(t, client.Set(ctx, cache.key(1, models.PhaseP2, fp), "{not json", time.Minute).Err())

	assert.Nil(t, cache.Get(ctx, 1, models.PhaseP2, fp))

	// The corrupt entry was deleted, not left to fail forever.
	exists, err := client.Exists(ctx, cache.key(1, models.PhaseP2, fp)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}
