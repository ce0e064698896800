package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/teamcobee/roomie/pkg/models"
)

// CandidateFingerprint identifies a candidate set: the highest RECRUITING
// post id plus the count. Any post creation or status change produces a
// different fingerprint, so a cached ranking cannot silently outlive its
// candidate set.
type CandidateFingerprint struct {
	MaxPostID int64
	Count     int
}

func (f CandidateFingerprint) String() string {
	return fmt.Sprintf("%d-%d", f.MaxPostID, f.Count)
}

// ResultCache memoizes ranked results per member in Redis. Entries are
// written with a single SET, so concurrent writers are last-write-wins and a
// reader never observes a partial entry. A cancelled request writes nothing.
type ResultCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewResultCache(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *ResultCache {
	return &ResultCache{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *ResultCache) key(memberID int64, phase models.Phase, fp CandidateFingerprint) string {
	return fmt.Sprintf("recs:%d:%s:%s", memberID, phase, fp)
}

// Get returns the cached ranking for the exact (member, phase, candidate
// set) combination, or nil on a miss. Cache errors surface as misses; the
// caller falls through to live computation.
func (c *ResultCache) Get(ctx context.Context, memberID int64, phase models.Phase, fp CandidateFingerprint) *models.RecommendationResult {
	if c.redis == nil {
		return nil
	}

	data, err := c.redis.Get(ctx, c.key(memberID, phase, fp)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Warn("Result cache read failed")
		}
		return nil
	}

	var result models.RecommendationResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.WithError(err).Warn("Result cache entry corrupt, dropping")
		c.redis.Del(ctx, c.key(memberID, phase, fp))
		return nil
	}

	result.CacheHit = true
	return &result
}

// Put stores a freshly computed ranking. Failures are logged, not
// propagated: caching is best-effort.
func (c *ResultCache) Put(ctx context.Context, memberID int64, phase models.Phase, fp CandidateFingerprint, result *models.RecommendationResult) {
	if c.redis == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal result for cache")
		return
	}

	if err := c.redis.Set(ctx, c.key(memberID, phase, fp), data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("Result cache write failed")
	}
}

// InvalidateMember drops all cached rankings for one member, regardless of
// phase or fingerprint. Called on any interaction the member performs.
func (c *ResultCache) InvalidateMember(ctx context.Context, memberID int64) error {
	return c.deletePattern(ctx, fmt.Sprintf("recs:%d:*", memberID))
}

// InvalidateAll drops every cached ranking. Called when the candidate set
// itself changes, e.g. a post leaves RECRUITING.
func (c *ResultCache) InvalidateAll(ctx context.Context) error {
	return c.deletePattern(ctx, "recs:*")
}

func (c *ResultCache) deletePattern(ctx context.Context, pattern string) error {
	if c.redis == nil {
		return nil
	}

	keys, err := c.redis.Keys(ctx, pattern).Result()
	if err != nil {
		return fmt.Errorf("result cache invalidation scan: %w", err)
	}

	if len(keys) > 0 {
		if err := c.redis.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("result cache invalidation delete: %w", err)
		}
		c.logger.WithFields(logrus.Fields{
			"pattern": pattern,
			"entries": len(keys),
		}).Debug("Result cache invalidated")
	}

	return nil
}
