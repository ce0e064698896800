package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/teamcobee/roomie/internal/config"
)

// ModelEventPublisher announces published snapshots to downstream consumers.
// Implemented by messaging.MessageBus; nil disables publication.
type ModelEventPublisher interface {
	PublishModelEvent(ctx context.Context, version uuid.UUID, trainedAt time.Time, members, posts int) error
}

// interactionRating is one implicit-feedback observation: summed event
// weights for a (member, post) pair.
type interactionRating struct {
	memberID int64
	postID   int64
	value    float64
}

// Trainer fits the latent-factor model from the interaction tables and
// publishes immutable snapshots to the store. Training runs off the serving
// path; a failed run leaves the previous snapshot authoritative.
type Trainer struct {
	db     DatabaseQuerier
	store  *ModelStore
	cfg    *config.TrainingConfig
	events ModelEventPublisher
	logger *logrus.Logger
}

func NewTrainer(
	db DatabaseQuerier,
	store *ModelStore,
	cfg *config.TrainingConfig,
	events ModelEventPublisher,
	logger *logrus.Logger,
) *Trainer {
	return &Trainer{
		db:     db,
		store:  store,
		cfg:    cfg,
		events: events,
		logger: logger,
	}
}

// Run retrains on the configured interval until the context is cancelled.
// Errors are logged and the loop continues; the scheduler owns retry policy.
func (t *Trainer) Run(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := t.Train(ctx); err != nil {
				t.logger.WithError(err).Error("Scheduled training failed, keeping previous model")
			}
		}
	}
}

// Train loads the implicit-feedback matrix, fits embeddings by SGD and
// publishes the result. Returns ErrInsufficientData when too few
// interactions exist to fit anything meaningful.
func (t *Trainer) Train(ctx context.Context) (*ModelSnapshot, error) {
	start := time.Now()

	ratings, err := t.loadRatings(ctx)
	if err != nil {
		modelTrainings.WithLabelValues("error").Inc()
		return nil, err
	}
	// An empty matrix is never fittable, whatever the configured minimum.
	if len(ratings) == 0 || len(ratings) < t.cfg.MinInteractions {
		modelTrainings.WithLabelValues("skipped").Inc()
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, len(ratings), t.cfg.MinInteractions)
	}

	snap := t.fit(ratings)

	t.store.Publish(snap)
	modelTrainings.WithLabelValues("success").Inc()
	modelSize.WithLabelValues("members").Set(float64(snap.Members()))
	modelSize.WithLabelValues("posts").Set(float64(snap.Posts()))

	if t.events != nil {
		if err := t.events.PublishModelEvent(ctx, snap.Version, snap.TrainedAt, snap.Members(), snap.Posts()); err != nil {
			t.logger.WithError(err).Warn("Failed to publish model event")
		}
	}

	t.logger.WithFields(logrus.Fields{
		"version":      snap.Version,
		"interactions": len(ratings),
		"duration":     time.Since(start),
	}).Info("Training completed")

	return snap, nil
}

// loadRatings sums the configured event weights per (member, post) pair.
func (t *Trainer) loadRatings(ctx context.Context) ([]interactionRating, error) {
	query := `
		SELECT member_id, recruit_post_id, SUM(weight) AS rating
		FROM (
			SELECT member_id, recruit_post_id, $1::float8 AS weight FROM apply_record
			UNION ALL
			SELECT member_id, recruit_post_id, $2::float8 FROM bookmark
			UNION ALL
			SELECT member_id, recruit_post_id, $3::float8 FROM comment
		) events
		GROUP BY member_id, recruit_post_id
		ORDER BY member_id, recruit_post_id`

	rows, err := t.db.Query(ctx, query,
		t.cfg.EventWeights.Apply, t.cfg.EventWeights.Bookmark, t.cfg.EventWeights.Comment)
	if err != nil {
		return nil, fmt.Errorf("%w: interaction matrix query: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var ratings []interactionRating
	for rows.Next() {
		var r interactionRating
		if err := rows.Scan(&r.memberID, &r.postID, &r.value); err != nil {
			return nil, fmt.Errorf("%w: interaction matrix scan: %v", ErrStoreUnavailable, err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: interaction matrix rows: %v", ErrStoreUnavailable, err)
	}

	return ratings, nil
}

// fit runs biased SGD matrix factorization over the observations. The seed
// fixes initialization and shuffle order, so a training run is reproducible
// for a given data set.
func (t *Trainer) fit(ratings []interactionRating) *ModelSnapshot {
	memberIndex := make(map[int64]int)
	postIndex := make(map[int64]int)
	var globalSum float64

	for _, r := range ratings {
		if _, ok := memberIndex[r.memberID]; !ok {
			memberIndex[r.memberID] = len(memberIndex)
		}
		if _, ok := postIndex[r.postID]; !ok {
			postIndex[r.postID] = len(postIndex)
		}
		globalSum += r.value
	}

	nMembers := len(memberIndex)
	nPosts := len(postIndex)
	factors := t.cfg.Factors
	globalBias := globalSum / float64(len(ratings))

	rng := rand.New(rand.NewSource(t.cfg.Seed))

	memberFactors := mat.NewDense(nMembers, factors, randomNormal(rng, nMembers*factors, t.cfg.InitStdDev))
	postFactors := mat.NewDense(nPosts, factors, randomNormal(rng, nPosts*factors, t.cfg.InitStdDev))
	memberBias := make([]float64, nMembers)
	postBias := make([]float64, nPosts)

	lr := t.cfg.LearningRate
	reg := t.cfg.Regularization

	order := make([]int, len(ratings))
	for i := range order {
		order[i] = i
	}

	var rmse float64
	for epoch := 0; epoch < t.cfg.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var sqErr float64
		for _, idx := range order {
			r := ratings[idx]
			mi := memberIndex[r.memberID]
			pi := postIndex[r.postID]

			mRow := memberFactors.RawRowView(mi)
			pRow := postFactors.RawRowView(pi)

			pred := globalBias + memberBias[mi] + postBias[pi] + floats.Dot(mRow, pRow)
			errVal := r.value - pred
			sqErr += errVal * errVal

			memberBias[mi] += lr * (errVal - reg*memberBias[mi])
			postBias[pi] += lr * (errVal - reg*postBias[pi])

			for f := 0; f < factors; f++ {
				mf, pf := mRow[f], pRow[f]
				mRow[f] += lr * (errVal*pf - reg*mf)
				pRow[f] += lr * (errVal*mf - reg*pf)
			}
		}

		rmse = math.Sqrt(sqErr / float64(len(ratings)))
	}

	t.logger.WithFields(logrus.Fields{
		"members": nMembers,
		"posts":   nPosts,
		"factors": factors,
		"epochs":  t.cfg.Epochs,
		"rmse":    rmse,
	}).Debug("SGD factorization converged")

	return &ModelSnapshot{
		Version:       uuid.New(),
		TrainedAt:     time.Now(),
		Factors:       factors,
		memberIndex:   memberIndex,
		postIndex:     postIndex,
		memberFactors: memberFactors,
		postFactors:   postFactors,
		memberBias:    memberBias,
		postBias:      postBias,
		globalBias:    globalBias,
	}
}

func randomNormal(rng *rand.Rand, n int, stdDev float64) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = rng.NormFloat64() * stdDev
	}
	return data
}
