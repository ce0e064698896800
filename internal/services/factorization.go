package services

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ModelSnapshot is one immutable training result: member and post embeddings
// with biases, addressed by entity id. A snapshot is never mutated after
// publication; a retrain always produces a fresh one.
type ModelSnapshot struct {
	Version   uuid.UUID
	TrainedAt time.Time
	Factors   int

	memberIndex map[int64]int
	postIndex   map[int64]int

	memberFactors *mat.Dense
	postFactors   *mat.Dense
	memberBias    []float64
	postBias      []float64
	globalBias    float64
}

// Affinity returns the reconstructed preference value for a (member, post)
// pair. The second return is false when either side has no trained embedding
// (cold start); callers must treat that as missing, not as zero.
func (m *ModelSnapshot) Affinity(memberID, postID int64) (float64, bool) {
	mi, ok := m.memberIndex[memberID]
	if !ok {
		return 0, false
	}
	pi, ok := m.postIndex[postID]
	if !ok {
		return 0, false
	}

	dot := floats.Dot(m.memberFactors.RawRowView(mi), m.postFactors.RawRowView(pi))
	return m.globalBias + m.memberBias[mi] + m.postBias[pi] + dot, true
}

// HasMember reports whether the snapshot holds an embedding for the member.
func (m *ModelSnapshot) HasMember(memberID int64) bool {
	_, ok := m.memberIndex[memberID]
	return ok
}

// Members and Posts report the snapshot's dimensions, for logging and stats.
func (m *ModelSnapshot) Members() int { return len(m.memberIndex) }
func (m *ModelSnapshot) Posts() int   { return len(m.postIndex) }

// ModelStore publishes snapshots through an atomic pointer. Readers always
// observe either the previous complete snapshot or the new one, never a
// partially-built model. A failed training run leaves the published snapshot
// untouched.
type ModelStore struct {
	current atomic.Pointer[ModelSnapshot]
	logger  *logrus.Logger
}

func NewModelStore(logger *logrus.Logger) *ModelStore {
	return &ModelStore{logger: logger}
}

// Current returns the published snapshot, or false when no training run has
// completed yet.
func (s *ModelStore) Current() (*ModelSnapshot, bool) {
	snap := s.current.Load()
	return snap, snap != nil
}

// Publish swaps in a fully-built snapshot.
func (s *ModelStore) Publish(snap *ModelSnapshot) {
	prev := s.current.Swap(snap)

	fields := logrus.Fields{
		"version": snap.Version,
		"members": snap.Members(),
		"posts":   snap.Posts(),
		"factors": snap.Factors,
	}
	if prev != nil {
		fields["previous_version"] = prev.Version
	}
	s.logger.WithFields(fields).Info("Factorization model published")
}
