package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/teamcobee/roomie/internal/config"
	"github.com/teamcobee/roomie/pkg/models"
)

// BlendWeights are the rule/matrix-factorization mix for a Phase. They sum
// to 1 for every Phase.
type BlendWeights struct {
	Rule float64
	MF   float64
}

// defaultPhaseWeights is the closed Phase table. Adding a Phase means adding
// a row here (or overriding it in config), nothing dynamic.
var defaultPhaseWeights = map[models.Phase]BlendWeights{
	models.PhaseP1: {Rule: 1.0, MF: 0.0},
	models.PhaseP2: {Rule: 0.6, MF: 0.4},
	models.PhaseP3: {Rule: 0.2, MF: 0.8},
}

// PhaseSelector maps an interaction total to a Phase and its blend weights.
// The mapping is pure; band lower bounds are inclusive.
type PhaseSelector struct {
	p2Min   int64
	p3Min   int64
	weights map[models.Phase]BlendWeights
}

func NewPhaseSelector(cfg *config.PhaseConfig) *PhaseSelector {
	weights := make(map[models.Phase]BlendWeights, len(defaultPhaseWeights))
	for phase, w := range defaultPhaseWeights {
		weights[phase] = w
	}
	for name, w := range cfg.Weights {
		weights[models.Phase(name)] = BlendWeights{Rule: w.Rule, MF: w.MF}
	}

	return &PhaseSelector{
		p2Min:   cfg.P2Min,
		p3Min:   cfg.P3Min,
		weights: weights,
	}
}

// PhaseFor returns the Phase for a total interaction count.
func (s *PhaseSelector) PhaseFor(totalInteractions int64) models.Phase {
	switch {
	case totalInteractions >= s.p3Min:
		return models.PhaseP3
	case totalInteractions >= s.p2Min:
		return models.PhaseP2
	default:
		return models.PhaseP1
	}
}

// Weights returns the blend weights for a Phase.
func (s *PhaseSelector) Weights(phase models.Phase) BlendWeights {
	if w, ok := s.weights[phase]; ok {
		return w
	}
	return s.weights[models.PhaseP1]
}

// PhaseService serves the current Phase with a bounded refresh cadence, so
// the serving path does not hit the store once per request. Phase changes
// slowly relative to traffic; a stale-by-minutes value is acceptable.
type PhaseService struct {
	selector        *PhaseSelector
	aggregator      *InteractionAggregator
	refreshInterval time.Duration
	logger          *logrus.Logger

	mu          sync.Mutex
	lastPhase   models.Phase
	lastTotal   int64
	lastRefresh time.Time
}

func NewPhaseService(
	selector *PhaseSelector,
	aggregator *InteractionAggregator,
	refreshInterval time.Duration,
	logger *logrus.Logger,
) *PhaseService {
	return &PhaseService{
		selector:        selector,
		aggregator:      aggregator,
		refreshInterval: refreshInterval,
		logger:          logger,
	}
}

// Current returns the Phase for the population-wide interaction total,
// recomputing it at most once per refresh interval. If the store is down and
// no previous value exists, the error propagates: serving fails closed
// rather than guessing a Phase.
func (p *PhaseService) Current(ctx context.Context) (models.Phase, int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.lastRefresh.IsZero() && time.Since(p.lastRefresh) < p.refreshInterval {
		return p.lastPhase, p.lastTotal, nil
	}

	summary, err := p.aggregator.PopulationSummary(ctx)
	if err != nil {
		if !p.lastRefresh.IsZero() {
			// Keep serving the last known Phase until the store recovers.
			p.logger.WithError(err).Warn("Phase refresh failed, keeping previous phase")
			return p.lastPhase, p.lastTotal, nil
		}
		return "", 0, err
	}

	total := summary.Total()
	phase := p.selector.PhaseFor(total)

	if phase != p.lastPhase && !p.lastRefresh.IsZero() {
		p.logger.WithFields(logrus.Fields{
			"from":  p.lastPhase,
			"to":    phase,
			"total": total,
		}).Info("Phase transition")
	}

	p.lastPhase = phase
	p.lastTotal = total
	p.lastRefresh = time.Now()

	return phase, total, nil
}

// Weights exposes the selector's blend weights table.
func (p *PhaseService) Weights(phase models.Phase) BlendWeights {
	return p.selector.Weights(phase)
}
