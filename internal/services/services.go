package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/teamcobee/roomie/internal/config"
	"github.com/teamcobee/roomie/internal/database"
	"github.com/teamcobee/roomie/internal/messaging"
	"github.com/teamcobee/roomie/internal/validation"
	"github.com/teamcobee/roomie/pkg/models"
)

type Services struct {
	Health       *HealthService
	MessageBus   *messaging.MessageBus
	Members      *MemberRepository
	Posts        *PostRepository
	Interactions *InteractionService
	Aggregator   *InteractionAggregator
	Phase        *PhaseService
	RuleScorer   *RuleScorer
	ModelStore   *ModelStore
	Trainer      *Trainer
	ResultCache  ResultCacher
	Orchestrator *RecommendationOrchestrator
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	resultCache := NewResultCache(db.Redis, cfg.Recommendation.Caching.ResultsTTL, logger)

	members := NewMemberRepository(db.PG, logger)
	posts := NewPostRepository(db.PG, resultCache, logger)
	interactions := NewInteractionService(db.PG, resultCache, logger)
	aggregator := NewInteractionAggregator(db.PG, logger)

	phase := NewPhaseService(
		NewPhaseSelector(&cfg.Recommendation.Phase),
		aggregator,
		cfg.Recommendation.Phase.RefreshInterval,
		logger,
	)

	ruleScorer := NewRuleScorer(&cfg.Recommendation)
	modelStore := NewModelStore(logger)

	var messageBus *messaging.MessageBus
	var publisher ModelEventPublisher
	if cfg.Kafka.Enabled {
		validator, err := validation.NewSchemaValidator()
		if err != nil {
			return nil, err
		}
		messageBus, err = messaging.NewMessageBus(cfg, validator, logger)
		if err != nil {
			return nil, err
		}
		publisher = messageBus
	}

	trainer := NewTrainer(db.PG, modelStore, &cfg.Training, publisher, logger)

	orchestrator := NewRecommendationOrchestrator(
		members, posts, phase, ruleScorer, modelStore, resultCache,
		&cfg.Recommendation, logger,
	)

	healthService := NewHealthService(db, modelStore, logger)

	return &Services{
		Health:       healthService,
		MessageBus:   messageBus,
		Members:      members,
		Posts:        posts,
		Interactions: interactions,
		Aggregator:   aggregator,
		Phase:        phase,
		RuleScorer:   ruleScorer,
		ModelStore:   modelStore,
		Trainer:      trainer,
		ResultCache:  resultCache,
		Orchestrator: orchestrator,
	}, nil
}

// HandleSyncEvent applies an interaction sync event from the message bus.
// Interaction events drop the acting member's cached ranking; a post status
// change can pull a post out of everyone's candidate set, so those flush the
// whole cache.
func (s *Services) HandleSyncEvent(ctx context.Context, event messaging.SyncEvent) error {
	switch event.EventType {
	case "apply", "bookmark", "comment":
		return s.ResultCache.InvalidateMember(ctx, event.MemberID)
	case "post_status":
		if event.RecruitStatus != "" && !event.RecruitStatus.Valid() {
			return nil
		}
		return s.ResultCache.InvalidateAll(ctx)
	default:
		return nil
	}
}

// Stats collects the counts for the stats endpoint.
func (s *Services) Stats(ctx context.Context) (*models.StatsResponse, error) {
	stats := &models.StatsResponse{}

	memberTotal, err := s.Members.CountMembers(ctx)
	if err != nil {
		return nil, err
	}
	stats.Members.Total = memberTotal

	postTotal, recruiting, err := s.Posts.CountPosts(ctx)
	if err != nil {
		return nil, err
	}
	stats.Posts.Total = postTotal
	stats.Posts.Recruiting = recruiting

	summary, err := s.Aggregator.PopulationSummary(ctx)
	if err != nil {
		return nil, err
	}
	stats.Interactions = summary

	phase, _, err := s.Phase.Current(ctx)
	if err != nil {
		return nil, err
	}
	stats.Phase = phase

	return stats, nil
}
