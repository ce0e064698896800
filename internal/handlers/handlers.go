package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/teamcobee/roomie/internal/services"
)

type Handlers struct {
	Health         *HealthHandler
	Recommendation *RecommendationHandler
	Interaction    *InteractionHandler
	Post           *PostHandler
	Stats          *StatsHandler
	Admin          *AdminHandler
}

func New(logger *logrus.Logger, svc *services.Services) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, svc.Health),
		Recommendation: NewRecommendationHandler(svc.Orchestrator, logger),
		Interaction:    NewInteractionHandler(logger, svc.Interactions),
		Post:           NewPostHandler(logger, svc.Posts),
		Stats:          NewStatsHandler(logger, svc),
		Admin:          NewAdminHandler(logger, svc.Trainer, svc.ResultCache),
	}
}
