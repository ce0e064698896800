package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/teamcobee/roomie/internal/database"
)

// HealthService checks the dependencies the engine needs to serve. PostgreSQL
// and Redis are critical; a missing model snapshot only degrades scoring, so
// it is reported but never fails the check.
type HealthService struct {
	db     *database.Database
	model  ModelProvider
	logger *logrus.Logger
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Critical  []string          `json:"critical_failures,omitempty"`
}

func NewHealthService(db *database.Database, model ModelProvider, logger *logrus.Logger) *HealthService {
	return &HealthService{
		db:     db,
		model:  model,
		logger: logger,
	}
}

func (s *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Timestamp: time.Now(),
		Services:  make(map[string]string),
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	critical := map[string]func(context.Context) error{
		"postgresql": s.checkPostgreSQL,
		"redis":      s.checkRedis,
	}

	healthy := true
	for name, check := range critical {
		if err := check(checkCtx); err != nil {
			status.Services[name] = "unhealthy"
			status.Critical = append(status.Critical, name)
			healthy = false
			s.logger.WithError(err).Errorf("Critical service %s is unhealthy", name)
		} else {
			status.Services[name] = "healthy"
		}
	}

	if _, ok := s.model.Current(); ok {
		status.Services["model"] = "published"
	} else {
		status.Services["model"] = "unavailable"
	}

	if healthy {
		status.Status = "healthy"
	} else {
		status.Status = "unhealthy"
	}

	return status
}

func (s *HealthService) checkPostgreSQL(ctx context.Context) error {
	return s.db.PG.Ping(ctx)
}

func (s *HealthService) checkRedis(ctx context.Context) error {
	return s.db.Redis.Ping(ctx).Err()
}
