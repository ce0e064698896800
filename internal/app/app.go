package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/teamcobee/roomie/internal/config"
	"github.com/teamcobee/roomie/internal/database"
	"github.com/teamcobee/roomie/internal/handlers"
	"github.com/teamcobee/roomie/internal/middleware"
	"github.com/teamcobee/roomie/internal/services"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine

	cancelBackground context.CancelFunc
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	svc, err := services.New(cfg, app.logger, db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = svc

	app.handlers = handlers.New(app.logger, svc)

	app.setupRouter()
	app.startBackground()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// startBackground launches the training scheduler and, when Kafka is enabled,
// the sync event consumer. Both stop on Shutdown.
func (a *App) startBackground() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelBackground = cancel

	go a.services.Trainer.Run(ctx)

	// Train once at startup so serving does not wait a full interval for
	// its first snapshot. Insufficient data just leaves rule-only serving.
	go func() {
		if _, err := a.services.Trainer.Train(ctx); err != nil {
			a.logger.WithError(err).Info("Initial training skipped")
		}
	}()

	if a.services.MessageBus != nil {
		go func() {
			if err := a.services.MessageBus.ConsumeSyncEvents(ctx, a.services.HandleSyncEvent); err != nil && ctx.Err() == nil {
				a.logger.WithError(err).Error("Sync event consumer stopped")
			}
		}()
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if a.cancelBackground != nil {
		a.cancelBackground()
	}

	if a.services.MessageBus != nil {
		if err := a.services.MessageBus.Close(); err != nil {
			a.logger.WithError(err).Error("Error closing message bus")
		}
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))

	router.GET("/health", a.handlers.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		members := api.Group("/members")
		{
			members.GET("/:memberId/recommendations", a.handlers.Recommendation.Get)
		}

		interactions := api.Group("/interactions")
		{
			interactions.POST("/apply", a.handlers.Interaction.RecordApply)
			interactions.POST("/bookmark", a.handlers.Interaction.RecordBookmark)
			interactions.POST("/comment", a.handlers.Interaction.RecordComment)
		}

		posts := api.Group("/posts")
		{
			posts.PATCH("/:postId/status", a.handlers.Post.UpdateStatus)
		}

		api.GET("/stats", a.handlers.Stats.Get)

		admin := api.Group("/admin")
		{
			admin.POST("/model/train", a.handlers.Admin.Train)
			admin.POST("/cache/flush", a.handlers.Admin.FlushCache)
		}
	}

	a.router = router
}
