package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/teamcobee/roomie/internal/services"
)

// AdminHandler exposes operational endpoints: on-demand retraining and cache
// flushes. These sit behind whatever network controls front the service.
type AdminHandler struct {
	logger  *logrus.Logger
	trainer *services.Trainer
	cache   services.ResultCacher
}

func NewAdminHandler(logger *logrus.Logger, trainer *services.Trainer, cache services.ResultCacher) *AdminHandler {
	return &AdminHandler{
		logger:  logger,
		trainer: trainer,
		cache:   cache,
	}
}

// Train serves POST /api/v1/admin/model/train. Training runs inline so the
// caller learns whether a snapshot was actually published.
func (h *AdminHandler) Train(c *gin.Context) {
	snap, err := h.trainer.Train(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInsufficientData):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": gin.H{
					"code":    "INSUFFICIENT_DATA",
					"message": err.Error(),
				},
			})
		case errors.Is(err, services.ErrStoreUnavailable):
			c.Header("Retry-After", "5")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": gin.H{
					"code":    "STORE_UNAVAILABLE",
					"message": "Backing store unavailable, retry later",
				},
			})
		default:
			h.logger.WithError(err).Error("On-demand training failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "TRAINING_FAILED",
					"message": "Training failed",
				},
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"model_version": snap.Version,
		"trained_at":    snap.TrainedAt,
		"members":       snap.Members(),
		"posts":         snap.Posts(),
	})
}

// FlushCache serves POST /api/v1/admin/cache/flush.
func (h *AdminHandler) FlushCache(c *gin.Context) {
	if err := h.cache.InvalidateAll(c.Request.Context()); err != nil {
		h.logger.WithError(err).Error("Cache flush failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "CACHE_FLUSH_FAILED",
				"message": "Failed to flush recommendation cache",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "flushed"})
}
