package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/teamcobee/roomie/internal/services"
)

type StatsHandler struct {
	logger   *logrus.Logger
	services *services.Services
}

func NewStatsHandler(logger *logrus.Logger, svc *services.Services) *StatsHandler {
	return &StatsHandler{
		logger:   logger,
		services: svc,
	}
}

// Get serves GET /api/v1/stats.
func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.services.Stats(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrStoreUnavailable) {
			c.Header("Retry-After", "5")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": gin.H{
					"code":    "STORE_UNAVAILABLE",
					"message": "Backing store unavailable, retry later",
				},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to collect stats")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "STATS_FAILED",
				"message": "Failed to collect stats",
			},
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
