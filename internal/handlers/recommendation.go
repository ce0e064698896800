package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/teamcobee/roomie/internal/services"
	"github.com/teamcobee/roomie/pkg/models"
)

type RecommendationHandler struct {
	recommender services.Recommender
	logger      *logrus.Logger
}

func NewRecommendationHandler(recommender services.Recommender, logger *logrus.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		recommender: recommender,
		logger:      logger,
	}
}

// Get serves GET /api/v1/members/:memberId/recommendations.
func (h *RecommendationHandler) Get(c *gin.Context) {
	memberIDStr := c.Param("memberId")
	memberID, err := strconv.ParseInt(memberIDStr, 10, 64)
	if err != nil || memberID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_MEMBER_ID",
				"message": "Member ID must be a positive integer",
			},
		})
		return
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "INVALID_LIMIT",
					"message": "Limit must be a positive integer",
				},
			})
			return
		}
		limit = parsed
	}

	explain := c.Query("explain") == "true"

	result, err := h.recommender.GetRecommendations(c.Request.Context(), memberID, limit, explain)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "MEMBER_NOT_FOUND",
					"message": "Member does not exist",
				},
			})
		case errors.Is(err, services.ErrStoreUnavailable):
			h.logger.WithError(err).WithField("member_id", memberID).Error("Store unavailable serving recommendations")
			c.Header("Retry-After", "5")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": gin.H{
					"code":    "STORE_UNAVAILABLE",
					"message": "Backing store unavailable, retry later",
				},
			})
		default:
			h.logger.WithError(err).WithField("member_id", memberID).Error("Failed to generate recommendations")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "RECOMMENDATION_FAILED",
					"message": "Failed to generate recommendations",
				},
			})
		}
		return
	}

	response := models.RecommendationResponse{
		MemberID:     result.MemberID,
		Items:        result.Items,
		TotalCount:   len(result.Items),
		Phase:        result.Phase,
		ModelVersion: result.ModelVersion,
		GeneratedAt:  result.GeneratedAt,
		CacheHit:     result.CacheHit,
	}

	c.JSON(http.StatusOK, response)
}
