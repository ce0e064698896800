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

type PostHandler struct {
	logger *logrus.Logger
	posts  *services.PostRepository
}

type statusUpdateRequest struct {
	Status models.RecruitStatus `json:"status" binding:"required"`
}

func NewPostHandler(logger *logrus.Logger, posts *services.PostRepository) *PostHandler {
	return &PostHandler{
		logger: logger,
		posts:  posts,
	}
}

// UpdateStatus serves PATCH /api/v1/posts/:postId/status.
func (h *PostHandler) UpdateStatus(c *gin.Context) {
	postIDStr := c.Param("postId")
	postID, err := strconv.ParseInt(postIDStr, 10, 64)
	if err != nil || postID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_POST_ID",
				"message": "Post ID must be a positive integer",
			},
		})
		return
	}

	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST_BODY",
				"message": err.Error(),
			},
		})
		return
	}

	if err := h.posts.TransitionStatus(c.Request.Context(), postID, req.Status); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{
				"error": gin.H{
					"code":    "INVALID_TRANSITION",
					"message": err.Error(),
				},
			})
		case errors.Is(err, services.ErrStoreUnavailable):
			h.logger.WithError(err).WithField("post_id", postID).Error("Store unavailable updating post status")
			c.Header("Retry-After", "5")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": gin.H{
					"code":    "STORE_UNAVAILABLE",
					"message": "Backing store unavailable, retry later",
				},
			})
		case errors.Is(err, services.ErrPostNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "POST_NOT_FOUND",
					"message": "Recruit post does not exist",
				},
			})
		default:
			h.logger.WithError(err).WithField("post_id", postID).Error("Failed to update post status")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "STATUS_UPDATE_FAILED",
					"message": "Failed to update post status",
				},
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recruit_post_id": postID,
		"status":          req.Status,
	})
}
