package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/teamcobee/roomie/internal/services"
)

type InteractionHandler struct {
	logger       *logrus.Logger
	interactions services.InteractionRecorder
	validator    *validator.Validate
}

type interactionRequest struct {
	MemberID      int64 `json:"member_id" validate:"required,gt=0"`
	RecruitPostID int64 `json:"recruit_post_id" validate:"required,gt=0"`
}

type commentRequest struct {
	MemberID      int64  `json:"member_id" validate:"required,gt=0"`
	RecruitPostID int64  `json:"recruit_post_id" validate:"required,gt=0"`
	Content       string `json:"content" validate:"required,min=1,max=2000"`
}

func NewInteractionHandler(logger *logrus.Logger, interactions services.InteractionRecorder) *InteractionHandler {
	return &InteractionHandler{
		logger:       logger,
		interactions: interactions,
		validator:    validator.New(),
	}
}

// RecordApply serves POST /api/v1/interactions/apply.
func (h *InteractionHandler) RecordApply(c *gin.Context) {
	var req interactionRequest
	if !h.bind(c, &req) {
		return
	}
	h.record(c, req.MemberID, req.RecruitPostID, "apply", func() error {
		return h.interactions.RecordApply(c.Request.Context(), req.MemberID, req.RecruitPostID)
	})
}

// RecordBookmark serves POST /api/v1/interactions/bookmark.
func (h *InteractionHandler) RecordBookmark(c *gin.Context) {
	var req interactionRequest
	if !h.bind(c, &req) {
		return
	}
	h.record(c, req.MemberID, req.RecruitPostID, "bookmark", func() error {
		return h.interactions.RecordBookmark(c.Request.Context(), req.MemberID, req.RecruitPostID)
	})
}

// RecordComment serves POST /api/v1/interactions/comment.
func (h *InteractionHandler) RecordComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidBody(c, err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.invalidBody(c, err)
		return
	}
	h.record(c, req.MemberID, req.RecruitPostID, "comment", func() error {
		return h.interactions.RecordComment(c.Request.Context(), req.MemberID, req.RecruitPostID, req.Content)
	})
}

func (h *InteractionHandler) bind(c *gin.Context, req *interactionRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.invalidBody(c, err)
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		h.invalidBody(c, err)
		return false
	}
	return true
}

func (h *InteractionHandler) invalidBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{
			"code":    "INVALID_REQUEST_BODY",
			"message": err.Error(),
		},
	})
}

func (h *InteractionHandler) record(c *gin.Context, memberID, postID int64, kind string, fn func() error) {
	if err := fn(); err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateInteraction):
			c.JSON(http.StatusConflict, gin.H{
				"error": gin.H{
					"code":    "DUPLICATE_INTERACTION",
					"message": "Interaction already recorded",
				},
			})
		case errors.Is(err, services.ErrStoreUnavailable):
			h.logger.WithError(err).Error("Store unavailable recording interaction")
			c.Header("Retry-After", "5")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": gin.H{
					"code":    "STORE_UNAVAILABLE",
					"message": "Backing store unavailable, retry later",
				},
			})
		default:
			h.logger.WithError(err).Error("Failed to record interaction")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "INTERACTION_FAILED",
					"message": "Failed to record interaction",
				},
			})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"member_id":       memberID,
		"recruit_post_id": postID,
		"interaction":     kind,
		"status":          "recorded",
	})
}
