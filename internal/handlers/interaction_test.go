package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/teamcobee/roomie/internal/services"
)

type MockInteractionRecorder struct {
	mock.Mock
}

func (m *MockInteractionRecorder) RecordApply(ctx context.Context, memberID, postID int64) error {
	args := m.Called(ctx, memberID, postID)
	return args.Error(0)
}

func (m *MockInteractionRecorder) RecordBookmark(ctx context.Context, memberID, postID int64) error {
	args := m.Called(ctx, memberID, postID)
	return args.Error(0)
}

func (m *MockInteractionRecorder) RecordComment(ctx context.Context, memberID, postID int64, content string) error {
	args := m.Called(ctx, memberID, postID, content)
	return args.Error(0)
}

func interactionRouter(recorder services.InteractionRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewInteractionHandler(testLogger(), recorder)
	router.POST("/api/v1/interactions/apply", handler.RecordApply)
	router.POST("/api/v1/interactions/bookmark", handler.RecordBookmark)
	router.POST("/api/v1/interactions/comment", handler.RecordComment)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestInteractionHandler_RecordApply(t *testing.T) {
	recorder := new(MockInteractionRecorder)
	router := interactionRouter(recorder)

	recorder.On("RecordApply", mock.Anything, int64(1), int64(10)).Return(nil)

	w := postJSON(router, "/api/v1/interactions/apply", `{"member_id": 1, "recruit_post_id": 10}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	recorder.AssertExpectations(t)
}

func TestInteractionHandler_DuplicateApplyConflicts(t *testing.T) {
	recorder := new(MockInteractionRecorder)
	router := interactionRouter(recorder)

	recorder.On("RecordApply", mock.Anything, int64(1), int64(10)).Return(services.ErrDuplicateInteraction)

	w := postJSON(router, "/api/v1/interactions/apply", `{"member_id": 1, "recruit_post_id": 10}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "DUPLICATE_INTERACTION")
}

func TestInteractionHandler_RecordComment(t *testing.T) {
	recorder := new(MockInteractionRecorder)
	router := interactionRouter(recorder)

	recorder.On("RecordComment", mock.Anything, int64(1), int64(10), "is the room still free?").Return(nil)

	w := postJSON(router, "/api/v1/interactions/comment",
		`{"member_id": 1, "recruit_post_id": 10, "content": "is the room still free?"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	recorder.AssertExpectations(t)
}

func TestInteractionHandler_ValidationFailures(t *testing.T) {
	recorder := new(MockInteractionRecorder)
	router := interactionRouter(recorder)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"missing member", "/api/v1/interactions/apply", `{"recruit_post_id": 10}`},
		{"missing post", "/api/v1/interactions/bookmark", `{"member_id": 1}`},
		{"negative ids", "/api/v1/interactions/apply", `{"member_id": -1, "recruit_post_id": 10}`},
		{"empty comment", "/api/v1/interactions/comment", `{"member_id": 1, "recruit_post_id": 10, "content": ""}`},
		{"malformed json", "/api/v1/interactions/apply", `{"member_id": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	recorder.AssertNotCalled(t, "RecordApply")
	recorder.AssertNotCalled(t, "RecordBookmark")
	recorder.AssertNotCalled(t, "RecordComment")
}

func TestInteractionHandler_StoreUnavailable(t *testing.T) {
	recorder := new(MockInteractionRecorder)
	router := interactionRouter(recorder)

	recorder.On("RecordBookmark", mock.Anything, int64(1), int64(10)).Return(services.ErrStoreUnavailable)

	w := postJSON(router, "/api/v1/interactions/bookmark", `{"member_id": 1, "recruit_post_id": 10}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "5", w.Header().Get("Retry-After"))
}
