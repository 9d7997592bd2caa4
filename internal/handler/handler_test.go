package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/thr-api/internal/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestGinContext создает *gin.Context для тестов с JSON body
func newTestGinContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()

	var req *http.Request
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

// ============================================================================
// Request validation tests — не требуют реального сервиса:
// handler возвращает 400 до его вызова
// ============================================================================

func TestSubmitAnswer_ValidationErrors(t *testing.T) {
	handler := &AnswerHandler{} // nil service — OK для validation tests

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty body", nil},
		{"missing participant_id", map[string]interface{}{"question_id": 10}},
		{"missing question_id", map[string]interface{}{"participant_id": 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext(http.MethodPost, "/api/rooms/1/answers", tt.body)
			c.Set("roomID", uint(1))

			handler.SubmitAnswer(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSetStatus_ValidationErrors(t *testing.T) {
	handler := &RedemptionHandler{}

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty body", nil},
		{"missing status", map[string]string{"notes": "x"}},
		{"status outside oneof", map[string]string{"status": "pending"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext(http.MethodPatch, "/api/redemptions/20/status", tt.body)
			c.Set("redemptionID", uint(20))

			handler.SetStatus(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

// ============================================================================
// Error → HTTP mapping
// ============================================================================

func TestHandleServiceError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", apperrors.ErrNotFound, http.StatusNotFound},
		{"already resolved", apperrors.ErrAlreadyResolved, http.StatusConflict},
		{"duplicate attempt", apperrors.ErrDuplicateAttempt, http.StatusConflict},
		{"out of stock", apperrors.ErrOutOfStock, http.StatusConflict},
		{"insufficient balance", apperrors.ErrInsufficientBalance, http.StatusConflict},
		{"room mismatch", apperrors.ErrRoomMismatch, http.StatusConflict},
		{"illegal transition", apperrors.ErrIllegalTransition, http.StatusConflict},
		{"validation", apperrors.ErrValidation, http.StatusUnprocessableEntity},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden},
		{"service unavailable", apperrors.ErrServiceUnavailable, http.StatusServiceUnavailable},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext(http.MethodGet, "/", nil)

			handleServiceError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandleServiceError_WrappedConflictKeepsStatus(t *testing.T) {
	// Сервисы оборачивают sentinel-и через %w — маппинг должен их видеть
	c, w := newTestGinContext(http.MethodGet, "/", nil)

	handleServiceError(c, fmt.Errorf("%w: pending -> pending", apperrors.ErrIllegalTransition))

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "pending")
}

func TestHandleServiceError_UnavailableSetsRetryAfter(t *testing.T) {
	c, w := newTestGinContext(http.MethodGet, "/", nil)

	handleServiceError(c, apperrors.ErrServiceUnavailable)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestSanitizeForExcel(t *testing.T) {
	assert.Equal(t, "'=SUM(A1)", sanitizeForExcel("=SUM(A1)"))
	assert.Equal(t, "'+1", sanitizeForExcel("+1"))
	assert.Equal(t, "Sarung", sanitizeForExcel("Sarung"))
	assert.Equal(t, "", sanitizeForExcel(""))
}
