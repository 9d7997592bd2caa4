package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/thr-api/internal/domain/entity"
	"github.com/yourusername/thr-api/internal/service"
)

// AnswerHandler обрабатывает запросы отправки ответов
type AnswerHandler struct {
	answerService *service.AnswerService
}

// NewAnswerHandler создает новый обработчик ответов
func NewAnswerHandler(answerService *service.AnswerService) *AnswerHandler {
	return &AnswerHandler{answerService: answerService}
}

// SubmitAnswerRequest представляет запрос на отправку ответа.
// SelectedOption — указатель: отсутствие поля трактуется как просроченный
// ответ без выбора (-1), а не как вариант 0.
type SubmitAnswerRequest struct {
	ParticipantID   uint `json:"participant_id" binding:"required"`
	QuestionID      uint `json:"question_id" binding:"required"`
	SelectedOption  *int `json:"selected_option"`
	TimeToAnswerSec int  `json:"time_to_answer_sec" binding:"omitempty,min=0"`
}

// SubmitAnswer обрабатывает попытку ответа на вопрос комнаты
func (h *AnswerHandler) SubmitAnswer(c *gin.Context) {
	roomID := c.MustGet("roomID").(uint)

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	selectedOption := entity.NoSelectionOption
	if req.SelectedOption != nil {
		selectedOption = *req.SelectedOption
	}

	result, err := h.answerService.Submit(c.Request.Context(), service.SubmitAnswerInput{
		ParticipantID:   req.ParticipantID,
		QuestionID:      req.QuestionID,
		RoomID:          roomID,
		SelectedOption:  selectedOption,
		TimeToAnswerSec: req.TimeToAnswerSec,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
