package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/thr-api/internal/service"
)

// RedemptionHandler обрабатывает запросы обмена рупий на призы
type RedemptionHandler struct {
	redemptionService *service.RedemptionService
}

// NewRedemptionHandler создает новый обработчик обменов
func NewRedemptionHandler(redemptionService *service.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{redemptionService: redemptionService}
}

// RedeemRequest представляет запрос на обмен
type RedeemRequest struct {
	ParticipantID uint `json:"participant_id" binding:"required"`
	RewardID      uint `json:"reward_id" binding:"required"`
}

// Redeem обрабатывает запрос на обмен рупий на приз
func (h *RedemptionHandler) Redeem(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.redemptionService.Redeem(c.Request.Context(), req.ParticipantID, req.RewardID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// SetStatusRequest представляет запрос на переход статуса обмена
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=fulfilled cancelled"`
	Notes  string `json:"notes" binding:"omitempty,max=500"`
}

// SetStatus обрабатывает переход статуса обмена (выдача или отмена)
func (h *RedemptionHandler) SetStatus(c *gin.Context) {
	redemptionID := c.MustGet("redemptionID").(uint)

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	redemption, err := h.redemptionService.SetStatus(c.Request.Context(), redemptionID, req.Status, req.Notes)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, redemption)
}

// GetRedemption возвращает запись обмена
func (h *RedemptionHandler) GetRedemption(c *gin.Context) {
	redemptionID := c.MustGet("redemptionID").(uint)

	redemption, err := h.redemptionService.GetRedemption(redemptionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, redemption)
}

// ClaimFullBalance обрабатывает административное списание всего баланса участника
func (h *RedemptionHandler) ClaimFullBalance(c *gin.Context) {
	participantID := c.MustGet("participantID").(uint)

	result, err := h.redemptionService.ClaimFullBalance(c.Request.Context(), participantID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
