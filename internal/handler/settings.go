package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"taxi/internal/service"
)

// SettingsHandler handles HTTP requests for the daily target.
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// TargetRequest is the HTTP request body for setting the daily target.
type TargetRequest struct {
	TargetAmount decimal.NullDecimal `json:"target_amount"`
}

// TargetResponse is the HTTP representation of the daily target.
type TargetResponse struct {
	TargetAmount decimal.Decimal `json:"target_amount"`
}

// GetTarget handles GET /v1/settings/target
func (h *SettingsHandler) GetTarget(c *gin.Context) {
	respondJSON(c, http.StatusOK, TargetResponse{
		TargetAmount: h.settingsService.TargetAmount(c.Request.Context()),
	})
}

// SetTarget handles PUT /v1/settings/target
func (h *SettingsHandler) SetTarget(c *gin.Context) {
	var req TargetRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.TargetAmount.Valid {
		respondBadRequest(c, "target_amount is required")
		return
	}

	if err := h.settingsService.SetTargetAmount(c.Request.Context(), req.TargetAmount.Decimal); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, TargetResponse{TargetAmount: req.TargetAmount.Decimal})
}
