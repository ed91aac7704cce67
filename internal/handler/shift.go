package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"taxi/internal/domain"
	"taxi/internal/service"
)

// ShiftHandler handles HTTP requests for shifts.
type ShiftHandler struct {
	shiftService *service.ShiftService
}

// NewShiftHandler creates a new ShiftHandler.
func NewShiftHandler(shiftService *service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftService: shiftService}
}

// StartShiftRequest is the HTTP request body for starting a shift.
type StartShiftRequest struct {
	StartOdometer *int64 `json:"start_odometer"`
	Date          string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

// CloseShiftRequest is the HTTP request body for closing a shift.
type CloseShiftRequest struct {
	EndOdometer *int64 `json:"end_odometer"`
}

// AmendShiftRequest is the HTTP request body for correcting a closed shift.
type AmendShiftRequest struct {
	Date          *string    `json:"date,omitempty"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	StartOdometer *int64     `json:"start_odometer,omitempty"`
	EndOdometer   *int64     `json:"end_odometer,omitempty"`
}

// ShiftResponse is the HTTP representation of a shift.
type ShiftResponse struct {
	ID            string `json:"id"`
	ShiftNumber   int    `json:"shift_number"`
	Date          string `json:"date"`
	State         string `json:"state"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time,omitempty"`
	StartOdometer int64  `json:"start_odometer"`
	EndOdometer   *int64 `json:"end_odometer,omitempty"`
	Distance      int64  `json:"distance"`
	WorkedTime    string `json:"worked_time"`
}

// ShiftReceiptResponse is the HTTP response for closing a shift.
type ShiftReceiptResponse struct {
	Shift      ShiftResponse   `json:"shift"`
	RideCount  int             `json:"ride_count"`
	Income     decimal.Decimal `json:"income"`
	Tips       decimal.Decimal `json:"tips"`
	Distance   int64           `json:"distance"`
	WorkedTime string          `json:"worked_time"`
	ClosedAt   string          `json:"closed_at"`
}

func (h *ShiftHandler) toResponse(s *domain.Shift) ShiftResponse {
	return ShiftResponse{
		ID:            s.ID,
		ShiftNumber:   s.ShiftNumber,
		Date:          formatDate(s.Date),
		State:         string(s.State()),
		StartTime:     formatInstant(s.StartTime),
		EndTime:       formatInstant(s.EndTime),
		StartOdometer: s.StartOdometer,
		EndOdometer:   s.EndOdometer,
		Distance:      s.Distance(),
		WorkedTime:    domain.FormatWorkedTime(h.shiftService.WorkedTime(s)),
	}
}

// StartShift handles POST /v1/shifts
func (h *ShiftHandler) StartShift(c *gin.Context) {
	var req StartShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	var date time.Time
	if req.Date != "" {
		d, err := domain.ParseDate(req.Date)
		if err != nil {
			respondBadRequest(c, "date must be a YYYY-MM-DD date")
			return
		}
		date = d
	}

	shift, err := h.shiftService.StartShift(c.Request.Context(), service.StartShiftRequest{
		StartOdometer: req.StartOdometer,
		Date:          date,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, h.toResponse(shift))
}

// GetActiveShift handles GET /v1/shifts/active
func (h *ShiftHandler) GetActiveShift(c *gin.Context) {
	shift, err := h.shiftService.GetActiveShift(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if shift == nil {
		c.Status(http.StatusNoContent)
		return
	}
	respondJSON(c, http.StatusOK, h.toResponse(shift))
}

// GetShift handles GET /v1/shifts/:id
func (h *ShiftHandler) GetShift(c *gin.Context) {
	shift, err := h.shiftService.GetShift(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, h.toResponse(shift))
}

// ListShifts handles GET /v1/shifts?from=&to=
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	r, err := parseRangeParams(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	shifts, err := h.shiftService.ListShifts(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]ShiftResponse, 0, len(shifts))
	for _, s := range shifts {
		resp = append(resp, h.toResponse(s))
	}
	respondJSON(c, http.StatusOK, gin.H{"shifts": resp, "count": len(resp)})
}

// CloseShift handles POST /v1/shifts/:id/close
func (h *ShiftHandler) CloseShift(c *gin.Context) {
	var req CloseShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	receipt, err := h.shiftService.CloseShift(c.Request.Context(), c.Param("id"), req.EndOdometer)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ShiftReceiptResponse{
		Shift:      h.toResponse(receipt.Shift),
		RideCount:  receipt.RideCount,
		Income:     receipt.Income,
		Tips:       receipt.Tips,
		Distance:   receipt.Distance,
		WorkedTime: domain.FormatWorkedTime(receipt.WorkedTime),
		ClosedAt:   formatInstant(receipt.ClosedAt),
	})
}

// AmendShift handles PUT /v1/shifts/:id
func (h *ShiftHandler) AmendShift(c *gin.Context) {
	var req AmendShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	amend := service.AmendShiftRequest{
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		StartOdometer: req.StartOdometer,
		EndOdometer:   req.EndOdometer,
	}
	if req.Date != nil {
		d, err := domain.ParseDate(*req.Date)
		if err != nil {
			respondBadRequest(c, "date must be a YYYY-MM-DD date")
			return
		}
		amend.Date = &d
	}

	shift, err := h.shiftService.AmendShift(c.Request.Context(), c.Param("id"), amend)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, h.toResponse(shift))
}

// DeleteShift handles DELETE /v1/shifts/:id
func (h *ShiftHandler) DeleteShift(c *gin.Context) {
	if err := h.shiftService.DeleteShift(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
