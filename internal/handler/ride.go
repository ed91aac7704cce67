package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"taxi/internal/domain"
	"taxi/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// RideRequest is the HTTP request body for recording or editing a ride.
type RideRequest struct {
	MeterAmount   decimal.NullDecimal `json:"meter_amount"`
	ActualAmount  decimal.NullDecimal `json:"actual_amount"`
	PaymentMethod string              `json:"payment_method"` // CASH, CARD, VOUCHER, MOBILE_TRANSFER
	Dispatch      bool                `json:"dispatch"`
	Airport       bool                `json:"airport"`
	Time          *time.Time          `json:"time,omitempty"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID            string          `json:"id"`
	ShiftID       string          `json:"shift_id"`
	Time          string          `json:"time"`
	MeterAmount   decimal.Decimal `json:"meter_amount"`
	ActualAmount  decimal.Decimal `json:"actual_amount"`
	Tip           decimal.Decimal `json:"tip"`
	PaymentMethod string          `json:"payment_method"`
	Dispatch      bool            `json:"dispatch"`
	Airport       bool            `json:"airport"`
}

func toRideResponse(r *domain.Ride) RideResponse {
	return RideResponse{
		ID:            r.ID,
		ShiftID:       r.ShiftID,
		Time:          formatInstant(r.Time),
		MeterAmount:   r.MeterAmount,
		ActualAmount:  r.ActualAmount,
		Tip:           r.Tip,
		PaymentMethod: string(r.PaymentMethod),
		Dispatch:      r.Dispatch,
		Airport:       r.Airport,
	}
}

// bindRideRequest reads and checks the request body. It responds and returns
// false on bad input.
func bindRideRequest(c *gin.Context) (service.RideRequest, bool) {
	var req RideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return service.RideRequest{}, false
	}
	if !req.MeterAmount.Valid || !req.ActualAmount.Valid {
		respondBadRequest(c, "meter_amount and actual_amount are required")
		return service.RideRequest{}, false
	}

	out := service.RideRequest{
		MeterAmount:   req.MeterAmount.Decimal,
		ActualAmount:  req.ActualAmount.Decimal,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		Dispatch:      req.Dispatch,
		Airport:       req.Airport,
	}
	if req.Time != nil {
		out.Time = *req.Time
	}
	return out, true
}

// RecordRide handles POST /v1/shifts/:id/rides
func (h *RideHandler) RecordRide(c *gin.Context) {
	req, ok := bindRideRequest(c)
	if !ok {
		return
	}

	ride, err := h.rideService.RecordRide(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// ListRides handles GET /v1/shifts/:id/rides
func (h *RideHandler) ListRides(c *gin.Context) {
	rides, err := h.rideService.ListRides(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		resp = append(resp, toRideResponse(r))
	}
	respondJSON(c, http.StatusOK, gin.H{"rides": resp, "count": len(resp)})
}

// UpdateRide handles PUT /v1/rides/:id
func (h *RideHandler) UpdateRide(c *gin.Context) {
	req, ok := bindRideRequest(c)
	if !ok {
		return
	}

	ride, err := h.rideService.UpdateRide(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// DeleteRide handles DELETE /v1/rides/:id
func (h *RideHandler) DeleteRide(c *gin.Context) {
	if err := h.rideService.DeleteRide(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AmendRide handles PUT /v1/rides/:id/amend
func (h *RideHandler) AmendRide(c *gin.Context) {
	req, ok := bindRideRequest(c)
	if !ok {
		return
	}

	ride, err := h.rideService.AmendClosedRide(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// DeleteAmendedRide handles DELETE /v1/rides/:id/amend
func (h *RideHandler) DeleteAmendedRide(c *gin.Context) {
	if err := h.rideService.DeleteClosedRide(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
