package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"taxi/internal/domain"
	"taxi/internal/service"
)

// ExpenseHandler handles HTTP requests for expenses.
type ExpenseHandler struct {
	expenseService *service.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// ExpenseRequest is the HTTP request body for recording or replacing an expense.
type ExpenseRequest struct {
	Date          string              `json:"date"`
	Category      string              `json:"category"`
	Subtype       string              `json:"subtype"`
	InvoiceNumber string              `json:"invoice_number,omitempty"`
	Supplier      string              `json:"supplier,omitempty"`
	TotalAmount   decimal.NullDecimal `json:"total_amount"`
	VATIncluded   bool                `json:"vat_included"`
	Mileage       *int64              `json:"mileage,omitempty"`
	Notes         string              `json:"notes,omitempty"`
}

// ExpenseResponse is the HTTP representation of an expense.
type ExpenseResponse struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"`
	Category      string          `json:"category"`
	Subtype       string          `json:"subtype"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Supplier      string          `json:"supplier,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	VATIncluded   bool            `json:"vat_included"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	Mileage       *int64          `json:"mileage,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

func toExpenseResponse(e *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:            e.ID,
		Date:          formatDate(e.Date),
		Category:      string(e.Category),
		Subtype:       string(e.Subtype),
		InvoiceNumber: e.InvoiceNumber,
		Supplier:      e.Supplier,
		TotalAmount:   e.TotalAmount,
		VATIncluded:   e.VATIncluded,
		VATAmount:     e.VATAmount,
		Mileage:       e.Mileage,
		Notes:         e.Notes,
	}
}

func bindExpenseRequest(c *gin.Context) (service.ExpenseRequest, bool) {
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return service.ExpenseRequest{}, false
	}
	if !req.TotalAmount.Valid {
		respondBadRequest(c, "total_amount is required")
		return service.ExpenseRequest{}, false
	}

	out := service.ExpenseRequest{
		Category:      domain.ExpenseCategory(req.Category),
		Subtype:       domain.ExpenseSubtype(req.Subtype),
		InvoiceNumber: req.InvoiceNumber,
		Supplier:      req.Supplier,
		TotalAmount:   req.TotalAmount.Decimal,
		VATIncluded:   req.VATIncluded,
		Mileage:       req.Mileage,
		Notes:         req.Notes,
	}
	if req.Date != "" {
		d, err := domain.ParseDate(req.Date)
		if err != nil {
			respondBadRequest(c, "date must be a YYYY-MM-DD date")
			return service.ExpenseRequest{}, false
		}
		out.Date = d
	}
	return out, true
}

// RecordExpense handles POST /v1/expenses
func (h *ExpenseHandler) RecordExpense(c *gin.Context) {
	req, ok := bindExpenseRequest(c)
	if !ok {
		return
	}

	expense, err := h.expenseService.RecordExpense(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toExpenseResponse(expense))
}

// GetExpense handles GET /v1/expenses/:id
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	expense, err := h.expenseService.GetExpense(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toExpenseResponse(expense))
}

// ListExpenses handles GET /v1/expenses?from=&to=
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	r, err := parseRangeParams(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	expenses, err := h.expenseService.ListExpenses(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		resp = append(resp, toExpenseResponse(e))
	}
	respondJSON(c, http.StatusOK, gin.H{"expenses": resp, "count": len(resp)})
}

// UpdateExpense handles PUT /v1/expenses/:id
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	req, ok := bindExpenseRequest(c)
	if !ok {
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toExpenseResponse(expense))
}

// DeleteExpense handles DELETE /v1/expenses/:id
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	if err := h.expenseService.DeleteExpense(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
