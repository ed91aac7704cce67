package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"taxi/internal/domain"
	"taxi/internal/service"
	"taxi/internal/summary"
)

// SummaryHandler handles HTTP requests for derived reports.
type SummaryHandler struct {
	summaryService *service.SummaryService
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summaryService *service.SummaryService) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService}
}

// MethodTotalsResponse is the count and sum of one payment method.
type MethodTotalsResponse struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// ShiftRowResponse is one shift line of a daily summary.
type ShiftRowResponse struct {
	ShiftID       string                          `json:"shift_id,omitempty"`
	ShiftNumber   int                             `json:"shift_number,omitempty"`
	Active        bool                            `json:"active"`
	RideCount     int                             `json:"ride_count"`
	ByMethod      map[string]MethodTotalsResponse `json:"by_method"`
	Income        decimal.Decimal                 `json:"income"`
	Tips          decimal.Decimal                 `json:"tips"`
	StartOdometer int64                           `json:"start_odometer"`
	EndOdometer   *int64                          `json:"end_odometer,omitempty"`
	Distance      int64                           `json:"distance"`
	StartTime     string                          `json:"start_time,omitempty"`
	EndTime       string                          `json:"end_time,omitempty"`
	WorkedTime    string                          `json:"worked_time"`
	DispatchCount int                             `json:"dispatch_count"`
	AirportCount  int                             `json:"airport_count"`
}

// DailySummaryResponse is the HTTP representation of a daily summary.
type DailySummaryResponse struct {
	Date              string             `json:"date"`
	Shifts            []ShiftRowResponse `json:"shifts"`
	Combined          ShiftRowResponse   `json:"combined"`
	TotalIncome       decimal.Decimal    `json:"total_income"`
	TotalTips         decimal.Decimal    `json:"total_tips"`
	TotalExpenses     decimal.Decimal    `json:"total_expenses"`
	Net               decimal.Decimal    `json:"net"`
	Target            decimal.Decimal    `json:"target"`
	RemainingToTarget decimal.Decimal    `json:"remaining_to_target"`
	TargetStatus      string             `json:"target_status"`
	WorkedTime        string             `json:"worked_time"`
}

// PeriodRowResponse is one line of a monthly or annual summary.
type PeriodRowResponse struct {
	Date       string          `json:"date"`
	Income     decimal.Decimal `json:"income"`
	Expenses   decimal.Decimal `json:"expenses"`
	Net        decimal.Decimal `json:"net"`
	Tips       decimal.Decimal `json:"tips"`
	RideCount  int             `json:"ride_count"`
	ShiftCount int             `json:"shift_count"`
}

// PeriodSummaryResponse is the HTTP representation of a monthly or annual
// summary.
type PeriodSummaryResponse struct {
	Period string              `json:"period"`
	Rows   []PeriodRowResponse `json:"rows"`
	Totals PeriodRowResponse   `json:"totals"`
}

// ShareRowResponse is one slice of a breakdown.
type ShareRowResponse struct {
	Key        string          `json:"key"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
}

// StatsResponse is the HTTP representation of range statistics.
type StatsResponse struct {
	From           string           `json:"from"`
	To             string           `json:"to"`
	TotalIncome    decimal.Decimal  `json:"total_income"`
	TotalExpenses  decimal.Decimal  `json:"total_expenses"`
	Net            decimal.Decimal  `json:"net"`
	TotalTips      decimal.Decimal  `json:"total_tips"`
	RideCount      int              `json:"ride_count"`
	Distance       int64            `json:"distance"`
	WorkedDays     int              `json:"worked_days"`
	ExpenseDays    int              `json:"expense_days"`
	AverageIncome  decimal.Decimal  `json:"average_income"`
	AverageExpense decimal.Decimal  `json:"average_expense"`
	BestDay        *BestDayResponse `json:"best_day,omitempty"`
}

// BestDayResponse is the day with the highest income.
type BestDayResponse struct {
	Date   string          `json:"date"`
	Income decimal.Decimal `json:"income"`
}

func toShiftRowResponse(r summary.ShiftRow) ShiftRowResponse {
	byMethod := make(map[string]MethodTotalsResponse, len(r.ByMethod))
	for m, t := range r.ByMethod {
		byMethod[string(m)] = MethodTotalsResponse{Count: t.Count, Amount: t.Amount}
	}
	resp := ShiftRowResponse{
		ShiftID:       r.ShiftID,
		ShiftNumber:   r.ShiftNumber,
		Active:        r.Active,
		RideCount:     r.RideCount,
		ByMethod:      byMethod,
		Income:        r.Income,
		Tips:          r.Tips,
		StartOdometer: r.StartOdometer,
		EndOdometer:   r.EndOdometer,
		Distance:      r.Distance,
		StartTime:     formatInstant(r.StartTime),
		EndTime:       formatInstant(r.EndTime),
		WorkedTime:    domain.FormatWorkedTime(r.WorkedTime),
		DispatchCount: r.DispatchCount,
		AirportCount:  r.AirportCount,
	}
	return resp
}

func toPeriodRowResponse(r summary.PeriodRow) PeriodRowResponse {
	return PeriodRowResponse{
		Date:       formatDate(r.Date),
		Income:     r.Income,
		Expenses:   r.Expenses,
		Net:        r.Net,
		Tips:       r.Tips,
		RideCount:  r.RideCount,
		ShiftCount: r.ShiftCount,
	}
}

func toShareRowsResponse(rows []summary.ShareRow) []ShareRowResponse {
	resp := make([]ShareRowResponse, 0, len(rows))
	for _, r := range rows {
		resp = append(resp, ShareRowResponse{Key: r.Key, Amount: r.Amount, Count: r.Count, Percentage: r.Percentage})
	}
	return resp
}

// Daily handles GET /v1/summaries/daily?date=&target=
func (h *SummaryHandler) Daily(c *gin.Context) {
	date, ok, err := parseDateParam(c, "date")
	if err != nil || !ok {
		respondBadRequest(c, "date must be a YYYY-MM-DD date")
		return
	}

	var target *decimal.Decimal
	if raw := c.Query("target"); raw != "" {
		t, err := decimal.NewFromString(raw)
		if err != nil {
			respondBadRequest(c, "target must be a decimal amount")
			return
		}
		target = &t
	}

	daily, err := h.summaryService.DailySummary(c.Request.Context(), date, target)
	if err != nil {
		respondError(c, err)
		return
	}

	shifts := make([]ShiftRowResponse, 0, len(daily.Shifts))
	for _, row := range daily.Shifts {
		shifts = append(shifts, toShiftRowResponse(row))
	}
	respondJSON(c, http.StatusOK, DailySummaryResponse{
		Date:              formatDate(daily.Date),
		Shifts:            shifts,
		Combined:          toShiftRowResponse(daily.Combined),
		TotalIncome:       daily.TotalIncome,
		TotalTips:         daily.TotalTips,
		TotalExpenses:     daily.TotalExpenses,
		Net:               daily.Net,
		Target:            daily.Target,
		RemainingToTarget: daily.RemainingToTarget,
		TargetStatus:      string(daily.TargetStatus),
		WorkedTime:        domain.FormatWorkedTime(daily.WorkedTime),
	})
}

// Monthly handles GET /v1/summaries/monthly?month=YYYY-MM
func (h *SummaryHandler) Monthly(c *gin.Context) {
	month, err := time.Parse("2006-01", c.Query("month"))
	if err != nil {
		respondBadRequest(c, "month must be YYYY-MM")
		return
	}

	monthly, err := h.summaryService.MonthlySummary(c.Request.Context(), month.Year(), month.Month())
	if err != nil {
		respondError(c, err)
		return
	}

	rows := make([]PeriodRowResponse, 0, len(monthly.Days))
	for _, r := range monthly.Days {
		rows = append(rows, toPeriodRowResponse(r))
	}
	totals := toPeriodRowResponse(monthly.Totals)
	totals.Date = ""
	respondJSON(c, http.StatusOK, PeriodSummaryResponse{
		Period: month.Format("2006-01"),
		Rows:   rows,
		Totals: totals,
	})
}

// Annual handles GET /v1/summaries/annual?year=
func (h *SummaryHandler) Annual(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 1 || year > 9999 {
		respondBadRequest(c, "year must be a number")
		return
	}

	annual, err := h.summaryService.AnnualSummary(c.Request.Context(), year)
	if err != nil {
		respondError(c, err)
		return
	}

	rows := make([]PeriodRowResponse, 0, len(annual.Months))
	for _, r := range annual.Months {
		rows = append(rows, toPeriodRowResponse(r))
	}
	totals := toPeriodRowResponse(annual.Totals)
	totals.Date = ""
	respondJSON(c, http.StatusOK, PeriodSummaryResponse{
		Period: strconv.Itoa(year),
		Rows:   rows,
		Totals: totals,
	})
}

// Expenses handles GET /v1/summaries/expenses?from=&to=&by=category|subtype
func (h *SummaryHandler) Expenses(c *gin.Context) {
	r, err := parseRangeParams(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	rows, err := h.summaryService.ExpenseBreakdown(c.Request.Context(), r, service.BreakdownKind(c.DefaultQuery("by", "category")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"rows": toShareRowsResponse(rows)})
}

// Payments handles GET /v1/summaries/payments?from=&to=
func (h *SummaryHandler) Payments(c *gin.Context) {
	r, err := parseRangeParams(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	rows, err := h.summaryService.IncomeByPaymentMethod(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"rows": toShareRowsResponse(rows)})
}

// Stats handles GET /v1/summaries/stats?from=&to=
func (h *SummaryHandler) Stats(c *gin.Context) {
	r, err := parseRangeParams(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	stats, err := h.summaryService.Stats(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := StatsResponse{
		From:           formatDate(stats.From),
		To:             formatDate(stats.To),
		TotalIncome:    stats.TotalIncome,
		TotalExpenses:  stats.TotalExpenses,
		Net:            stats.Net,
		TotalTips:      stats.TotalTips,
		RideCount:      stats.RideCount,
		Distance:       stats.Distance,
		WorkedDays:     stats.WorkedDays,
		ExpenseDays:    stats.ExpenseDays,
		AverageIncome:  stats.AverageIncome,
		AverageExpense: stats.AverageExpense,
	}
	if stats.BestDay != nil {
		resp.BestDay = &BestDayResponse{Date: formatDate(stats.BestDay.Date), Income: stats.BestDay.Income}
	}
	respondJSON(c, http.StatusOK, resp)
}
