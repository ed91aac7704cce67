package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"taxi/internal/app"
	"taxi/internal/handler"
)

// ──────────────────────────────────────────────
// 6. HTTP SURFACE
// ──────────────────────────────────────────────

func init() {
	gin.SetMode(gin.TestMode)
}

type httpLedger struct {
	*ledger
	idempotency *MockIdempotencyStore
	router      *gin.Engine
}

func newHTTPLedger(t *testing.T) *httpLedger {
	t.Helper()
	l := newLedger(t)
	h := &httpLedger{ledger: l, idempotency: NewMockIdempotencyStore()}
	h.router = app.NewRouter(app.RouterDeps{
		ShiftHandler:     handler.NewShiftHandler(l.shiftService),
		RideHandler:      handler.NewRideHandler(l.rideService),
		ExpenseHandler:   handler.NewExpenseHandler(l.expenseService),
		SummaryHandler:   handler.NewSummaryHandler(l.summaryService),
		SettingsHandler:  handler.NewSettingsHandler(l.settingsService),
		IdempotencyStore: h.idempotency,
	})
	return h
}

func (h *httpLedger) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, kind string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
	var resp handler.ErrorResponse
	decode(t, w, &resp)
	if resp.Kind != kind {
		t.Errorf("expected kind %q, got %q (%s)", kind, resp.Kind, resp.Error)
	}
}

func TestHTTP_ShiftFlow(t *testing.T) {
	t.Parallel()

	h := newHTTPLedger(t)

	w := h.do(http.MethodGet, "/v1/shifts/active", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 without an active shift, got %d", w.Code)
	}

	w = h.do(http.MethodPost, "/v1/shifts", `{"start_odometer": 1000}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var shift handler.ShiftResponse
	decode(t, w, &shift)
	if shift.State != "ACTIVE" || shift.Date != "2024-05-10" || shift.ShiftNumber != 1 {
		t.Errorf("unexpected shift: %+v", shift)
	}

	expectError(t, h.do(http.MethodPost, "/v1/shifts", `{"start_odometer": 2000}`), http.StatusConflict, "precondition")
	expectError(t, h.do(http.MethodPost, "/v1/shifts/"+shift.ID+"/close", `{"end_odometer": 999}`), http.StatusBadRequest, "validation")
	expectError(t, h.do(http.MethodPost, "/v1/shifts/"+shift.ID+"/rides", `{"payment_method": "CASH"}`), http.StatusBadRequest, "validation")

	w = h.do(http.MethodPost, "/v1/shifts/"+shift.ID+"/rides", `{"meter_amount": "10", "actual_amount": 12, "payment_method": "CASH"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var ride handler.RideResponse
	decode(t, w, &ride)
	if !ride.Tip.Equal(dec("2")) {
		t.Errorf("expected tip 2, got %s", ride.Tip)
	}

	w = h.do(http.MethodGet, "/v1/summaries/daily?date=2024-05-10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var daily handler.DailySummaryResponse
	decode(t, w, &daily)
	if !daily.TotalIncome.Equal(dec("12")) || daily.TargetStatus != "PENDING" {
		t.Errorf("unexpected daily summary: %+v", daily)
	}

	w = h.do(http.MethodPost, "/v1/shifts/"+shift.ID+"/close", `{"end_odometer": 1042}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var receipt handler.ShiftReceiptResponse
	decode(t, w, &receipt)
	if receipt.Distance != 42 || receipt.RideCount != 1 || receipt.Shift.State != "CLOSED" {
		t.Errorf("unexpected receipt: %+v", receipt)
	}

	expectError(t, h.do(http.MethodPost, "/v1/shifts/"+shift.ID+"/rides", `{"meter_amount": 1, "actual_amount": 1, "payment_method": "CASH"}`), http.StatusConflict, "precondition")
	expectError(t, h.do(http.MethodGet, "/v1/shifts/"+unknownID, ""), http.StatusNotFound, "not_found")
	expectError(t, h.do(http.MethodGet, "/v1/shifts/abc", ""), http.StatusBadRequest, "validation")
	expectError(t, h.do(http.MethodPost, "/v1/shifts/abc/rides", `{"meter_amount": 1, "actual_amount": 1, "payment_method": "CASH"}`), http.StatusBadRequest, "validation")
	expectError(t, h.do(http.MethodPost, "/v1/shifts/"+shift.ID+"/rides", `{"meter_amount": "10.004", "actual_amount": "10.006", "payment_method": "CASH"}`), http.StatusBadRequest, "validation")
}

func TestHTTP_StorageOutageIsServiceUnavailable(t *testing.T) {
	t.Parallel()

	h := newHTTPLedger(t)
	h.shifts.GetActiveError = ErrMockDBConnection

	expectError(t, h.do(http.MethodGet, "/v1/shifts/active", ""), http.StatusServiceUnavailable, "storage")
}

func TestHTTP_QueryValidation(t *testing.T) {
	t.Parallel()

	h := newHTTPLedger(t)

	expectError(t, h.do(http.MethodGet, "/v1/summaries/daily", ""), http.StatusBadRequest, "validation")
	expectError(t, h.do(http.MethodGet, "/v1/summaries/daily?date=10/05/2024", ""), http.StatusBadRequest, "validation")
	expectError(t, h.do(http.MethodGet, "/v1/shifts?from=2024-05-10", ""), http.StatusBadRequest, "validation")
	expectError(t, h.do(http.MethodGet, "/v1/summaries/stats?from=2024-05-31&to=2024-05-01", ""), http.StatusBadRequest, "validation")
}

func TestHTTP_IdempotentExpenseCreation(t *testing.T) {
	t.Parallel()

	h := newHTTPLedger(t)
	body := `{"date": "2024-05-10", "category": "VEHICLE", "subtype": "FUEL", "total_amount": "100", "vat_included": true}`

	first := h.do(http.MethodPost, "/v1/expenses", body, "Idempotency-Key", "expense-1")
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", first.Code, first.Body.String())
	}
	var created handler.ExpenseResponse
	decode(t, first, &created)
	if !created.VATAmount.Equal(dec("21")) {
		t.Errorf("expected VAT 21, got %s", created.VATAmount)
	}

	replay := h.do(http.MethodPost, "/v1/expenses", body, "Idempotency-Key", "expense-1")
	if replay.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", replay.Code)
	}
	if replay.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("expected replay header")
	}
	var replayed handler.ExpenseResponse
	decode(t, replay, &replayed)
	if replayed.ID != created.ID {
		t.Errorf("expected replayed id %s, got %s", created.ID, replayed.ID)
	}

	if h.expenses.CountExpenses() != 1 {
		t.Errorf("expected 1 stored expense, got %d", h.expenses.CountExpenses())
	}

	h.do(http.MethodPost, "/v1/expenses", body, "Idempotency-Key", "expense-2")
	if h.expenses.CountExpenses() != 2 {
		t.Errorf("expected a new key to create a second expense, got %d", h.expenses.CountExpenses())
	}
}

func TestHTTP_SettingsTarget(t *testing.T) {
	t.Parallel()

	h := newHTTPLedger(t)

	expectError(t, h.do(http.MethodPut, "/v1/settings/target", `{"target_amount": -5}`), http.StatusBadRequest, "validation")

	w := h.do(http.MethodPut, "/v1/settings/target", `{"target_amount": "180"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp handler.TargetResponse
	decode(t, h.do(http.MethodGet, "/v1/settings/target", ""), &resp)
	if !resp.TargetAmount.Equal(dec("180")) {
		t.Errorf("expected target 180, got %s", resp.TargetAmount)
	}
}
