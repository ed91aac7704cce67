package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/loggo"

	"taxi/internal/domain"
	"taxi/internal/service"
)

var logger = loggo.GetLogger("taxi.handler")

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	kind := errorKind(err)
	_ = c.Error(err).SetMeta(kind)
	if code >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(code, ErrorResponse{Error: err.Error(), Kind: kind})
}

// respondBadRequest sends a 400 for input rejected before reaching a service.
func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Kind: "validation"})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service error kinds to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrPrecondition),
		errors.Is(err, service.ErrConcurrencyConflict):
		return http.StatusConflict

	case errors.Is(err, service.ErrStorage):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, service.ErrValidation):
		return "validation"
	case errors.Is(err, service.ErrNotFound):
		return "not_found"
	case errors.Is(err, service.ErrPrecondition):
		return "precondition"
	case errors.Is(err, service.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, service.ErrStorage):
		return "storage"
	}
	return ""
}

// parseDateParam parses an optional YYYY-MM-DD query parameter.
func parseDateParam(c *gin.Context, name string) (time.Time, bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, false, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, false, errors.New(name + " must be a YYYY-MM-DD date")
	}
	return d, true, nil
}

// parseRangeParams reads the required from and to query parameters.
func parseRangeParams(c *gin.Context) (domain.DateRange, error) {
	from, okFrom, err := parseDateParam(c, "from")
	if err != nil {
		return domain.DateRange{}, err
	}
	to, okTo, err := parseDateParam(c, "to")
	if err != nil {
		return domain.DateRange{}, err
	}
	if !okFrom || !okTo {
		return domain.DateRange{}, errors.New("from and to are required")
	}
	return domain.NewDateRange(from, to), nil
}

func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

func formatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
