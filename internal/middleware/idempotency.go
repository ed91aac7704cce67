package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/loggo"

	"taxi/internal/redis"
)

var logger = loggo.GetLogger("taxi.middleware")

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
)

// cachedResponse stores the response for idempotent requests.
type cachedResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
	Headers    http.Header     `json:"headers"`
}

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response of a mutating request
// that repeats its Idempotency-Key. Keys are scoped by method and path. A nil
// store disables replay.
func IdempotencyMiddleware(store redis.IdempotencyStoreInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || !isMutating(c.Request.Method) {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		scopedKey := c.Request.Method + ":" + c.Request.URL.Path + ":" + key

		data, err := store.Get(ctx, scopedKey)
		if err != nil {
			// Redis error - proceed without idempotency.
			logger.Warningf("reading idempotency key: %v", err)
			c.Next()
			return
		}

		if data != nil {
			var cached cachedResponse
			if err := json.Unmarshal(data, &cached); err == nil {
				for k, v := range cached.Headers {
					for _, val := range v {
						c.Header(k, val)
					}
				}
				c.Header("Idempotent-Replayed", "true")
				if len(cached.Body) == 0 || string(cached.Body) == "null" {
					c.Status(cached.StatusCode)
				} else {
					c.Data(cached.StatusCode, "application/json", cached.Body)
				}
				c.Abort()
				return
			}
		}

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		// Server faults are not replayed so the caller can retry.
		if status := c.Writer.Status(); status >= 200 && status < 500 {
			payload, err := json.Marshal(cachedResponse{
				StatusCode: status,
				Body:       w.body.Bytes(),
				Headers:    extractResponseHeaders(c),
			})
			if err == nil {
				err = store.Set(ctx, scopedKey, payload, idempotencyTTL)
			}
			if err != nil {
				logger.Warningf("storing idempotent response: %v", err)
			}
		}
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// extractResponseHeaders extracts headers to cache.
func extractResponseHeaders(c *gin.Context) http.Header {
	headers := make(http.Header)
	// Only cache Content-Type header.
	if ct := c.Writer.Header().Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}
	return headers
}
