package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicErrors reports the errors handlers attach to the context on the
// request's New Relic transaction. It must run after nrgin.Middleware.
func NewRelicErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		txn := nrgin.Transaction(c)
		if txn == nil {
			return
		}
		for _, err := range c.Errors {
			if kind, ok := err.Meta.(string); ok && kind != "" {
				txn.AddAttribute("error.kind", kind)
			}
			// Client errors are expected traffic.
			if c.Writer.Status() >= 500 {
				txn.NoticeError(err.Err)
			}
		}
	}
}
