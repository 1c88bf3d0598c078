package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CorrelationHeader = "X-Correlation-ID"
	CorrelationKey    = "correlationID"
)

// CorrelationID tags every request with an id, reusing the caller's when given.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(CorrelationHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Set(CorrelationKey, cid)
		c.Header(CorrelationHeader, cid)
		c.Next()
	}
}
