package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cppla/caltrack/utils"
)

const maxRequestIDLen = 128

// RequestID propagates X-Request-ID, minting a UUID when the client sent none,
// and stores it on the request context for the service logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(utils.RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.WithRequestID(c.Request.Context(), id))
		c.Header(utils.RequestIDHeader, id)
		c.Next()
	}
}
