package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID is echoed on every response so clients can correlate
// a run with the server's access log.
const HeaderRequestID = "X-Request-ID"

// ContextRequestID is the gin context key the access logger reads.
const ContextRequestID = "request_id"

// RequestID assigns each request an id, honoring one the client
// already supplied.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}
