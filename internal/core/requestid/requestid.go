// Package requestid assigns every HTTP request a correlation id.
package requestid

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the id in both directions.
const Header = "X-Request-Id"

const ctxKey = "request_id"

// maxLength bounds client-supplied ids; longer ones are replaced.
const maxLength = 128

// Middleware reuses a caller-supplied X-Request-Id or generates a UUID,
// stores it on the gin context and echoes it on the response.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(Header))
		if id == "" || len(id) > maxLength {
			id = uuid.NewString()
		}
		c.Set(ctxKey, id)
		c.Header(Header, id)
		c.Next()
	}
}

// Get returns the request id, generating one if the middleware did not run.
func Get(c *gin.Context) string {
	if v, ok := c.Get(ctxKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	id := uuid.NewString()
	c.Set(ctxKey, id)
	c.Header(Header, id)
	return id
}
