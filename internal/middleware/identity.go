package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// UserIDHeader carries the authenticated caller's id, set by the gateway.
const UserIDHeader = "X-User-ID"

const userIDKey = "userID"

// IdentityMiddleware copies the caller id from UserIDHeader into the context.
// Requests without it are passed through; handlers reject them.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader(UserIDHeader)); id != "" {
			c.Set(userIDKey, id)
		}
		c.Next()
	}
}

// UserID returns the caller id stored by IdentityMiddleware, or "".
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
