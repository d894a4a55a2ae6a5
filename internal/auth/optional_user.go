package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// DevUser sets the caller identity from X-User-Id (and X-User-Email) without
// verifying anything. A missing header falls back to "dev-user".
// Use this ONLY for development/testing.
func DevUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if uid == "" {
			uid = "dev-user"
		}
		c.Set(CtxFirebaseUID, uid)
		if email := strings.TrimSpace(c.GetHeader("X-User-Email")); email != "" {
			c.Set(CtxEmail, email)
		}
		c.Next()
	}
}
