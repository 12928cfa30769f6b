package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// tokenFromRequest prefers the session cookie and falls back to a Bearer header
func tokenFromRequest(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
