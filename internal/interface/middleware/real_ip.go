package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// RealIP sets the client IP into Gin context (key: "real_ip").
// Proxy headers are only honoured when the direct peer is private or loopback.
// Priority behind a proxy:
// 1) CF-Connecting-IP (Cloudflare)
// 2) X-Forwarded-For (left-most)
// 3) fallback to the TCP peer (c.RemoteIP())
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("real_ip", realIP(c))
		c.Next()
	}
}

// AllowPrivateIP bypasses rate limits for callers on private networks
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		return isPrivateIP(ipFromCtx(c))
	}
}

func realIP(c *gin.Context) string {
	if !fromTrustedPeer(c) {
		return c.RemoteIP()
	}
	if cf := strings.TrimSpace(c.GetHeader("CF-Connecting-IP")); cf != "" {
		if ip := net.ParseIP(cf); ip != nil {
			return ip.String()
		}
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip.String()
		}
	}
	return c.RemoteIP()
}

func fromTrustedPeer(c *gin.Context) bool {
	host, _, err := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
	if err != nil {
		host = c.Request.RemoteAddr
	}
	return isPrivateIP(host)
}

// 10.0.0.0/8, 172.16/12, 192.168/16, fc00::/7, loopback
func isPrivateIP(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
}
