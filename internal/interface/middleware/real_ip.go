package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// RealIP stores the client address under real_ip, preferring
// CF-Connecting-IP, then the left-most X-Forwarded-For entry, then gin's
// ClientIP.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxRealIPKey, resolveIP(c))
		c.Next()
	}
}

func resolveIP(c *gin.Context) string {
	if ip := net.ParseIP(strings.TrimSpace(c.GetHeader("CF-Connecting-IP"))); ip != nil {
		return ip.String()
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	return c.ClientIP()
}

// IsPrivateClient reports whether the request comes from loopback or a
// private network.
func IsPrivateClient(c *gin.Context) bool {
	ip := net.ParseIP(ClientIP(c))
	return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
}

// PrivateOnly hides a route from public clients with a plain 404.
func PrivateOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsPrivateClient(c) {
			notFound(c)
			return
		}
		c.Next()
	}
}
