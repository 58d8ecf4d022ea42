package middleware

import "github.com/gin-gonic/gin"

// Gin context keys shared by middleware and handlers.
const (
	CtxUserIDKey    = "userID"
	CtxSessionIDKey = "sessionID"
	CtxRequestIDKey = "request_id"
	CtxRealIPKey    = "real_ip"
)

// UserID returns the authenticated owner id, or "" outside Auth.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

// ClientIP prefers the address resolved by RealIP.
func ClientIP(c *gin.Context) string {
	if ip := c.GetString(CtxRealIPKey); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
