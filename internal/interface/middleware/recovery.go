package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/bmi-tracker/pkg/response"
)

// Recovery turns a panic into a generic 500. The panic value is logged and
// never sent to the client.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"panic":      recovered,
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"request_id": c.GetString(CtxRequestIDKey),
				"user_id":    c.GetString(CtxUserIDKey),
			}).Error("panic recovered")
		}
		response.Abort(c, http.StatusInternalServerError, "Something went wrong!")
	})
}

// NotFound answers unmatched routes.
func NotFound() gin.HandlerFunc {
	return notFound
}

func notFound(c *gin.Context) {
	response.Abort(c, http.StatusNotFound, "Route not found")
}
