package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/bmi-tracker/pkg/helpers"
	"github.com/oksasatya/bmi-tracker/pkg/response"
)

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Auth resolves the bearer token into an owner id. With a Redis client the
// token's session must also still be the active one, so logout and refresh
// rotation revoke older tokens. Handlers read the id with UserID.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "Token is not valid")
			return
		}

		if rdb != nil {
			sid, err := rdb.HGet(c.Request.Context(), helpers.SessionKey(claims.UserID), "sid").Result()
			switch {
			case errors.Is(err, redis.Nil), err == nil && sid != claims.SessionID:
				response.Abort(c, http.StatusUnauthorized, "Session expired, please log in again")
				return
			case err != nil:
				helpers.LogError(logger, "session lookup failed", err, logrus.Fields{
					"user_id":    claims.UserID,
					"request_id": c.GetString(CtxRequestIDKey),
				})
				response.ServerError(c)
				c.Abort()
				return
			}
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxSessionIDKey, claims.SessionID)
		c.Next()
	}
}
