package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/bmi-tracker/pkg/helpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func authRouter(rdb *redis.Client, jwt *helpers.JWTManager) *gin.Engine {
	r := gin.New()
	r.GET("/me", Auth(rdb, jwt, helpers.NewDiscardLogger()), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	return r
}

func bearer(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAuthWithoutSessions(t *testing.T) {
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	r := authRouter(nil, jwt)

	w := do(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token, authorization denied", message(t, w))

	w = do(r, bearer("not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token is not valid", message(t, w))

	refresh, _, err := jwt.GenerateRefreshToken("user-1", "sid")
	require.NoError(t, err)
	w = do(r, bearer(refresh))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	access, _, err := jwt.GenerateAccessToken("user-1", "sid")
	require.NoError(t, err)
	w = do(r, bearer(access))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic "+access)
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
}

func TestAuthChecksActiveSession(t *testing.T) {
	mr, rdb := newRedis(t)
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	r := authRouter(rdb, jwt)

	token, _, err := jwt.GenerateAccessToken("user-1", "sid-1")
	require.NoError(t, err)

	w := do(r, bearer(token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Session expired, please log in again", message(t, w))

	mr.HSet(helpers.SessionKey("user-1"), "sid", "sid-1")
	assert.Equal(t, http.StatusOK, do(r, bearer(token)).Code)

	mr.HSet(helpers.SessionKey("user-1"), "sid", "sid-2")
	assert.Equal(t, http.StatusUnauthorized, do(r, bearer(token)).Code)
}

func TestAuthRedisFailureIsServerError(t *testing.T) {
	mr, rdb := newRedis(t)
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	r := authRouter(rdb, jwt)
	token, _, err := jwt.GenerateAccessToken("user-1", "sid-1")
	require.NoError(t, err)

	mr.Close()
	w := do(r, bearer(token))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server error", message(t, w))
}

func TestRateLimit(t *testing.T) {
	mr, rdb := newRedis(t)
	r := gin.New()
	r.Use(RealIP())
	r.POST("/login", RateLimit(rdb, 2, time.Minute, KeyByIPAndPath(), nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	login := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("X-Forwarded-For", ip)
		return do(r, req)
	}

	assert.Equal(t, http.StatusOK, login("203.0.113.1").Code)
	w := login("203.0.113.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = login("203.0.113.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, login("203.0.113.2").Code)

	mr.FastForward(time.Minute)
	assert.Equal(t, http.StatusOK, login("203.0.113.1").Code)
}

func TestRateLimitFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	r := gin.New()
	r.GET("/x", RateLimit(rdb, 1, time.Minute, KeyByUserID(), helpers.NewDiscardLogger()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	mr.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	}
}

func TestRateLimitDisabledWithoutRedis(t *testing.T) {
	r := gin.New()
	r.GET("/x", RateLimit(nil, 1, time.Minute, KeyByUserID(), nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRequestIDKey)) })

	w := do(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	assert.Equal(t, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", do(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "<script>")
	assert.NotEqual(t, "<script>", do(r, req).Body.String())
}

func TestRealIP(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, ClientIP(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-Connecting-IP", "198.51.100.7")
	req.Header.Set("X-Forwarded-For", "203.0.113.1")
	assert.Equal(t, "198.51.100.7", do(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.1, 10.0.0.1")
	assert.Equal(t, "203.0.113.1", do(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	assert.Equal(t, "192.0.2.10", do(r, req).Body.String())
}

func TestPrivateOnly(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/debug", PrivateOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/debug", nil)
	req.RemoteAddr = "10.1.2.3:4000"
	assert.Equal(t, http.StatusOK, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/debug", nil)
	req.RemoteAddr = "203.0.113.5:4000"
	w := do(r, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", message(t, w))
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(helpers.NewDiscardLogger()))
	r.GET("/boom", func(c *gin.Context) { panic("db password is hunter2") })

	w := do(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Something went wrong!", message(t, w))
	assert.NotContains(t, w.Body.String(), "hunter2")
}

func TestRequestLogger(t *testing.T) {
	logger := helpers.NewDiscardLogger()
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.NoRoute(NotFound())

	w := do(r, httptest.NewRequestWithContext(context.Background(), http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", message(t, w))
}
