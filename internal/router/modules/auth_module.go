package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/bmi-tracker/internal/container"
	handlers "github.com/oksasatya/bmi-tracker/internal/interface/http"
	"github.com/oksasatya/bmi-tracker/internal/interface/middleware"
)

// AuthModule serves /api/auth. Credential endpoints are limited per client
// IP and route; session endpoints require a bearer token.
type AuthModule struct {
	Handler *handlers.AuthHandler
	C       *container.Container
}

func NewAuthModule(h *handlers.AuthHandler, c *container.Container) *AuthModule {
	return &AuthModule{Handler: h, C: c}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	cfg := m.C.Config
	public := middleware.RateLimit(m.C.Redis, cfg.RateLimitAuth, cfg.RateLimitWindow, middleware.KeyByIPAndPath(), m.C.Logger)

	g := rg.Group("/auth")
	g.POST("/register", public, m.Handler.Register)
	g.POST("/login", public, m.Handler.Login)
	g.POST("/refresh", public, m.Handler.Refresh)

	protected := g.Group("")
	protected.Use(
		middleware.Auth(m.C.Redis, m.C.JWT, m.C.Logger),
		middleware.RateLimit(m.C.Redis, cfg.RateLimitAPI, cfg.RateLimitWindow, middleware.KeyByUserID(), m.C.Logger),
	)
	{
		protected.POST("/logout", m.Handler.Logout)
		protected.GET("/me", m.Handler.Me)
	}
}
