package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/bmi-tracker/internal/container"
	handlers "github.com/oksasatya/bmi-tracker/internal/interface/http"
	"github.com/oksasatya/bmi-tracker/internal/interface/middleware"
)

// BMIModule serves /api/bmi. Every route is owner-scoped through Auth.
type BMIModule struct {
	Handler *handlers.BMIHandler
	C       *container.Container
}

func NewBMIModule(h *handlers.BMIHandler, c *container.Container) *BMIModule {
	return &BMIModule{Handler: h, C: c}
}

func (m *BMIModule) Register(rg *gin.RouterGroup) {
	cfg := m.C.Config
	g := rg.Group("/bmi")
	g.Use(
		middleware.Auth(m.C.Redis, m.C.JWT, m.C.Logger),
		middleware.RateLimit(m.C.Redis, cfg.RateLimitAPI, cfg.RateLimitWindow, middleware.KeyByUserID(), m.C.Logger),
	)
	{
		g.POST("", m.Handler.Submit)
		g.POST("/calculate", m.Handler.Preview)
		g.POST("/export", m.Handler.Export)
		g.GET("/history", m.Handler.History)
		g.GET("/latest", m.Handler.Latest)
		g.GET("/stats", m.Handler.Stats)
		g.DELETE("/:id", m.Handler.Delete)
	}
}
