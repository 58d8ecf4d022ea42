package modules

import (
	"expvar"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/bmi-tracker/internal/container"
	"github.com/oksasatya/bmi-tracker/internal/interface/middleware"
)

// DebugModule exposes expvar under /api/debug/vars and Prometheus metrics at
// the root /metrics. In production both are reachable from private networks
// only.
type DebugModule struct {
	Root gin.IRouter
	C    *container.Container
}

func NewDebugModule(root gin.IRouter, c *container.Container) *DebugModule {
	return &DebugModule{Root: root, C: c}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	var guard gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if m.C.Config.IsProduction() {
		guard = middleware.PrivateOnly()
	}
	rg.GET("/debug/vars", guard, gin.WrapH(expvar.Handler()))
	if m.C.Metrics != nil {
		m.Root.GET("/metrics", guard, gin.WrapH(m.C.Metrics.Handler()))
	}
}
