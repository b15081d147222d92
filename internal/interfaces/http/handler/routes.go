package handler

import (
	"github.com/gin-gonic/gin"
)

// PoolRoutes adapts PoolHandler to router.RouteRegistrar, mounting it
// under /pool with the mutating endpoints gated by jwtAuth.
type PoolRoutes struct {
	handler *PoolHandler
	jwtAuth gin.HandlerFunc
}

// NewPoolRoutes builds a PoolRoutes registrar. jwtAuth gates every
// endpoint except Stats, which stays readable for unauthenticated
// monitoring scrapes.
func NewPoolRoutes(h *PoolHandler, jwtAuth gin.HandlerFunc) *PoolRoutes {
	return &PoolRoutes{handler: h, jwtAuth: jwtAuth}
}

// RegisterRoutes implements router.RouteRegistrar.
func (pr *PoolRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/pool")

	group.GET("/stats", pr.handler.Stats)

	guarded := group.Group("", pr.jwtAuth)
	guarded.POST("/tasks", pr.handler.SubmitTask)
	guarded.POST("/reports/trigger", pr.handler.TriggerRefresh)
	guarded.GET("/reports/recent", pr.handler.ListRecentReports)
	guarded.GET("/reports/:id", pr.handler.GetReport)
	guarded.POST("/resize", pr.handler.Resize)
	guarded.POST("/suspend", pr.handler.Suspend)
	guarded.POST("/resume", pr.handler.Resume)
	guarded.POST("/close", pr.handler.Close)
}
