package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wallet-background/internal/action"
	"wallet-background/internal/approval"
	"wallet-background/internal/event"
	"wallet-background/internal/registry"
	"wallet-background/internal/server/routes"
	"wallet-background/internal/service"
	"wallet-background/pkg/monitor"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Dispatcher *registry.Dispatcher
	Store      *action.Store
	Windows    *approval.MemoryWindowManager
	Sites      *service.SiteRegistry
	Emitter    *event.Emitter
}

// NewHTTPRouter builds the gin engine serving the page channel, the
// wallet-internal channel, the approval UI endpoints and the event stream.
func NewHTTPRouter(deps Deps) *gin.Engine {
	monitor.Init()

	r := gin.Default()

	r.Use(monitor.PrometheusMiddleware())

	r.GET("/health", routes.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.RegisterProviderRoutes(r, deps.Dispatcher, deps.Sites)
	routes.RegisterInternalRoutes(r, deps.Dispatcher)
	routes.RegisterApprovalRoutes(r, deps.Store, deps.Windows)
	routes.RegisterEventRoutes(r, deps.Emitter)

	return r
}
