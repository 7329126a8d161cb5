package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wallet-background/internal/registry"
	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
)

// HealthCheck answers liveness probes.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RegisterProviderRoutes registers the page-facing provider channel.
// Requests without page-announced site metadata get it filled from the
// connection's earlier metamask_sendDomainMetadata announcement.
func RegisterProviderRoutes(r *gin.Engine, dispatcher *registry.Dispatcher, sites *service.SiteRegistry) {
	r.POST("/rpc", func(c *gin.Context) {
		var req rpc.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		if req.Site == nil {
			req.Site = sites.Lookup(req.TabID)
		}

		resp := dispatcher.Dispatch(c.Request.Context(), &req)
		c.JSON(http.StatusOK, resp)
	})
}

// RegisterInternalRoutes registers the extension-UI channel. It is never
// reachable from page contexts; the transport enforces that separation.
func RegisterInternalRoutes(r *gin.Engine, dispatcher *registry.Dispatcher) {
	r.POST("/internal", func(c *gin.Context) {
		var req rpc.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		// internal requests carry no site identity
		req.Site = nil

		resp := dispatcher.DispatchInternal(c.Request.Context(), &req)
		c.JSON(http.StatusOK, resp)
	})
}
