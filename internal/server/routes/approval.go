package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wallet-background/internal/action"
	"wallet-background/internal/approval"
)

// RegisterApprovalRoutes registers the approval UI's read side: pending
// actions and window bookkeeping. Decisions travel through the internal
// channel's approval_decide operation.
func RegisterApprovalRoutes(r *gin.Engine, store *action.Store, windows *approval.MemoryWindowManager) {
	grp := r.Group("/approval")
	{
		grp.GET("/pending", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"actions": store.Pending()})
		})

		grp.GET("/actions/:id", func(c *gin.Context) {
			act := store.Get(c.Param("id"))
			if act == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "action not found"})
				return
			}
			c.JSON(http.StatusOK, act)
		})

		// the UI reports popup closure; the reaper turns orphaned pending
		// actions into user cancellations on its next sweep
		grp.POST("/windows/:id/close", func(c *gin.Context) {
			id, err := strconv.Atoi(c.Param("id"))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window id"})
				return
			}
			windows.CloseWindow(id)
			c.JSON(http.StatusOK, gin.H{"closed": id})
		})
	}
}
