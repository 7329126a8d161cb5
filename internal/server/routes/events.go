package routes

import (
	"io"

	"github.com/gin-gonic/gin"

	"wallet-background/internal/event"
	"wallet-background/pkg/monitor"
)

// RegisterEventRoutes registers the server-sent-events stream pages use to
// receive wallet events (accountsChanged, chainChanged, unlock flips).
func RegisterEventRoutes(r *gin.Engine, emitter *event.Emitter) {
	r.GET("/events", func(c *gin.Context) {
		// slow consumers drop events rather than block the emitter
		ch := make(chan event.Event, 16)
		remove := emitter.AddListener(func(ev event.Event) {
			select {
			case ch <- ev:
			default:
			}
		})
		defer remove()

		if monitor.Business != nil {
			monitor.Business.ConnectedPages.Inc()
			defer monitor.Business.ConnectedPages.Dec()
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")

		c.Stream(func(w io.Writer) bool {
			select {
			case ev := <-ch:
				c.SSEvent("message", event.Wrap(ev))
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	})
}
