package events

import (
	"io"

	"github.com/gin-gonic/gin"
)

// StreamHandler exposes the change bus as a server-sent-event stream. Each
// dashboard holds one open stream and re-runs its queries whenever a token
// for a table it cares about arrives.
func StreamHandler(bus Bus) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch, cancel := bus.Subscribe(c.Request.Context())
		defer cancel()

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")

		c.Stream(func(w io.Writer) bool {
			select {
			case e, ok := <-ch:
				if !ok {
					return false
				}
				c.SSEvent("change", e)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
