package handler

import (
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
)

// StreamNotifications handles GET /api/v1/notifications/stream
// Subscribes the caller as a realtime observer over server-sent events:
// a "connected" event with the assigned observer id on join, then one
// "notification_update" event per status transition.
func (h *NotificationHandler) StreamNotifications(c *gin.Context) {
	observer := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(observer.ID())

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.logger.Info("Realtime stream opened",
		slog.String("observer_id", observer.ID()),
		slog.String("ip", c.ClientIP()),
	)

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case event, ok := <-observer.Events():
			if !ok {
				return false
			}
			c.SSEvent(event.Name, event.Payload)
			return true
		}
	})

	h.logger.Info("Realtime stream closed",
		slog.String("observer_id", observer.ID()),
	)
}
