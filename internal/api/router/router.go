package router

import (
	"net/http"

	"github.com/cuongbtq/notification-service/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "notification-service",
		})
	})

	// Initialize notification handler
	notificationHandler := handler.NewNotificationHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		notifications := v1.Group("/notifications")
		{
			// POST /api/v1/notifications - Accept a notification for processing
			notifications.POST("", notificationHandler.CreateNotification)

			// GET /api/v1/notifications - List all notifications, most recent first
			notifications.GET("", notificationHandler.ListNotifications)

			// GET /api/v1/notifications/stream - Realtime updates over SSE
			notifications.GET("/stream", notificationHandler.StreamNotifications)

			// GET /api/v1/notifications/stats/connections - Observer stats
			notifications.GET("/stats/connections", notificationHandler.GetConnectionStats)

			// POST /api/v1/notifications/cleanup - Run the retention sweep
			notifications.POST("/cleanup", notificationHandler.CleanupNotifications)

			// GET /api/v1/notifications/:id - Get notification details
			notifications.GET("/:id", notificationHandler.GetNotification)

			// DELETE /api/v1/notifications/:id - Delete a notification
			notifications.DELETE("/:id", notificationHandler.DeleteNotification)
		}
	}

	return r
}
