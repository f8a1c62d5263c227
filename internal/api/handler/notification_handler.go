package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/notification-service/internal/api/dto"
	"github.com/cuongbtq/notification-service/internal/notification"
	"github.com/cuongbtq/notification-service/internal/notification/domain"
	"github.com/gin-gonic/gin"
)

// CreateNotification handles POST /api/v1/notifications
// Accepts a notification for asynchronous processing and returns 202 with
// the PENDING snapshot. An enqueue failure after acceptance is reported
// through the realtime channel, never through this response.
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "content is required and id must be a valid UUID when provided",
		})
		return
	}

	record, err := h.service.Create(c.Request.Context(), notification.CreateInput{
		ID:      req.ID,
		Content: req.Content,
	})
	if err != nil {
		h.logger.Error("Failed to create notification", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create notification",
		})
		return
	}

	c.JSON(http.StatusAccepted, dto.NewNotificationResponse(record))
}

// GetNotification handles GET /api/v1/notifications/:id
func (h *NotificationHandler) GetNotification(c *gin.Context) {
	id := c.Param("id")

	record, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Notification not found",
			})
			return
		}
		h.logger.Error("Failed to get notification",
			slog.String("notification_id", id),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get notification",
		})
		return
	}

	c.JSON(http.StatusOK, dto.NewNotificationResponse(record))
}

// ListNotifications handles GET /api/v1/notifications
// Returns all notifications ordered by creation time, most recent first
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	records, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list notifications", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list notifications",
		})
		return
	}

	c.JSON(http.StatusOK, dto.NewNotificationListResponse(records))
}

// DeleteNotification handles DELETE /api/v1/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	id := c.Param("id")

	deleted, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to delete notification",
			slog.String("notification_id", id),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete notification",
		})
		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Notification not found",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// CleanupNotifications handles POST /api/v1/notifications/cleanup
// Runs the retention sweep with the configured threshold. Invoked by an
// external scheduler; the service never sweeps on its own.
func (h *NotificationHandler) CleanupNotifications(c *gin.Context) {
	deleted, err := h.service.Cleanup(c.Request.Context(), h.retention)
	if err != nil {
		h.logger.Error("Failed to clean up notifications", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clean up notifications",
		})
		return
	}

	c.JSON(http.StatusOK, dto.CleanupResponse{Deleted: deleted})
}

// GetConnectionStats handles GET /api/v1/notifications/stats/connections
func (h *NotificationHandler) GetConnectionStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.broadcaster.Stats())
}
