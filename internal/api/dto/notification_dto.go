package dto

import (
	"time"

	"github.com/cuongbtq/notification-service/internal/notification/domain"
)

// CreateNotificationRequest is the inbound creation payload. The id is
// optional; the engine generates one when absent.
type CreateNotificationRequest struct {
	ID      string `json:"id" binding:"omitempty,uuid"`
	Content string `json:"content" binding:"required"`
}

// NotificationResponse is the snapshot returned from reads and pushed on
// the realtime channel
type NotificationResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Error     string    `json:"error,omitempty"`
}

// NewNotificationResponse maps a notification record to its response shape
func NewNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Content:   n.Content,
		Status:    n.Status,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		Error:     n.Error,
	}
}

// NewNotificationListResponse maps a slice of records, preserving order
func NewNotificationListResponse(notifications []*domain.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = NewNotificationResponse(n)
	}
	return responses
}

// CleanupResponse reports the result of a retention sweep
type CleanupResponse struct {
	Deleted int `json:"deleted"`
}
