package handler

import (
	"log/slog"
	"time"

	"github.com/cuongbtq/notification-service/internal/notification"
	"github.com/cuongbtq/notification-service/internal/realtime"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	Service     *notification.Service
	Broadcaster *realtime.Broadcaster
	Retention   time.Duration
}

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	logger      *slog.Logger
	service     *notification.Service
	broadcaster *realtime.Broadcaster
	retention   time.Duration
}

// NewNotificationHandler creates a new NotificationHandler instance
func NewNotificationHandler(deps *Dependencies) *NotificationHandler {
	return &NotificationHandler{
		logger:      deps.Logger,
		service:     deps.Service,
		broadcaster: deps.Broadcaster,
		retention:   deps.Retention,
	}
}
