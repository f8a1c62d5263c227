package storage

import (
	"context"
	"time"

	"github.com/cuongbtq/notification-service/internal/notification/domain"
)

// Storage is the capability interface for notification persistence.
// Any conforming implementation (in-memory map, SQL table, external cache)
// is substitutable without changing the lifecycle service.
//
// All operations must be atomic with respect to each other under concurrent
// callers. UpdateStatus on an unknown id returns domain.ErrNotFound and
// performs no mutation.
type Storage interface {
	// Create stores the notification and returns the stored record.
	// A duplicate id overwrites the existing record.
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)

	// FindByID returns the notification or domain.ErrNotFound.
	FindByID(ctx context.Context, id string) (*domain.Notification, error)

	// FindAll returns all notifications ordered by created_at descending.
	FindAll(ctx context.Context) ([]*domain.Notification, error)

	// UpdateStatus transitions the notification to the given status and
	// returns the updated record. The error message is recorded only for
	// a FAILED status and cleared otherwise.
	UpdateStatus(ctx context.Context, id, status, errMsg string) (*domain.Notification, error)

	// Delete removes the notification, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// DeleteOlderThan removes notifications created before the cutoff and
	// returns the number of deleted records.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
