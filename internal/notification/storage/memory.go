package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cuongbtq/notification-service/internal/notification/domain"
)

// MemoryStore is the default in-memory Storage implementation. Records are
// volatile and scoped to the process lifetime. All methods are safe for
// concurrent use.
type MemoryStore struct {
	mu            sync.RWMutex
	notifications map[string]*domain.Notification
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notifications: make(map[string]*domain.Notification),
	}
}

// Create stores the notification, stamping created_at and updated_at with
// the same timestamp. A duplicate id silently overwrites the existing
// record with no conflict signal.
func (s *MemoryStore) Create(_ context.Context, n *domain.Notification) (*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	record := &domain.Notification{
		ID:        n.ID,
		Content:   n.Content,
		Status:    n.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.notifications[record.ID] = record
	return copyNotification(record), nil
}

// FindByID returns the notification or domain.ErrNotFound
func (s *MemoryStore) FindByID(_ context.Context, id string) (*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.notifications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyNotification(record), nil
}

// FindAll returns all notifications ordered by created_at descending.
// Equal timestamps are broken by id so repeated reads yield the same order.
func (s *MemoryStore) FindAll(_ context.Context) ([]*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*domain.Notification, 0, len(s.notifications))
	for _, record := range s.notifications {
		records = append(records, copyNotification(record))
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	return records, nil
}

// UpdateStatus transitions the notification and bumps updated_at. The error
// message is kept only for a FAILED status, so a record never carries a
// stale error from a prior failure.
func (s *MemoryStore) UpdateStatus(_ context.Context, id, status, errMsg string) (*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.notifications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	record.Status = status
	record.UpdatedAt = time.Now()
	if status == domain.StatusFailed {
		record.Error = errMsg
	} else {
		record.Error = ""
	}

	return copyNotification(record), nil
}

// Delete removes the notification, reporting whether it existed
func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.notifications[id]
	if ok {
		delete(s.notifications, id)
	}
	return ok, nil
}

// DeleteOlderThan removes notifications created before the cutoff
func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, record := range s.notifications {
		if record.CreatedAt.Before(cutoff) {
			delete(s.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

// copyNotification returns a detached copy so callers never alias the
// record guarded by the store's mutex.
func copyNotification(n *domain.Notification) *domain.Notification {
	c := *n
	return &c
}
