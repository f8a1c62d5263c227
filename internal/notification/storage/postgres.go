package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cuongbtq/notification-service/internal/notification/domain"
	"github.com/cuongbtq/notification-service/shared/postgresql"
)

// PostgresStore is a Storage implementation backed by PostgreSQL. It exists
// so the API and consumer can run as separate processes sharing state; the
// in-memory store remains the default.
type PostgresStore struct {
	client *postgresql.Client
}

// NewPostgresStore creates a Storage backed by the given PostgreSQL client
func NewPostgresStore(client *postgresql.Client) *PostgresStore {
	return &PostgresStore{client: client}
}

const createNotificationsTable = `
CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	error      TEXT NOT NULL DEFAULT ''
)`

// Migrate creates the notifications table if it does not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if err := s.client.ExecContext(ctx, createNotificationsTable); err != nil {
		return fmt.Errorf("failed to migrate notifications table: %w", err)
	}
	return nil
}

// Create upserts the notification. A duplicate id overwrites the existing
// record, matching the in-memory store's behavior.
func (s *PostgresStore) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	now := time.Now()
	record := &domain.Notification{
		ID:        n.ID,
		Content:   n.Content,
		Status:    n.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO notifications (id, content, status, created_at, updated_at, error)
		VALUES ($1, $2, $3, $4, $5, '')
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content,
		    status = EXCLUDED.status,
		    created_at = EXCLUDED.created_at,
		    updated_at = EXCLUDED.updated_at,
		    error = ''`

	if err := s.client.ExecContext(ctx, query, record.ID, record.Content, record.Status, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return record, nil
}

// FindByID returns the notification or domain.ErrNotFound
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	var record domain.Notification
	query := `SELECT id, content, status, created_at, updated_at, error FROM notifications WHERE id = $1`

	if err := s.client.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}

	return &record, nil
}

// FindAll returns all notifications ordered by created_at descending
func (s *PostgresStore) FindAll(ctx context.Context) ([]*domain.Notification, error) {
	records := []*domain.Notification{}
	query := `SELECT id, content, status, created_at, updated_at, error FROM notifications ORDER BY created_at DESC, id ASC`

	if err := s.client.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return records, nil
}

// UpdateStatus transitions the notification and returns the updated record
func (s *PostgresStore) UpdateStatus(ctx context.Context, id, status, errMsg string) (*domain.Notification, error) {
	if status != domain.StatusFailed {
		errMsg = ""
	}

	var record domain.Notification
	query := `
		UPDATE notifications
		SET status = $2, error = $3, updated_at = $4
		WHERE id = $1
		RETURNING id, content, status, created_at, updated_at, error`

	if err := s.client.GetContext(ctx, &record, query, id, status, errMsg, time.Now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update notification status: %w", err)
	}

	return &record, nil
}

// Delete removes the notification, reporting whether it existed
func (s *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.client.ExecResultContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete notification: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	return affected > 0, nil
}

// DeleteOlderThan removes notifications created before the cutoff
func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.client.ExecResultContext(ctx, `DELETE FROM notifications WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old notifications: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}

	return int(affected), nil
}
