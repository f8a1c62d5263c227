package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cuongbtq/notification-service/internal/notification/domain"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "notifications:"
	redisIndexKey  = "notifications:index"
)

// RedisStore is a Storage implementation backed by Redis, for deployments
// that want the store in an external cache instead of process memory.
// Records are stored as JSON values, with a sorted set scored by creation
// time providing the created_at ordering for FindAll.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Storage backed by the given Redis client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Create stores the notification. A duplicate id overwrites the existing
// record, matching the in-memory store's behavior.
func (s *RedisStore) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	now := time.Now()
	record := &domain.Notification{
		ID:        n.ID,
		Content:   n.Content,
		Status:    n.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKeyPrefix+record.ID, body, 0)
		pipe.ZAdd(ctx, redisIndexKey, redis.Z{
			Score:  float64(record.CreatedAt.UnixNano()),
			Member: record.ID,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return record, nil
}

// FindByID returns the notification or domain.ErrNotFound
func (s *RedisStore) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	body, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}

	var record domain.Notification
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to decode notification: %w", err)
	}

	return &record, nil
}

// FindAll returns all notifications ordered by created_at descending
func (s *RedisStore) FindAll(ctx context.Context) ([]*domain.Notification, error) {
	ids, err := s.client.ZRevRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read notification index: %w", err)
	}

	records := make([]*domain.Notification, 0, len(ids))
	for _, id := range ids {
		record, err := s.FindByID(ctx, id)
		if err != nil {
			// Index entries can outlive their record briefly during a
			// concurrent delete; skip them.
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// UpdateStatus transitions the notification under an optimistic transaction
// so concurrent updates on the same id serialize rather than clobber.
func (s *RedisStore) UpdateStatus(ctx context.Context, id, status, errMsg string) (*domain.Notification, error) {
	key := redisKeyPrefix + id
	var record domain.Notification

	txn := func(tx *redis.Tx) error {
		body, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return domain.ErrNotFound
			}
			return err
		}

		if err := json.Unmarshal(body, &record); err != nil {
			return err
		}

		record.Status = status
		record.UpdatedAt = time.Now()
		if status == domain.StatusFailed {
			record.Error = errMsg
		} else {
			record.Error = ""
		}

		updated, err := json.Marshal(&record)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < 3; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return &record, nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, fmt.Errorf("failed to update notification status: %w", err)
	}

	return nil, fmt.Errorf("failed to update notification status: %w", redis.TxFailedErr)
}

// Delete removes the notification, reporting whether it existed
func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.client.Del(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete notification: %w", err)
	}

	if err := s.client.ZRem(ctx, redisIndexKey, id).Err(); err != nil {
		return false, fmt.Errorf("failed to remove notification from index: %w", err)
	}

	return removed > 0, nil
}

// DeleteOlderThan removes notifications created before the cutoff
func (s *RedisStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	maxScore := fmt.Sprintf("(%d", cutoff.UnixNano())

	ids, err := s.client.ZRangeByScore(ctx, redisIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: maxScore,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read notification index: %w", err)
	}

	deleted := 0
	for _, id := range ids {
		removed, err := s.Delete(ctx, id)
		if err != nil {
			return deleted, err
		}
		if removed {
			deleted++
		}
	}

	return deleted, nil
}
