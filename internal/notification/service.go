package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/cuongbtq/notification-service/internal/notification/domain"
	"github.com/cuongbtq/notification-service/internal/notification/storage"
	"github.com/google/uuid"
)

// Default logical queue names
const (
	DefaultWorkQueue   = "process_notification"
	DefaultStatusQueue = "notification_status"
)

// Default simulated processing behavior
const (
	defaultMinProcessingDelay = 1 * time.Second
	defaultMaxProcessingDelay = 2 * time.Second
	defaultFailureRatio       = 0.2
)

// Producer publishes lifecycle events to a logical broker queue
type Producer interface {
	PublishTo(ctx context.Context, queue string, body []byte) error
}

// Broadcaster pushes notification snapshots to realtime observers
type Broadcaster interface {
	Push(n *domain.Notification)
}

// Processor performs the downstream work for one work item. The default
// implementation simulates it with a randomized delay and outcome; tests
// inject deterministic processors.
type Processor func(ctx context.Context, item domain.WorkItem) error

// Config holds the service's collaborators and tunables
type Config struct {
	Logger      *slog.Logger
	Storage     storage.Storage
	Producer    Producer
	Broadcaster Broadcaster

	WorkQueue   string
	StatusQueue string

	// Processor overrides the simulated processing step when set
	Processor Processor

	MinProcessingDelay time.Duration
	MaxProcessingDelay time.Duration
	FailureRatio       float64
}

// Service owns the notification lifecycle: it coordinates the store, the
// broker producer, and the broadcaster on creation, and the store and
// broadcaster on consumption.
type Service struct {
	logger      *slog.Logger
	storage     storage.Storage
	producer    Producer
	broadcaster Broadcaster
	workQueue   string
	statusQueue string
	processor   Processor
}

// NewService creates a lifecycle service from the given configuration
func NewService(cfg *Config) *Service {
	s := &Service{
		logger:      cfg.Logger,
		storage:     cfg.Storage,
		producer:    cfg.Producer,
		broadcaster: cfg.Broadcaster,
		workQueue:   cfg.WorkQueue,
		statusQueue: cfg.StatusQueue,
		processor:   cfg.Processor,
	}

	if s.workQueue == "" {
		s.workQueue = DefaultWorkQueue
	}
	if s.statusQueue == "" {
		s.statusQueue = DefaultStatusQueue
	}
	if s.processor == nil {
		minDelay := cfg.MinProcessingDelay
		maxDelay := cfg.MaxProcessingDelay
		ratio := cfg.FailureRatio
		if minDelay <= 0 {
			minDelay = defaultMinProcessingDelay
		}
		if maxDelay <= minDelay {
			maxDelay = minDelay + (defaultMaxProcessingDelay - defaultMinProcessingDelay)
		}
		if ratio <= 0 {
			ratio = defaultFailureRatio
		}
		s.processor = simulatedProcessor(minDelay, maxDelay, ratio)
	}

	return s
}

// CreateInput is the inbound creation request. Content must be non-empty;
// that is validated by the transport layer before the engine is invoked.
type CreateInput struct {
	ID      string
	Content string
}

// Create accepts a notification: it persists the record as PENDING,
// broadcasts the accepted snapshot, then enqueues a work item. An enqueue
// failure never surfaces to the caller; it is folded into a FAILED
// transition that observers learn about through the broadcast channel.
// The side-effect order (persist, broadcast, enqueue) is deliberate so
// observers always see the record accepted before any outcome.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Notification, error) {
	id := input.ID
	if id == "" {
		id = uuid.New().String()
	}

	record, err := s.storage.Create(ctx, &domain.Notification{
		ID:      id,
		Content: input.Content,
		Status:  domain.StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.logger.Info("Created notification",
		slog.String("notification_id", record.ID),
	)

	s.broadcaster.Push(record)
	s.enqueueWorkItem(ctx, record)

	return record, nil
}

// enqueueWorkItem publishes the work item, converting any publish failure
// into a FAILED transition plus a broadcast
func (s *Service) enqueueWorkItem(ctx context.Context, record *domain.Notification) {
	body, err := json.Marshal(domain.WorkItem{
		ID:      record.ID,
		Content: record.Content,
	})
	if err == nil {
		err = s.producer.PublishTo(ctx, s.workQueue, body)
	}

	if err != nil {
		s.logger.Error("Failed to enqueue notification",
			slog.String("notification_id", record.ID),
			slog.String("queue", s.workQueue),
			slog.Any("error", err),
		)

		updated, updateErr := s.storage.UpdateStatus(ctx, record.ID, domain.StatusFailed, "failed to enqueue")
		if updateErr != nil {
			s.logger.Error("Failed to record enqueue failure",
				slog.String("notification_id", record.ID),
				slog.Any("error", updateErr),
			)
			return
		}

		s.broadcaster.Push(updated)
		return
	}

	s.logger.Info("Enqueued notification for processing",
		slog.String("notification_id", record.ID),
		slog.String("queue", s.workQueue),
	)
}

// Process handles a work item delivered from the work queue: transition to
// PROCESSING, run the processing step, record the terminal status, publish
// the status event, and broadcast each transition. A work item referencing
// an unknown id is logged and dropped with no side effects. Failures never
// propagate to the consumer transport.
func (s *Service) Process(ctx context.Context, item domain.WorkItem) {
	s.logger.Info("Processing notification",
		slog.String("notification_id", item.ID),
	)

	record, err := s.storage.UpdateStatus(ctx, item.ID, domain.StatusProcessing, "")
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Notification not found, dropping work item",
				slog.String("notification_id", item.ID),
			)
		} else {
			s.logger.Error("Failed to mark notification as processing",
				slog.String("notification_id", item.ID),
				slog.Any("error", err),
			)
		}
		return
	}

	s.broadcaster.Push(record)

	procErr := s.runProcessor(ctx, item)

	status := domain.StatusSucceeded
	errMsg := ""
	if procErr != nil {
		status = domain.StatusFailed
		errMsg = procErr.Error()
		s.logger.Error("Failed to process notification",
			slog.String("notification_id", item.ID),
			slog.String("error", errMsg),
		)
	} else {
		s.logger.Info("Successfully processed notification",
			slog.String("notification_id", item.ID),
		)
	}

	record, err = s.storage.UpdateStatus(ctx, item.ID, status, errMsg)
	if err != nil {
		s.logger.Error("Failed to record terminal status",
			slog.String("notification_id", item.ID),
			slog.String("status", status),
			slog.Any("error", err),
		)
		return
	}

	s.publishStatusEvent(ctx, item.ID, status)
	s.broadcaster.Push(record)
}

// runProcessor invokes the processing step, converting a panic into an
// error so nothing escapes Process uncaught
func (s *Service) runProcessor(ctx context.Context, item domain.WorkItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processing panicked: %v", r)
		}
	}()

	return s.processor(ctx, item)
}

// publishStatusEvent publishes the terminal status to the status queue.
// The primary transition is already recorded, so a publish failure here is
// logged and swallowed.
func (s *Service) publishStatusEvent(ctx context.Context, id, status string) {
	body, err := json.Marshal(domain.StatusEvent{
		ID:     id,
		Status: status,
	})
	if err == nil {
		err = s.producer.PublishTo(ctx, s.statusQueue, body)
	}

	if err != nil {
		s.logger.Error("Failed to publish status event",
			slog.String("notification_id", id),
			slog.String("status", status),
			slog.Any("error", err),
		)
		return
	}

	s.logger.Info("Published status event",
		slog.String("notification_id", id),
		slog.String("status", status),
	)
}

// GetByID returns the notification or domain.ErrNotFound
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	return s.storage.FindByID(ctx, id)
}

// GetAll returns all notifications, most recent first
func (s *Service) GetAll(ctx context.Context) ([]*domain.Notification, error) {
	return s.storage.FindAll(ctx)
}

// Delete removes the notification, reporting whether it existed
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.storage.Delete(ctx, id)
	if err != nil {
		return false, err
	}

	if deleted {
		s.logger.Info("Deleted notification",
			slog.String("notification_id", id),
		)
	}

	return deleted, nil
}

// Cleanup removes notifications older than the given retention period and
// returns the number of deleted records. The sweep is never self-scheduling;
// it runs only when explicitly invoked.
func (s *Service) Cleanup(ctx context.Context, retention time.Duration) (int, error) {
	deleted, err := s.storage.DeleteOlderThan(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, err
	}

	s.logger.Info("Cleaned up old notifications",
		slog.Int("deleted", deleted),
		slog.Duration("retention", retention),
	)

	return deleted, nil
}

// simulatedProcessor stands in for real downstream work: a randomized delay
// in [minDelay, maxDelay) followed by a probabilistic outcome
func simulatedProcessor(minDelay, maxDelay time.Duration, failureRatio float64) Processor {
	return func(ctx context.Context, item domain.WorkItem) error {
		delay := minDelay + time.Duration(rand.Int63n(int64(maxDelay-minDelay)))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("processing interrupted: %w", ctx.Err())
		}

		if rand.Float64() < failureRatio {
			return errors.New("simulated processing failure")
		}

		return nil
	}
}
