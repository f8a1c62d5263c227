package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cuongbtq/notification-service/internal/notification"
	"github.com/cuongbtq/notification-service/internal/notification/domain"
	"github.com/cuongbtq/notification-service/shared/rabbitmq"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Config holds consumer configuration
type Config struct {
	Logger        *slog.Logger
	RabbitClient  *rabbitmq.Client
	Service       *notification.Service
	Queue         string
	Concurrency   int
	PrefetchCount int
}

// workDelivery pairs a decoded work item with its delivery tag for acks
type workDelivery struct {
	item        domain.WorkItem
	deliveryTag uint64
}

// Consumer subscribes to the work queue and hands work items to the
// lifecycle service through a bounded pool of goroutines. A failing work
// item never crashes the process: the service folds processing failures
// into state transitions, so every dispatched delivery is acked.
type Consumer struct {
	logger        *slog.Logger
	rabbitClient  *rabbitmq.Client
	service       *notification.Service
	queue         string
	concurrency   int
	prefetchCount int
	consumerTag   string
	itemsChan     chan *workDelivery
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewConsumer creates a new work-queue consumer
func NewConsumer(cfg *Config) *Consumer {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Consumer{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		service:       cfg.Service,
		queue:         cfg.Queue,
		concurrency:   concurrency,
		prefetchCount: cfg.PrefetchCount,
		consumerTag:   fmt.Sprintf("notification-consumer-%s", uuid.New().String()),
		itemsChan:     make(chan *workDelivery),
		stopChan:      make(chan struct{}),
	}
}

// Start configures QoS, spawns the worker pool, and dispatches deliveries
// until the context is canceled or the delivery channel closes
func (c *Consumer) Start(ctx context.Context) error {
	channel := c.rabbitClient.GetChannel()
	if channel == nil {
		return fmt.Errorf("rabbitmq channel is nil")
	}

	if err := channel.Qos(c.prefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := c.rabbitClient.Consume(c.queue, c.consumerTag)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.spawnWorkerPool(ctx)

	c.logger.Info("Consumer started",
		slog.String("queue", c.queue),
		slog.String("consumer_tag", c.consumerTag),
		slog.Int("concurrency", c.concurrency),
		slog.Int("prefetch_count", c.prefetchCount),
	)

	c.dispatch(ctx, deliveries)
	return nil
}

// Stop gracefully stops the worker pool
func (c *Consumer) Stop() {
	c.logger.Info("Stopping consumer...")
	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("Consumer stopped")
}

// dispatch reads broker deliveries, decodes work items, and feeds the pool.
// Malformed bodies are nacked without requeue.
func (c *Consumer) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			var item domain.WorkItem
			if err := json.Unmarshal(delivery.Body, &item); err != nil {
				c.logger.Error("Failed to parse work item JSON",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					c.logger.Error("Failed to NACK malformed message",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			if item.ID == "" {
				c.logger.Error("Work item missing notification id",
					slog.String("body", string(delivery.Body)),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					c.logger.Error("Failed to NACK message without id",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			select {
			case c.itemsChan <- &workDelivery{item: item, deliveryTag: delivery.DeliveryTag}:
				c.logger.Debug("Work item dispatched to pool",
					slog.String("notification_id", item.ID),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				c.logger.Info("Dispatcher stopped while dispatching work item")
				// Requeue so another consumer can pick it up
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					c.logger.Error("Failed to NACK message on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}

// spawnWorkerPool spawns N worker goroutines based on configured concurrency
func (c *Consumer) spawnWorkerPool(ctx context.Context) {
	for i := 0; i < c.concurrency; i++ {
		c.wg.Add(1)
		go c.workerLoop(ctx, i)
	}
}

// workerLoop processes dispatched work items until stopped
func (c *Consumer) workerLoop(ctx context.Context, workerNum int) {
	defer c.wg.Done()

	workerName := fmt.Sprintf("%s-%d", c.consumerTag, workerNum)
	c.logger.Debug("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-c.stopChan:
			c.logger.Info("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			c.logger.Info("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case msg, ok := <-c.itemsChan:
			if !ok {
				return
			}

			c.service.Process(ctx, msg.item)

			// The service converts every processing failure into a FAILED
			// transition and drops unknown ids, so the delivery is done
			// either way.
			channel := c.rabbitClient.GetChannel()
			if channel == nil {
				c.logger.Error("Failed to get RabbitMQ channel for ACK",
					slog.String("worker_name", workerName),
					slog.String("notification_id", msg.item.ID),
				)
				continue
			}

			if ackErr := channel.Ack(msg.deliveryTag, false); ackErr != nil {
				c.logger.Error("Failed to ACK message",
					slog.String("worker_name", workerName),
					slog.String("notification_id", msg.item.ID),
					slog.String("error", ackErr.Error()),
				)
			}
		}
	}
}
