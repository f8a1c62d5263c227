package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	URL            string // redis://[:password@]host:port/db
	RetryAttempts  int
	RetryInterval  time.Duration
	ConnectTimeout time.Duration
}

// Connect establishes a connection to Redis with retry logic and verifies
// it with a ping before returning the client
func Connect(ctx context.Context, config *Config, logger *slog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	attempts := config.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	connectTimeout := config.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		logger.Info("Connecting to Redis",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
		)

		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err == nil {
			logger.Info("Successfully connected to Redis")
			return client, nil
		} else {
			lastErr = err
			_ = client.Close()
			logger.Error("Failed to connect to Redis",
				slog.Any("error", err),
				slog.Int("attempt", attempt),
			)
		}

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("redis connection canceled: %w", ctx.Err())
			case <-time.After(config.RetryInterval):
			}
		}
	}

	return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", attempts, lastErr)
}
