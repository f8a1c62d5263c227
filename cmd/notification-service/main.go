package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuongbtq/notification-service/internal/api/handler"
	"github.com/cuongbtq/notification-service/internal/api/router"
	"github.com/cuongbtq/notification-service/internal/config"
	"github.com/cuongbtq/notification-service/internal/consumer"
	"github.com/cuongbtq/notification-service/internal/notification"
	"github.com/cuongbtq/notification-service/internal/notification/storage"
	"github.com/cuongbtq/notification-service/internal/realtime"
	"github.com/cuongbtq/notification-service/shared/logger"
	"github.com/cuongbtq/notification-service/shared/postgresql"
	"github.com/cuongbtq/notification-service/shared/rabbitmq"
	sharedredis "github.com/cuongbtq/notification-service/shared/redis"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("NOTIFICATION_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/notification-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting notification service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize the notification store
	store, closeStore, err := initStorage(cfg, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStore()

	appLogger.Info("Notification store initialized",
		slog.String("driver", storageDriver(cfg)),
	)

	// Initialize RabbitMQ client
	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer rabbitClient.Close()

	appLogger.Info("RabbitMQ connection established")

	// Initialize the realtime broadcaster
	broadcaster := realtime.NewBroadcaster(cfg.Realtime.ObserverBufferSize, appLogger.Logger)
	defer broadcaster.Close()

	// Initialize the lifecycle service
	service := notification.NewService(&notification.Config{
		Logger:             appLogger.Logger,
		Storage:            store,
		Producer:           rabbitClient,
		Broadcaster:        broadcaster,
		WorkQueue:          cfg.RabbitMQ.WorkQueue,
		StatusQueue:        cfg.RabbitMQ.StatusQueue,
		MinProcessingDelay: cfg.Processing.MinDelay,
		MaxProcessingDelay: cfg.Processing.MaxDelay,
		FailureRatio:       cfg.Processing.FailureRatio,
	})

	// Initialize the work-queue consumer
	workConsumer := consumer.NewConsumer(&consumer.Config{
		Logger:        appLogger.Logger,
		RabbitClient:  rabbitClient,
		Service:       service,
		Queue:         cfg.RabbitMQ.WorkQueue,
		Concurrency:   cfg.Consumer.Concurrency,
		PrefetchCount: cfg.Consumer.PrefetchCount,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumerErrChan := make(chan error, 1)
	go func() {
		if err := workConsumer.Start(ctx); err != nil {
			consumerErrChan <- err
		}
	}()

	// Initialize router
	r := initRouter(cfg, appLogger.Logger, service, broadcaster)

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start",
				slog.Any("error", err),
			)
			os.Exit(1)
		}
	}()

	appLogger.Info("Notification service is running",
		slog.String("address", addr),
		slog.String("work_queue", cfg.RabbitMQ.WorkQueue),
		slog.String("status_queue", cfg.RabbitMQ.StatusQueue),
	)

	// Wait for interrupt signal or consumer failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-consumerErrChan:
		appLogger.Error("Consumer error",
			slog.Any("error", err),
		)
		return err
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	// Stop the consumer after the HTTP surface is drained
	cancel()
	done := make(chan struct{})
	go func() {
		workConsumer.Stop()
		close(done)
	}()

	select {
	case <-done:
		appLogger.Info("Consumer stopped gracefully")
	case <-shutdownCtx.Done():
		appLogger.Warn("Consumer shutdown timeout exceeded, forcing exit")
	}

	appLogger.Info("Notification service shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initStorage initializes the configured notification store driver and
// returns it with its cleanup function
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		dbClient, err := postgresql.NewClient(&postgresql.Config{
			Host:            cfg.Storage.Postgres.Host,
			Port:            cfg.Storage.Postgres.Port,
			User:            cfg.Storage.Postgres.User,
			Password:        cfg.Storage.Postgres.Password,
			Database:        cfg.Storage.Postgres.Database,
			SSLMode:         cfg.Storage.Postgres.SSLMode,
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Storage.Postgres.ConnMaxIdleTime,
		}, logger)
		if err != nil {
			return nil, nil, err
		}

		store := storage.NewPostgresStore(dbClient)
		if err := store.Migrate(context.Background()); err != nil {
			dbClient.Close()
			return nil, nil, err
		}

		return store, func() { dbClient.Close() }, nil

	case config.StorageDriverRedis:
		redisClient, err := sharedredis.Connect(context.Background(), &sharedredis.Config{
			URL:            cfg.Storage.Redis.URL,
			RetryAttempts:  cfg.Storage.Redis.RetryAttempts,
			RetryInterval:  cfg.Storage.Redis.RetryInterval,
			ConnectTimeout: cfg.Storage.Redis.ConnectTimeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}

		return storage.NewRedisStore(redisClient), func() { redisClient.Close() }, nil

	default:
		return storage.NewMemoryStore(), func() {}, nil
	}
}

func storageDriver(cfg *config.Config) string {
	if cfg.Storage.Driver == "" {
		return config.StorageDriverMemory
	}
	return cfg.Storage.Driver
}

// initRabbitMQ initializes the RabbitMQ client with both lifecycle queues
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:              cfg.Host,
		Port:              cfg.Port,
		User:              cfg.User,
		Password:          cfg.Password,
		VHost:             cfg.VHost,
		Queues:            []string{cfg.WorkQueue, cfg.StatusQueue},
		QueueDurable:      cfg.QueueDurable,
		RetryAttempts:     cfg.Connection.RetryAttempts,
		RetryInterval:     cfg.Connection.RetryInterval,
		Heartbeat:         cfg.Connection.Heartbeat,
		ConnectionTimeout: cfg.Connection.ConnectionTimeout,
		PublishTimeout:    cfg.PublishTimeout,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(cfg *config.Config, logger *slog.Logger, service *notification.Service, broadcaster *realtime.Broadcaster) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize handler dependencies
	handlerDeps := &handler.Dependencies{
		Logger:      logger,
		Service:     service,
		Broadcaster: broadcaster,
		Retention:   cfg.Storage.Retention,
	}

	// Setup router
	return router.SetupRouter(handlerDeps)
}
