package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Storage driver names
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	RabbitMQ   RabbitMQConfig   `yaml:"rabbitmq"`
	Storage    StorageConfig    `yaml:"storage"`
	Realtime   RealtimeConfig   `yaml:"realtime"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
	Processing ProcessingConfig `yaml:"processing"`
	Logging    LoggingConfig    `yaml:"logging"`
	App        AppConfig        `yaml:"app"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RabbitMQConfig holds RabbitMQ connection and queue configuration
type RabbitMQConfig struct {
	Host           string           `yaml:"host"`
	Port           int              `yaml:"port"`
	User           string           `yaml:"user"`
	Password       string           `yaml:"password"`
	VHost          string           `yaml:"vhost"`
	WorkQueue      string           `yaml:"work_queue"`
	StatusQueue    string           `yaml:"status_queue"`
	QueueDurable   bool             `yaml:"queue_durable"`
	PublishTimeout time.Duration    `yaml:"publish_timeout"`
	Connection     ConnectionConfig `yaml:"connection"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// StorageConfig selects and configures the notification store driver
type StorageConfig struct {
	Driver    string         `yaml:"driver"`
	Retention time.Duration  `yaml:"retention"`
	Postgres  DatabaseConfig `yaml:"postgres"`
	Redis     RedisConfig    `yaml:"redis"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL            string        `yaml:"url"`
	RetryAttempts  int           `yaml:"retry_attempts"`
	RetryInterval  time.Duration `yaml:"retry_interval"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// RealtimeConfig holds broadcaster settings
type RealtimeConfig struct {
	ObserverBufferSize int `yaml:"observer_buffer_size"`
}

// ConsumerConfig holds work-queue consumer settings
type ConsumerConfig struct {
	Concurrency   int `yaml:"concurrency"`
	PrefetchCount int `yaml:"prefetch_count"`
}

// ProcessingConfig holds the simulated processing step settings
type ProcessingConfig struct {
	MinDelay     time.Duration `yaml:"min_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	FailureRatio float64       `yaml:"failure_ratio"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.WorkQueue == "" {
		return fmt.Errorf("rabbitmq work queue name is required")
	}

	if c.RabbitMQ.StatusQueue == "" {
		return fmt.Errorf("rabbitmq status queue name is required")
	}

	switch c.Storage.Driver {
	case StorageDriverMemory, "":
	case StorageDriverPostgres:
		if c.Storage.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required for the postgres storage driver")
		}
		if c.Storage.Postgres.Database == "" {
			return fmt.Errorf("postgres database name is required for the postgres storage driver")
		}
	case StorageDriverRedis:
		if c.Storage.Redis.URL == "" {
			return fmt.Errorf("redis url is required for the redis storage driver")
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}

	if c.Storage.Retention <= 0 {
		return fmt.Errorf("storage retention must be greater than 0")
	}

	if c.Consumer.Concurrency <= 0 {
		return fmt.Errorf("consumer concurrency must be greater than 0")
	}

	if c.Processing.FailureRatio < 0 || c.Processing.FailureRatio > 1 {
		return fmt.Errorf("processing failure_ratio must be between 0 and 1")
	}

	return nil
}
