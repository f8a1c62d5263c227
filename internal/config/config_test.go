package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				// Verify some key fields are populated
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.RabbitMQ.Host)
				assert.Equal(t, 5672, cfg.RabbitMQ.Port)
				assert.Equal(t, "process_notification", cfg.RabbitMQ.WorkQueue)
				assert.Equal(t, "notification_status", cfg.RabbitMQ.StatusQueue)
				assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
				assert.Equal(t, 24*time.Hour, cfg.Storage.Retention)
				assert.Equal(t, 4, cfg.Consumer.Concurrency)
				assert.Equal(t, 0.2, cfg.Processing.FailureRatio)
				assert.Equal(t, "notification-service", cfg.App.Name)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		RabbitMQ: RabbitMQConfig{
			Host:        "localhost",
			Port:        5672,
			WorkQueue:   "process_notification",
			StatusQueue: "notification_status",
		},
		Storage: StorageConfig{
			Driver:    StorageDriverMemory,
			Retention: 24 * time.Hour,
		},
		Consumer: ConsumerConfig{
			Concurrency:   4,
			PrefetchCount: 8,
		},
		Processing: ProcessingConfig{
			MinDelay:     time.Second,
			MaxDelay:     2 * time.Second,
			FailureRatio: 0.2,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "valid config",
			mutate:  func(cfg *Config) {},
			wantErr: false,
		},
		{
			name: "empty storage driver defaults to memory",
			mutate: func(cfg *Config) {
				cfg.Storage.Driver = ""
			},
			wantErr: false,
		},
		{
			name: "invalid server port - too low",
			mutate: func(cfg *Config) {
				cfg.Server.Port = 0
			},
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name: "invalid server port - too high",
			mutate: func(cfg *Config) {
				cfg.Server.Port = 70000
			},
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name: "empty rabbitmq host",
			mutate: func(cfg *Config) {
				cfg.RabbitMQ.Host = ""
			},
			wantErr:   true,
			errString: "rabbitmq host is required",
		},
		{
			name: "empty work queue",
			mutate: func(cfg *Config) {
				cfg.RabbitMQ.WorkQueue = ""
			},
			wantErr:   true,
			errString: "work queue name is required",
		},
		{
			name: "empty status queue",
			mutate: func(cfg *Config) {
				cfg.RabbitMQ.StatusQueue = ""
			},
			wantErr:   true,
			errString: "status queue name is required",
		},
		{
			name: "unknown storage driver",
			mutate: func(cfg *Config) {
				cfg.Storage.Driver = "cassandra"
			},
			wantErr:   true,
			errString: "unknown storage driver",
		},
		{
			name: "postgres driver without host",
			mutate: func(cfg *Config) {
				cfg.Storage.Driver = StorageDriverPostgres
			},
			wantErr:   true,
			errString: "postgres host is required",
		},
		{
			name: "redis driver without url",
			mutate: func(cfg *Config) {
				cfg.Storage.Driver = StorageDriverRedis
			},
			wantErr:   true,
			errString: "redis url is required",
		},
		{
			name: "zero retention",
			mutate: func(cfg *Config) {
				cfg.Storage.Retention = 0
			},
			wantErr:   true,
			errString: "retention must be greater than 0",
		},
		{
			name: "zero consumer concurrency",
			mutate: func(cfg *Config) {
				cfg.Consumer.Concurrency = 0
			},
			wantErr:   true,
			errString: "consumer concurrency must be greater than 0",
		},
		{
			name: "failure ratio above 1",
			mutate: func(cfg *Config) {
				cfg.Processing.FailureRatio = 1.5
			},
			wantErr:   true,
			errString: "failure_ratio must be between 0 and 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
