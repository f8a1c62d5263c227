package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()

	output := &bytes.Buffer{}
	logger, err := New(&Config{
		Level:  level,
		Format: "json",
		writer: output,
	})
	require.NoError(t, err)

	return logger, output
}

func decodeEntry(t *testing.T, line []byte) map[string]interface{} {
	t.Helper()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(line, &entry))
	return entry
}

func TestNew_JSONFormat(t *testing.T) {
	logger, output := newJSONLogger(t, "debug")

	logger.Debug("queued work item", slog.String("notification_id", "n-1"))

	entry := decodeEntry(t, output.Bytes())
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "queued work item", entry["msg"])
	assert.Equal(t, "n-1", entry["notification_id"])
	assert.Contains(t, entry, "time")
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		logBelow    func(l *Logger)
		logAt       func(l *Logger)
		wantLevel   string
		wantMessage string
	}{
		{
			name:        "info suppresses debug",
			level:       "info",
			logBelow:    func(l *Logger) { l.Debug("suppressed") },
			logAt:       func(l *Logger) { l.Info("processing started") },
			wantLevel:   "INFO",
			wantMessage: "processing started",
		},
		{
			name:        "warn suppresses info",
			level:       "warn",
			logBelow:    func(l *Logger) { l.Info("suppressed") },
			logAt:       func(l *Logger) { l.Warn("observer buffer full") },
			wantLevel:   "WARN",
			wantMessage: "observer buffer full",
		},
		{
			name:        "error suppresses warn",
			level:       "error",
			logBelow:    func(l *Logger) { l.Warn("suppressed") },
			logAt:       func(l *Logger) { l.Error("publish failed") },
			wantLevel:   "ERROR",
			wantMessage: "publish failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, output := newJSONLogger(t, tt.level)

			tt.logBelow(logger)
			tt.logAt(logger)

			lines := strings.Split(strings.TrimSpace(output.String()), "\n")
			require.Len(t, lines, 1)

			entry := decodeEntry(t, []byte(lines[0]))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMessage, entry["msg"])
		})
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	output := &bytes.Buffer{}
	logger, err := New(&Config{
		Level:      "info",
		Format:     "console",
		TimeFormat: time.RFC3339,
		writer:     output,
	})
	require.NoError(t, err)

	logger.Info("consumer started")

	// tint abbreviates levels to three letters
	assert.Contains(t, output.String(), "INF")
	assert.Contains(t, output.String(), "consumer started")
}

func TestNew_SourceLocation(t *testing.T) {
	output := &bytes.Buffer{}
	logger, err := New(&Config{
		Level:        "info",
		Format:       "json",
		EnableSource: true,
		writer:       output,
	})
	require.NoError(t, err)

	logger.Info("with source")

	entry := decodeEntry(t, output.Bytes())
	require.Contains(t, entry, "source")
	source := entry["source"].(map[string]interface{})
	assert.Contains(t, source, "file")
	assert.Contains(t, source, "line")
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	require.NotNil(t, logger)
	assert.NotNil(t, logger.Logger)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelInfo}, // case-sensitive, falls back to info
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level "+tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestLogger_WithGroup(t *testing.T) {
	logger, output := newJSONLogger(t, "info")

	logger.WithGroup("consumer").Info("delivery acked", slog.String("queue", "process_notification"))

	entry := decodeEntry(t, output.Bytes())
	require.Contains(t, entry, "consumer")
	group := entry["consumer"].(map[string]interface{})
	assert.Equal(t, "process_notification", group["queue"])
}

func TestLogger_WithAttrs(t *testing.T) {
	logger, output := newJSONLogger(t, "info")

	logger.WithAttrs(
		slog.String("component", "broadcaster"),
		slog.Int("observers", 3),
	).Info("push complete")

	entry := decodeEntry(t, output.Bytes())
	assert.Equal(t, "broadcaster", entry["component"])
	assert.Equal(t, float64(3), entry["observers"])
	assert.Equal(t, "push complete", entry["msg"])
}

func TestLogger_With(t *testing.T) {
	logger, output := newJSONLogger(t, "info")

	logger.With(slog.String("notification_id", "n-1")).Info("status recorded", slog.String("status", "SUCCEEDED"))

	entry := decodeEntry(t, output.Bytes())
	assert.Equal(t, "n-1", entry["notification_id"])
	assert.Equal(t, "SUCCEEDED", entry["status"])
}
