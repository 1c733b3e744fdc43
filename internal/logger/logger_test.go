package logger

import (
	"context"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{"debug json", "debug", "json"},
		{"info console", "info", "console"},
		{"warn json", "warn", "json"},
		{"error console", "error", "console"},
		{"invalid level falls back", "nope", "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.level, tt.format)
			if log == nil {
				t.Error("New() returned nil")
			}
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	ctx := context.Background()
	log := New("info", "json")

	// These should not panic
	log.Debug(ctx, "debug message")
	log.Info(ctx, "info message")
	log.Warn(ctx, "warn message")
	log.Error(ctx, "error message")

	// Formatting args
	log.Info(ctx, "formatted message: %s %d", "test", 123)
}

func TestWithComponent(t *testing.T) {
	log := New("debug", "json")
	tagged := WithComponent(log, "acquire")
	if tagged == nil {
		t.Fatal("WithComponent() returned nil")
	}
	tagged.Info(context.Background(), "tagged message")
}
