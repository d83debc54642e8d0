package observability

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOptions("info", "text", &buf)

	logger.Debug("should be filtered")
	logger.Info("should appear")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Error("Debug message logged at info level")
	}
	if !strings.Contains(out, "should appear") {
		t.Error("Info message missing from output")
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOptions("debug", "text", &buf)

	logger.Info("batch planned", String("strategy", "combined-files"), Int("batches", 3))

	out := buf.String()
	if !strings.Contains(out, "strategy=combined-files") {
		t.Errorf("Expected strategy field in output, got %q", out)
	}
	if !strings.Contains(out, "batches=3") {
		t.Errorf("Expected batches field in output, got %q", out)
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOptions("debug", "text", &buf)

	child := logger.With(String("component", "planner"))
	child.Info("starting")

	if !strings.Contains(buf.String(), "component=planner") {
		t.Errorf("Expected inherited field in output, got %q", buf.String())
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOptions("info", "json", &buf)

	logger.Info("structured", String("key", "value"))

	out := buf.String()
	if !strings.Contains(out, `"key":"value"`) {
		t.Errorf("Expected JSON field in output, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q): Expected %v, got %v", tt.input, tt.want, got)
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := Nop()
	logger.Info("discarded")
	logger.With(String("k", "v")).Error("also discarded")
}
