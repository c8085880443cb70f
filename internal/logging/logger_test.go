package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger(nil)
	if logger == nil {
		t.Fatal("NewLogger(nil) returned nil")
	}

	var buf bytes.Buffer
	logger = NewLogger(&Config{Level: LevelDebug, Output: &buf})
	logger.Debug("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected output to contain %q, got %q", "hello", buf.String())
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	logger.Debug("debug message")
	logger.Info("info message")
	if buf.Len() != 0 {
		t.Errorf("expected no output below Warn level, got %q", buf.String())
	}

	logger.Warn("warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Errorf("expected warn message, got %q", buf.String())
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	streamLogger := logger.WithStream("reset")
	streamLogger.Info("admitted", "hold_count", 3)

	out := buf.String()
	if !strings.Contains(out, "stream=reset") {
		t.Errorf("expected stream=reset in output, got %q", out)
	}
	if !strings.Contains(out, "hold_count=3") {
		t.Errorf("expected hold_count=3 in output, got %q", out)
	}
}

func TestLoggerWithChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	derived := logger.With("a", 1).With("b", 2)
	derived.Info("chained")

	out := buf.String()
	if !strings.Contains(out, "a=1") || !strings.Contains(out, "b=2") {
		t.Errorf("expected both fields present, got %q", out)
	}
}

func TestNewNopDiscardsOutput(t *testing.T) {
	nop := NewNop()
	// Should not panic, and nothing to assert about output since it's discarded.
	nop.Info("should not appear anywhere observable")
}

func TestGlobalLoggerFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))

	Debug("debug message", "key", "value")
	if !strings.Contains(buf.String(), "debug message") {
		t.Errorf("expected debug message, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "key=value") {
		t.Errorf("expected key=value, got %q", buf.String())
	}

	buf.Reset()
	Info("info message")
	if !strings.Contains(buf.String(), "info message") {
		t.Errorf("expected info message, got %q", buf.String())
	}

	buf.Reset()
	Warn("warning message")
	if !strings.Contains(buf.String(), "warning message") {
		t.Errorf("expected warning message, got %q", buf.String())
	}

	buf.Reset()
	Error("error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Errorf("expected error message, got %q", buf.String())
	}
}
