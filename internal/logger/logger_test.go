package logger

import (
	"context"
	"log/slog"
	"os"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "info", input: "info", want: slog.LevelInfo},
		{name: "warn", input: "warn", want: slog.LevelWarn},
		{name: "error", input: "error", want: slog.LevelError},
		{name: "unknown falls back to info", input: "verbose", want: slog.LevelInfo},
		{name: "empty falls back to info", input: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLogLevel(tt.input); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestContextRequestLogger_RoundTrip(t *testing.T) {
	testLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx := ContextWithRequestLogger(context.Background(), testLogger)

	if got := ContextRequestLogger(ctx); got != testLogger {
		t.Error("expected the logger stored in the context to be returned")
	}
}

func TestContextRequestLogger_FallsBackToDefault(t *testing.T) {
	got := ContextRequestLogger(context.Background())

	if got == nil {
		t.Fatal("expected a non-nil logger for a bare context")
	}
	if got != slog.Default() {
		t.Error("expected the default logger for a context without a request logger")
	}
}

func TestContextWithLogAttrs(t *testing.T) {
	testLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := ContextWithRequestLogger(context.Background(), testLogger)

	ContextWithLogAttrs(ctx, slog.String("first", "1"))
	ContextWithLogAttrs(ctx, slog.String("second", "2"), slog.Int("third", 3))

	attrs := ContextLogAttrs(ctx)
	if len(attrs) != 3 {
		t.Fatalf("expected 3 collected attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "first" || attrs[1].Key != "second" || attrs[2].Key != "third" {
		t.Errorf("attributes out of order: %v", attrs)
	}
}

func TestContextWithLogAttrs_NoCollectorIsNoOp(t *testing.T) {
	// Must not panic when the middleware has not seeded the context.
	ContextWithLogAttrs(context.Background(), slog.String("ignored", "x"))

	if attrs := ContextLogAttrs(context.Background()); attrs != nil {
		t.Errorf("expected nil attrs for a bare context, got %v", attrs)
	}
}

func TestInitLogger_Environments(t *testing.T) {
	tests := []struct {
		name        string
		environment string
	}{
		{name: "dev uses text handler", environment: "dev"},
		{name: "test uses text handler", environment: "test"},
		{name: "prod uses JSON handler", environment: "prod"},
		{name: "staging uses JSON handler", environment: "staging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := InitLogger(slog.LevelInfo, tt.environment)
			if logger == nil {
				t.Fatal("expected a non-nil logger")
			}
			if !logger.Enabled(context.Background(), slog.LevelInfo) {
				t.Error("expected info level to be enabled")
			}
			if logger.Enabled(context.Background(), slog.LevelDebug) {
				t.Error("expected debug level to be disabled at info level")
			}
		})
	}
}
