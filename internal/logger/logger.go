// Package logger configures the application's structured logging and provides
// request-scoped loggers for HTTP handlers.
//
// InitLogger selects the log handler based on the runtime environment:
// human-readable colorized output for local development, JSON for everything
// else so that log aggregators can parse the output.
//
// HTTP middleware stores a request-scoped logger in the request context
// (see ContextWithRequestLogger). Handlers retrieve it with
// ContextRequestLogger and can attach additional attributes to the final
// request log line with ContextWithLogAttrs.
package logger

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

// InitLogger creates the application logger.
//
// dev and test environments get colorized text output (tint), other
// environments get JSON output.
func InitLogger(level slog.Level, environment string) *slog.Logger {
	var handler slog.Handler

	switch environment {
	case "dev", "test":
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// ParseLogLevel converts a log level string to a slog.Level.
// Unrecognized values fall back to info.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type contextKey int

const (
	requestLoggerKey contextKey = iota
	logAttrsKey
)

// logAttrCollector accumulates attributes for the final request log line.
// Handlers run on the request goroutine but error paths can log from
// deferred functions, so access is guarded by a mutex.
type logAttrCollector struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

func (c *logAttrCollector) add(attrs ...slog.Attr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attrs = append(c.attrs, attrs...)
}

func (c *logAttrCollector) snapshot() []slog.Attr {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]slog.Attr, len(c.attrs))
	copy(out, c.attrs)
	return out
}

// ContextWithRequestLogger returns a context carrying the request-scoped
// logger and a fresh attribute collector. Called once per request by the
// request logging middleware.
func ContextWithRequestLogger(ctx context.Context, logger *slog.Logger) context.Context {
	ctx = context.WithValue(ctx, requestLoggerKey, logger)
	ctx = context.WithValue(ctx, logAttrsKey, &logAttrCollector{})
	return ctx
}

// ContextRequestLogger returns the request-scoped logger stored in ctx.
//
// If the context does not contain a request logger (e.g. code running outside
// an HTTP request) the process-wide default logger is returned, so callers
// never need to nil-check.
func ContextRequestLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(requestLoggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// ContextWithLogAttrs records attributes that the request logging middleware
// includes in the final request log line.
//
// Use this instead of logging a separate line when the attribute only makes
// sense alongside the request outcome (status code, duration).
// Calls outside an HTTP request are a no-op.
func ContextWithLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	if collector, ok := ctx.Value(logAttrsKey).(*logAttrCollector); ok {
		collector.add(attrs...)
	}
}

// ContextLogAttrs returns the attributes recorded with ContextWithLogAttrs.
// Used by the request logging middleware when emitting the final log line.
func ContextLogAttrs(ctx context.Context) []slog.Attr {
	if collector, ok := ctx.Value(logAttrsKey).(*logAttrCollector); ok {
		return collector.snapshot()
	}
	return nil
}
