package phreduce

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with phreduce-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithMode adds the reduction mode to the logger.
func (l *Logger) WithMode(m Mode) *Logger {
	return &Logger{
		Logger: l.Logger.With("mode", m.String()),
	}
}

// LogLoad logs a matrix load.
func (l *Logger) LogLoad(ctx context.Context, name string, columns int, entries, cancelled uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "load completed",
		"name", name,
		"columns", columns,
		"entries", entries,
		"cancelled", cancelled,
	)
}

// LogReduce logs a reduction.
func (l *Logger) LogReduce(ctx context.Context, twist bool, pairs int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reduce failed",
			"twist", twist,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "reduce completed",
		"twist", twist,
		"pairs", pairs,
	)
}
