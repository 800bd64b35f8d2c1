package scgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with scgo-specific context.
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

// WithAssay adds an assay field to the logger.
func (l *Logger) WithAssay(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("assay", name),
	}
}

// WithComponent adds family and identifier fields to the logger.
func (l *Logger) WithComponent(family, name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("family", family, "name", name),
	}
}

// LogCatalogBuild logs a catalog build.
func (l *Logger) LogCatalogBuild(ctx context.Context, assays, derived int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "catalog build failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "catalog built",
			"assays", assays,
			"derived", derived,
		)
	}
}

// LogMaterialize logs a materialize operation.
func (l *Logger) LogMaterialize(ctx context.Context, components int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "materialize failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "materialize completed",
			"components", components,
		)
	}
}

// LogAppend logs an append operation.
func (l *Logger) LogAppend(ctx context.Context, components int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "append failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "append completed",
			"components", components,
		)
	}
}
