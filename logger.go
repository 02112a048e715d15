package bowgo

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"time"
)

// Logger wraps slog.Logger with bowgo-specific context.
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
		Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(math.MaxInt),
		})),
	}
}

// LogTrain logs a vocabulary training run.
func (l *Logger) LogTrain(ctx context.Context, branching, levels, words int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "vocabulary training failed",
			"branching", branching,
			"levels", levels,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "vocabulary training completed",
			"branching", branching,
			"levels", levels,
			"words", words,
			"duration", duration,
		)
	}
}

// LogAdd logs a database insertion.
func (l *Logger) LogAdd(ctx context.Context, entry uint32, words int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"entry", entry,
			"words", words,
		)
	}
}

// LogQuery logs a database query.
func (l *Logger) LogQuery(ctx context.Context, topN, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"top_n", topN,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"top_n", topN,
			"results", results,
		)
	}
}

// LogSnapshot logs a snapshot save or load.
func (l *Logger) LogSnapshot(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot completed",
			"name", name,
		)
	}
}
