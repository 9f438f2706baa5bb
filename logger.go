package workfs

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with workfs-specific context.
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
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithIdentity adds a configuration-identity field to the logger.
func (l *Logger) WithIdentity(identity string) *Logger {
	return &Logger{
		Logger: l.Logger.With("identity", identity),
	}
}

// LogWrite logs a write operation.
func (l *Logger) LogWrite(ctx context.Context, path string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write failed",
			"path", path,
			"size", size,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "write completed",
			"path", path,
			"size", size,
		)
	}
}

// LogWriteBlocked logs a silently dropped write (read-only or Main-File guard).
func (l *Logger) LogWriteBlocked(ctx context.Context, path, reason string) {
	l.DebugContext(ctx, "write dropped",
		"path", path,
		"reason", reason,
	)
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"path", path,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"path", path,
		)
	}
}

// LogNotify logs an observed file-change notification.
func (l *Logger) LogNotify(ctx context.Context, path, outcome string) {
	l.DebugContext(ctx, "file change observed",
		"path", path,
		"outcome", outcome,
	)
}

// LogRestore logs a snapshot restore.
func (l *Logger) LogRestore(ctx context.Context, id string, files, failed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"snapshot", id,
			"error", err,
		)
	} else if failed > 0 {
		l.WarnContext(ctx, "restore completed with failures",
			"snapshot", id,
			"files", files,
			"failed", failed,
		)
	} else {
		l.InfoContext(ctx, "restore completed",
			"snapshot", id,
			"files", files,
		)
	}
}

// LogSnapshotSave logs a snapshot-list persist.
func (l *Logger) LogSnapshotSave(ctx context.Context, identity string, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot save failed",
			"identity", identity,
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "snapshot save completed",
			"identity", identity,
			"count", count,
		)
	}
}
