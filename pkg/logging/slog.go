package logging

import (
	"context"
	"log/slog"
)

// New adapts l to Logger. A nil l logs through slog.Default().
func New(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return slogBackend{l: l}
}

type slogBackend struct {
	l *slog.Logger
}

func (b slogBackend) log(ctx context.Context, level slog.Level, msg string, args []any) {
	b.l.Log(ctx, level, msg, args...)
}

func (b slogBackend) Debug(ctx context.Context, msg string, args ...any) {
	b.log(ctx, slog.LevelDebug, msg, args)
}

func (b slogBackend) Info(ctx context.Context, msg string, args ...any) {
	b.log(ctx, slog.LevelInfo, msg, args)
}

func (b slogBackend) Warn(ctx context.Context, msg string, args ...any) {
	b.log(ctx, slog.LevelWarn, msg, args)
}

func (b slogBackend) Error(ctx context.Context, msg string, args ...any) {
	b.log(ctx, slog.LevelError, msg, args)
}

func (b slogBackend) With(args ...any) Logger {
	return slogBackend{l: b.l.With(args...)}
}
