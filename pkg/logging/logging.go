package logging

import (
	"context"
	"log/slog"
	"sync"

	"go.uber.org/zap"
)

// Logger is what the bridge, the client and the CLI log through. Every call
// takes the context of the request being served; args are slog-style
// key/value pairs or slog.Attr values.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger
	defaultOnce   sync.Once
)

// Default returns the process-wide logger. It discards everything until
// SetDefault is called.
func Default() Logger {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		if defaultLogger == nil {
			defaultLogger = NewZap(zap.NewNop())
		}
		defaultMu.Unlock()
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger. A nil logger is ignored.
func SetDefault(l Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

const withheld = "<withheld>"

// Redacted returns an attribute for a secret that was left out of the
// record, such as a seed or a private key.
func Redacted(key string) slog.Attr {
	return slog.String(key, withheld)
}

// Placeholder is the value Redacted attributes carry.
func Placeholder() string { return withheld }
