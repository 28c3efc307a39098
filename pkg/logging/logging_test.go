package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSlogBackend(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	l.With("component", "bridge").Info(context.Background(), "ready", "queue_capacity", 256, Redacted("seed"))

	out := buf.String()
	for _, want := range []string{"msg=ready", "component=bridge", "queue_capacity=256", "seed=" + Placeholder()} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output %q missing %q", out, want)
		}
	}
}

func TestZapBackendConvertsAttrs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZap(zap.New(core)).With("handle", 7)

	l.Error(context.Background(), "sync failed", "request_id", "abc", Redacted("key"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["handle"] != int64(7) {
		t.Fatalf("handle field = %v", fields["handle"])
	}
	if fields["request_id"] != "abc" {
		t.Fatalf("request_id field = %v", fields["request_id"])
	}
	if fields["key"] != Placeholder() {
		t.Fatalf("key field = %v, want redacted", fields["key"])
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("level = %v", entries[0].Level)
	}
}

func TestDefaultIsReplaceable(t *testing.T) {
	if Default() == nil {
		t.Fatalf("Default() returned nil")
	}

	core, logs := observer.New(zapcore.InfoLevel)
	prev := Default()
	SetDefault(NewZap(zap.New(core)))
	defer SetDefault(prev)

	SetDefault(nil)
	Default().Info(context.Background(), "hello")
	if logs.Len() != 1 {
		t.Fatalf("SetDefault(nil) must keep the current logger")
	}
}

func TestNewProductionRejectsBadLevel(t *testing.T) {
	if _, _, err := NewProduction("chatty"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	l, z, err := NewProduction("warn")
	if err != nil {
		t.Fatalf("NewProduction: %v", err)
	}
	defer z.Sync()
	l.Debug(context.Background(), "dropped")
}
