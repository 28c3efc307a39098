// Package logging provides the logging facade used across the wallet bridge.
//
// Logger is a small, context-aware interface modelled on log/slog. Two
// backends are provided: New wraps a *slog.Logger and NewZap wraps a
// *zap.Logger. The shared library and walletctl log through zap; tests
// usually capture output through slog.
//
//	logger := logging.NewZap(zap.NewExample())
//	logger.Info(ctx, "bridge ready", "queue_capacity", 256)
//
// # Package Default
//
// Default returns the process-wide logger, a no-op zap logger until
// SetDefault is called. Components that are not handed a Logger explicitly
// fall back to it.
//
// # Redaction
//
// Never log seeds, private keys or signatures. Use Redacted to record that a
// value was deliberately left out:
//
//	logger.Debug(ctx, "wallet created", "account_id", id, logging.Redacted("seed"))
package logging
