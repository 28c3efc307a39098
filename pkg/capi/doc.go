// Package capi is the C-shaped surface of the ledger bridge.
//
// Every function takes and returns plain values (handles, byte slices,
// status codes, callbacks with an opaque user pointer) so that the cgo layer
// in cmd/libwalletcore stays a thin conversion shim. Bridges are referred to
// by Handle tokens; result buffers handed to callbacks are allocated through
// the process-wide Allocator and must be returned exactly once through
// ReleaseBuffer.
package capi
