// Package bridge confines a ledger.ClientLibrary to one dedicated worker and
// exposes it to any number of concurrent callers.
//
// # Design
//
// Each Bridge owns exactly one worker goroutine, locked to its OS thread for
// its whole life. The worker opens the client, then executes requests from a
// bounded FIFO queue strictly one at a time. Callers never touch the client:
//
//   - Blocking methods (Sync, CreateWallet, ...) enqueue a request and wait
//     for its result up to Config.CallTimeout. A timeout abandons the wait
//     only; the operation still runs to completion inside the worker.
//   - Async methods (SyncAsync, CreateWalletAsync, ...) enqueue a request and
//     return immediately. The callback later runs on the worker goroutine.
//
// Admission never blocks. When QueueCapacity requests are already queued or
// executing, new requests fail with ErrQueueFull. After Close they fail with
// ErrClosed.
//
// # Lifecycle
//
//	Initializing -> Ready -> Draining -> Destroyed
//	Initializing -> Destroyed (client failed to open)
//
// Close enqueues a shutdown request, closes the queue and waits for the worker
// to drain earlier requests and close the client. Close must not be called
// from inside a callback, since it would wait for its own goroutine.
package bridge
