package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
	"github.com/walletcore/ledgerbridge-go/pkg/logging"
)

// State is the lifecycle state of a Bridge.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateDraining
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDraining:
		return "draining"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Bridge serializes every call to one ledger.ClientLibrary through a
// dedicated worker. All methods are safe for concurrent use.
type Bridge struct {
	cfg   Config
	log   logging.Logger
	queue *queue
	done  chan struct{}
	state atomic.Int32

	closeOnce sync.Once
}

// New starts the worker, waits until it has opened the client and returns the
// ready bridge. If the client cannot be opened the worker exits and New fails
// with ErrInitFailed.
func New(ctx context.Context, cfg Config) (*Bridge, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, opError(opInit, err)
	}

	b := &Bridge{
		cfg:   cfg,
		log:   cfg.Logger.With("component", "bridge"),
		queue: newQueue(cfg.QueueCapacity),
		done:  make(chan struct{}),
	}
	b.state.Store(int32(StateInitializing))

	initErr := make(chan error, 1)
	go b.run(ctx, cfg.openFunc(), initErr)

	if err := <-initErr; err != nil {
		<-b.done
		b.queue.shutdown()
		b.state.Store(int32(StateDestroyed))
		b.log.Error(ctx, "client initialization failed", "error", err)
		return nil, opError(opInit, fmt.Errorf("%w: %w", ErrInitFailed, err))
	}

	b.state.Store(int32(StateReady))
	b.log.Debug(ctx, "bridge ready", "queue_capacity", cfg.QueueCapacity, "call_timeout", cfg.CallTimeout.String())
	return b, nil
}

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	return State(b.state.Load())
}

// Queued returns the number of requests waiting for the worker.
func (b *Bridge) Queued() int {
	return b.queue.queued()
}

// Close stops accepting requests, lets the worker finish the requests already
// queued, closes the client and waits for the worker to exit. Callbacks of
// requests still queued are invoked before Close returns. A second Close
// returns ErrClosed.
func (b *Bridge) Close() error {
	closed := false
	b.closeOnce.Do(func() {
		closed = true
		b.state.Store(int32(StateDraining))
		b.queue.shutdown()
		<-b.done
		b.state.Store(int32(StateDestroyed))
	})
	if !closed {
		return ErrClosed
	}
	return nil
}

func (b *Bridge) submit(req *request) error {
	req.id = uuid.New()
	if err := b.queue.push(req); err != nil {
		return opError(req.op, err)
	}
	return nil
}

// call enqueues req and waits for its response. The wait is bounded by ctx
// or, when ctx has no deadline, by Config.CallTimeout.
func (b *Bridge) call(ctx context.Context, req *request) (response, error) {
	reply := make(replyChan, 1)
	req.done = reply
	if err := b.submit(req); err != nil {
		return response{}, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.CallTimeout)
		defer cancel()
	}

	select {
	case resp := <-reply:
		return resp, resp.err
	case <-ctx.Done():
		b.log.Warn(ctx, "caller stopped waiting", "request_id", req.id.String(), "op", req.op.String(), "error", ctx.Err())
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return response{}, opError(req.op, ErrTimeout)
		}
		return response{}, opError(req.op, ctx.Err())
	}
}

// async enqueues req with fn as its completion.
func (b *Bridge) async(req *request, fn func(response)) error {
	req.done = callback(fn)
	return b.submit(req)
}

// Blocking operations

// Sync synchronizes client state with the node.
func (b *Bridge) Sync(ctx context.Context) (ledger.SyncSummary, error) {
	resp, err := b.call(ctx, &request{op: OpSync})
	return resp.sync, err
}

// TestConnection performs a sync and reports only whether it succeeded.
func (b *Bridge) TestConnection(ctx context.Context) error {
	_, err := b.call(ctx, &request{op: OpTestConnection})
	return err
}

// CreateWallet creates a wallet account from seed and returns its id.
func (b *Bridge) CreateWallet(ctx context.Context, seed [ledger.SeedLen]byte) (ledger.AccountID, error) {
	resp, err := b.call(ctx, &request{op: OpCreateWallet, seed: seed})
	return resp.account, err
}

// Accounts lists the ids of every tracked account.
func (b *Bridge) Accounts(ctx context.Context) ([]ledger.AccountID, error) {
	resp, err := b.call(ctx, &request{op: OpListAccounts})
	return resp.accounts, err
}

// Balance returns the vault summary of account.
func (b *Bridge) Balance(ctx context.Context, account ledger.AccountID) (Balance, error) {
	resp, err := b.call(ctx, &request{op: OpGetBalance, account: account})
	return resp.balance, err
}

// InputNotes lists consumable notes for account, or for every tracked
// account when account is nil.
func (b *Bridge) InputNotes(ctx context.Context, account *ledger.AccountID) (NoteList, error) {
	resp, err := b.call(ctx, &request{op: OpListNotes, filter: copyFilter(account)})
	return resp.notes, err
}

// ConsumeNotes submits a transaction consuming notes into account.
func (b *Bridge) ConsumeNotes(ctx context.Context, account ledger.AccountID, notes []ledger.NoteID) (ledger.TxID, error) {
	if len(notes) == 0 {
		return ledger.TxID{}, opError(OpConsumeNotes, ErrInvalidNoteIDs)
	}
	resp, err := b.call(ctx, &request{op: OpConsumeNotes, account: account, notes: cloneNotes(notes)})
	return resp.tx, err
}

// Async operations. Callbacks run on the worker goroutine; a callback that
// blocks stalls every later request of this bridge.

// SyncAsync enqueues a sync.
func (b *Bridge) SyncAsync(fn func(ledger.SyncSummary, error)) error {
	if fn == nil {
		return opError(OpSync, ErrInvalidParameter)
	}
	return b.async(&request{op: OpSync}, func(r response) { fn(r.sync, r.err) })
}

// TestConnectionAsync enqueues a connection test.
func (b *Bridge) TestConnectionAsync(fn func(error)) error {
	if fn == nil {
		return opError(OpTestConnection, ErrInvalidParameter)
	}
	return b.async(&request{op: OpTestConnection}, func(r response) { fn(r.err) })
}

// CreateWalletAsync enqueues a wallet creation.
func (b *Bridge) CreateWalletAsync(seed [ledger.SeedLen]byte, fn func(ledger.AccountID, error)) error {
	if fn == nil {
		return opError(OpCreateWallet, ErrInvalidParameter)
	}
	return b.async(&request{op: OpCreateWallet, seed: seed}, func(r response) { fn(r.account, r.err) })
}

// AccountsAsync enqueues an account listing.
func (b *Bridge) AccountsAsync(fn func([]ledger.AccountID, error)) error {
	if fn == nil {
		return opError(OpListAccounts, ErrInvalidParameter)
	}
	return b.async(&request{op: OpListAccounts}, func(r response) { fn(r.accounts, r.err) })
}

// BalanceAsync enqueues a balance lookup.
func (b *Bridge) BalanceAsync(account ledger.AccountID, fn func(Balance, error)) error {
	if fn == nil {
		return opError(OpGetBalance, ErrInvalidParameter)
	}
	return b.async(&request{op: OpGetBalance, account: account}, func(r response) { fn(r.balance, r.err) })
}

// InputNotesAsync enqueues a note listing.
func (b *Bridge) InputNotesAsync(account *ledger.AccountID, fn func(NoteList, error)) error {
	if fn == nil {
		return opError(OpListNotes, ErrInvalidParameter)
	}
	return b.async(&request{op: OpListNotes, filter: copyFilter(account)}, func(r response) { fn(r.notes, r.err) })
}

// ConsumeNotesAsync enqueues a consume-notes transaction.
func (b *Bridge) ConsumeNotesAsync(account ledger.AccountID, notes []ledger.NoteID, fn func(ledger.TxID, error)) error {
	if fn == nil {
		return opError(OpConsumeNotes, ErrInvalidParameter)
	}
	if len(notes) == 0 {
		return opError(OpConsumeNotes, ErrInvalidNoteIDs)
	}
	return b.async(&request{op: OpConsumeNotes, account: account, notes: cloneNotes(notes)}, func(r response) { fn(r.tx, r.err) })
}

func copyFilter(account *ledger.AccountID) *ledger.AccountID {
	if account == nil {
		return nil
	}
	id := *account
	return &id
}

func cloneNotes(notes []ledger.NoteID) []ledger.NoteID {
	return append([]ledger.NoteID(nil), notes...)
}
