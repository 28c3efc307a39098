package bridge

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
)

// run is the worker. It owns the client from open to close; nothing else
// ever touches it.
func (b *Bridge) run(ctx context.Context, open OpenFunc, initErr chan<- error) {
	defer close(b.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	cl, err := b.open(ctx, open)
	if err != nil {
		initErr <- err
		return
	}
	initErr <- nil

	// Operations outlive the context New was called with.
	opCtx := context.WithoutCancel(ctx)
	for {
		req, ok := b.queue.pop()
		if !ok || req.op == opShutdown {
			break
		}
		b.execute(opCtx, cl, req)
	}

	if err := cl.Close(); err != nil {
		b.log.Warn(opCtx, "client close failed", "error", err)
	}
	b.log.Debug(opCtx, "worker stopped")
}

func (b *Bridge) open(ctx context.Context, open OpenFunc) (cl ledger.ClientLibrary, err error) {
	defer func() {
		if r := recover(); r != nil {
			cl, err = nil, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	cl, err = open(ctx)
	if err == nil && cl == nil {
		err = errors.New("open returned no client")
	}
	return cl, err
}

func (b *Bridge) execute(ctx context.Context, cl ledger.ClientLibrary, req *request) {
	defer b.queue.done()

	resp := b.dispatch(ctx, cl, req)
	if resp.err != nil {
		resp.err = opError(req.op, resp.err)
		if req.op == OpSync || req.op == OpTestConnection {
			b.log.Error(ctx, "sync_state failed", "request_id", req.id.String(), "op", req.op.String(), "error", resp.err)
		} else {
			b.log.Debug(ctx, "request failed", "request_id", req.id.String(), "op", req.op.String(), "error", resp.err)
		}
	} else {
		b.log.Debug(ctx, "request completed", "request_id", req.id.String(), "op", req.op.String())
	}

	b.deliver(ctx, req, resp)
}

// dispatch runs one request against the client. A panic inside the client is
// converted into an error.
func (b *Bridge) dispatch(ctx context.Context, cl ledger.ClientLibrary, req *request) (resp response) {
	resp.op = req.op
	defer func() {
		if r := recover(); r != nil {
			resp = response{op: req.op, err: fmt.Errorf("%w: %v", ErrPanic, r)}
		}
	}()

	switch req.op {
	case OpSync:
		resp.sync, resp.err = cl.Sync(ctx)
	case OpTestConnection:
		_, resp.err = cl.Sync(ctx)
	case OpCreateWallet:
		var acct ledger.Account
		acct, resp.err = cl.CreateWallet(ctx, req.seed)
		resp.account = acct.ID
	case OpListAccounts:
		var headers []ledger.AccountHeader
		headers, resp.err = cl.ListAccounts(ctx)
		resp.accounts = make([]ledger.AccountID, len(headers))
		for i, h := range headers {
			resp.accounts[i] = h.ID
		}
	case OpGetBalance:
		var acct ledger.Account
		acct, resp.err = cl.GetAccount(ctx, req.account)
		if resp.err == nil {
			resp.balance = BalanceOf(acct)
		}
	case OpListNotes:
		var notes []ledger.InputNote
		notes, resp.err = cl.ListConsumableNotes(ctx, req.filter)
		if resp.err == nil {
			resp.notes = NoteListOf(notes)
		}
	case OpConsumeNotes:
		resp.tx, resp.err = cl.SubmitConsumeNotes(ctx, req.account, req.notes)
	default:
		resp.err = fmt.Errorf("%w: unknown op %d", ErrInvalidParameter, req.op)
	}
	return resp
}

// deliver hands the response to the request's completion. A panicking
// callback is logged and does not stop the worker.
func (b *Bridge) deliver(ctx context.Context, req *request, resp response) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error(ctx, "callback panicked", "request_id", req.id.String(), "op", req.op.String(), "panic", fmt.Sprint(r))
		}
	}()
	req.done.complete(resp)
}
