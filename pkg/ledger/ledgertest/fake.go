package ledgertest

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
)

// Op names a ClientLibrary method.
type Op string

const (
	OpSync         Op = "sync"
	OpCreateWallet Op = "create_wallet"
	OpListAccounts Op = "list_accounts"
	OpGetAccount   Op = "get_account"
	OpListNotes    Op = "list_notes"
	OpConsumeNotes Op = "consume_notes"
)

// Fake is an instrumented in-memory ClientLibrary.
type Fake struct {
	inFlight atomic.Int32
	overlaps atomic.Int32
	calls    atomic.Int64
	closes   atomic.Int32

	mu       sync.Mutex
	block    uint32
	accounts []ledger.Account
	notes    []ledger.InputNote
	txs      int
	delay    time.Duration
	hold     chan struct{}
	failNext map[Op]error
	panicOn  map[Op]bool
	openErr  error

	completed chan Op
}

var _ ledger.ClientLibrary = (*Fake)(nil)

// NewFake returns an empty fake at block 0.
func NewFake() *Fake {
	return &Fake{
		failNext:  make(map[Op]error),
		panicOn:   make(map[Op]bool),
		completed: make(chan Op, 4096),
	}
}

// Opener returns a constructor suitable for bridge.Config.Open.
func (f *Fake) Opener() func(context.Context) (ledger.ClientLibrary, error) {
	return func(context.Context) (ledger.ClientLibrary, error) {
		f.mu.Lock()
		err := f.openErr
		f.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

// FailOpen makes Opener fail with err.
func (f *Fake) FailOpen(err error) {
	f.mu.Lock()
	f.openErr = err
	f.mu.Unlock()
}

// SetDelay makes every later call sleep for d before returning.
func (f *Fake) SetDelay(d time.Duration) {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
}

// Hold blocks every later call until the returned release function is
// called. release is idempotent.
func (f *Fake) Hold() (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.hold = ch
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.hold == ch {
				f.hold = nil
			}
			f.mu.Unlock()
			close(ch)
		})
	}
}

// FailNext makes the next call of op fail with err.
func (f *Fake) FailNext(op Op, err error) {
	f.mu.Lock()
	f.failNext[op] = err
	f.mu.Unlock()
}

// PanicNext makes the next call of op panic.
func (f *Fake) PanicNext(op Op) {
	f.mu.Lock()
	f.panicOn[op] = true
	f.mu.Unlock()
}

// Overlaps returns how many calls started while another call was running.
func (f *Fake) Overlaps() int { return int(f.overlaps.Load()) }

// Calls returns the number of calls made so far, Close excluded.
func (f *Fake) Calls() int { return int(f.calls.Load()) }

// Closes returns how many times Close was called.
func (f *Fake) Closes() int { return int(f.closes.Load()) }

// Completed delivers the op of every finished call.
func (f *Fake) Completed() <-chan Op { return f.completed }

// AddNote registers a committed note and returns its id.
func (f *Fake) AddNote(target *ledger.AccountID, assets ...ledger.Asset) ledger.NoteID {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], uint64(len(f.notes)+1))
	id := ledger.NoteID(ledger.Keccak256([]byte("ledgertest/note"), ctr[:]))
	f.notes = append(f.notes, ledger.InputNote{
		ID:             id,
		Target:         target,
		Assets:         assets,
		InclusionBlock: f.block,
		Authenticated:  true,
		State:          ledger.NoteCommitted,
	})
	return id
}

// SetAssets replaces the vault of a tracked account.
func (f *Fake) SetAssets(id ledger.AccountID, assets ...ledger.Asset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.accounts {
		if f.accounts[i].ID == id {
			f.accounts[i].Assets = assets
			return nil
		}
	}
	return ledger.ErrAccountNotFound
}

// enter runs the shared instrumentation of every call and returns the
// function to defer.
func (f *Fake) enter(op Op) (exit func(), err error) {
	if !f.inFlight.CompareAndSwap(0, 1) {
		f.overlaps.Add(1)
		f.inFlight.Add(1)
	}
	f.calls.Add(1)

	f.mu.Lock()
	delay, hold := f.delay, f.hold
	injected := f.failNext[op]
	delete(f.failNext, op)
	shouldPanic := f.panicOn[op]
	delete(f.panicOn, op)
	f.mu.Unlock()

	exit = func() {
		f.inFlight.Add(-1)
		select {
		case f.completed <- op:
		default:
		}
	}

	if hold != nil {
		<-hold
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if shouldPanic {
		exit()
		panic(fmt.Sprintf("ledgertest: injected panic in %s", op))
	}
	return exit, injected
}

func (f *Fake) Sync(context.Context) (ledger.SyncSummary, error) {
	exit, err := f.enter(OpSync)
	defer exit()
	if err != nil {
		return ledger.SyncSummary{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block++
	return ledger.SyncSummary{BlockNum: f.block}, nil
}

func (f *Fake) CreateWallet(_ context.Context, seed [ledger.SeedLen]byte) (ledger.Account, error) {
	exit, err := f.enter(OpCreateWallet)
	defer exit()
	if err != nil {
		return ledger.Account{}, err
	}
	digest := ledger.Keccak256([]byte("ledgertest/account"), seed[:])
	var id ledger.AccountID
	copy(id[:], digest[:])

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.ID == id {
			return ledger.Account{}, fmt.Errorf("%w: account %s already tracked", ledger.ErrStore, id)
		}
	}
	acct := ledger.Account{AccountHeader: ledger.AccountHeader{ID: id, Kind: ledger.RegularAccountImmutableCode}}
	f.accounts = append(f.accounts, acct)
	return acct, nil
}

func (f *Fake) ListAccounts(context.Context) ([]ledger.AccountHeader, error) {
	exit, err := f.enter(OpListAccounts)
	defer exit()
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ledger.AccountHeader, len(f.accounts))
	for i, a := range f.accounts {
		out[i] = a.AccountHeader
	}
	return out, nil
}

func (f *Fake) GetAccount(_ context.Context, id ledger.AccountID) (ledger.Account, error) {
	exit, err := f.enter(OpGetAccount)
	defer exit()
	if err != nil {
		return ledger.Account{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.ID == id {
			a.Assets = append([]ledger.Asset(nil), a.Assets...)
			return a, nil
		}
	}
	return ledger.Account{}, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, id)
}

func (f *Fake) ListConsumableNotes(_ context.Context, account *ledger.AccountID) ([]ledger.InputNote, error) {
	exit, err := f.enter(OpListNotes)
	defer exit()
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ledger.InputNote
	for _, n := range f.notes {
		if n.State != ledger.NoteCommitted {
			continue
		}
		if account != nil && !n.ConsumableBy(*account) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *Fake) SubmitConsumeNotes(_ context.Context, account ledger.AccountID, notes []ledger.NoteID) (ledger.TxID, error) {
	exit, err := f.enter(OpConsumeNotes)
	defer exit()
	if err != nil {
		return ledger.TxID{}, err
	}
	if len(notes) == 0 {
		return ledger.TxID{}, fmt.Errorf("%w: no notes to consume", ledger.ErrTransactionRequest)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	idx := make([]int, 0, len(notes))
	for _, id := range notes {
		found := -1
		for i, n := range f.notes {
			if n.ID == id {
				found = i
				break
			}
		}
		if found < 0 || !f.notes[found].ConsumableBy(account) {
			return ledger.TxID{}, fmt.Errorf("%w: note %s not consumable", ledger.ErrTransactionRequest, id)
		}
		idx = append(idx, found)
	}
	for _, i := range idx {
		f.notes[i].State = ledger.NoteProcessing
	}
	f.txs++
	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], uint64(f.txs))
	return ledger.TxID(ledger.Keccak256([]byte("ledgertest/tx"), account[:], ctr[:])), nil
}

func (f *Fake) Close() error {
	f.closes.Add(1)
	return nil
}
