package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
	"github.com/walletcore/ledgerbridge-go/pkg/ledger/ledgertest"
)

func newTestBridge(t *testing.T, fake *ledgertest.Fake, cfg Config) *Bridge {
	t.Helper()
	cfg.Open = fake.Opener()
	b, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

// waitCalls waits until the fake has seen n calls.
func waitCalls(t *testing.T, fake *ledgertest.Fake, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for fake.Calls() < n {
		if time.Now().After(deadline) {
			t.Fatalf("fake saw %d calls, want %d", fake.Calls(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewReportsReady(t *testing.T) {
	fake := ledgertest.NewFake()
	b := newTestBridge(t, fake, Config{})
	if b.State() != StateReady {
		t.Fatalf("State() = %s, want ready", b.State())
	}
}

func TestNewInitFailure(t *testing.T) {
	fake := ledgertest.NewFake()
	cause := errors.New("store locked")
	fake.FailOpen(cause)

	_, err := New(context.Background(), Config{Open: fake.Opener()})
	if !errors.Is(err, ErrInitFailed) || !errors.Is(err, cause) {
		t.Fatalf("New error = %v, want ErrInitFailed wrapping cause", err)
	}
}

func TestNewRequiresPaths(t *testing.T) {
	_, err := New(context.Background(), Config{StorePath: "x.sqlite3"})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("New error = %v, want ErrInvalidParameter", err)
	}
}

func TestConcurrentCallsNeverOverlap(t *testing.T) {
	fake := ledgertest.NewFake()
	b := newTestBridge(t, fake, Config{})
	ctx := context.Background()

	acct, err := b.CreateWallet(ctx, [ledger.SeedLen]byte{42})
	if err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}

	const workers, perWorker = 16, 25
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				var err error
				switch (w + i) % 4 {
				case 0:
					_, err = b.Sync(ctx)
				case 1:
					_, err = b.Accounts(ctx)
				case 2:
					_, err = b.Balance(ctx, acct)
				case 3:
					_, err = b.InputNotes(ctx, nil)
				}
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent calls: %v", err)
	}
	if got := fake.Overlaps(); got != 0 {
		t.Fatalf("client saw %d overlapping calls", got)
	}
	if got, want := fake.Calls(), 1+workers*perWorker; got != want {
		t.Fatalf("client saw %d calls, want %d", got, want)
	}
}

func TestQueueFullFailsFast(t *testing.T) {
	fake := ledgertest.NewFake()
	b := newTestBridge(t, fake, Config{QueueCapacity: 4})
	release := fake.Hold()
	defer release()

	noop := func(ledger.SyncSummary, error) {}
	if err := b.SyncAsync(noop); err != nil {
		t.Fatalf("first SyncAsync: %v", err)
	}
	waitCalls(t, fake, 1)

	for i := 0; i < 3; i++ {
		if err := b.SyncAsync(noop); err != nil {
			t.Fatalf("SyncAsync %d: %v", i, err)
		}
	}
	if got := b.Queued(); got != 3 {
		t.Fatalf("Queued = %d, want 3", got)
	}

	start := time.Now()
	err := b.SyncAsync(noop)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("SyncAsync on full queue = %v, want ErrQueueFull", err)
	}
	if _, err := b.Sync(context.Background()); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Sync on full queue = %v, want ErrQueueFull", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("full-queue rejection took %v", elapsed)
	}
	if op, ok := OpOf(err); !ok || op != OpSync {
		t.Fatalf("OpOf = %v, %v", op, ok)
	}
}

func TestAsyncOverflowRejectsExcess(t *testing.T) {
	fake := ledgertest.NewFake()
	b := newTestBridge(t, fake, Config{})
	release := fake.Hold()

	var delivered atomic.Int32
	rejected := 0
	for i := 0; i < 300; i++ {
		err := b.SyncAsync(func(ledger.SyncSummary, error) { delivered.Add(1) })
		switch {
		case errors.Is(err, ErrQueueFull):
			rejected++
		case err != nil:
			t.Fatalf("SyncAsync %d: %v", i, err)
		}
	}
	if rejected < 300-DefaultQueueCapacity {
		t.Fatalf("rejected %d requests, want at least %d", rejected, 300-DefaultQueueCapacity)
	}

	release()
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := int(delivered.Load()); got != 300-rejected {
		t.Fatalf("delivered %d callbacks, want %d", got, 300-rejected)
	}
}

func TestTimeoutAbandonsWaitOnly(t *testing.T) {
	fake := ledgertest.NewFake()
	b := newTestBridge(t, fake, Config{CallTimeout: 20 * time.Millisecond})
	fake.SetDelay(200 * time.Millisecond)

	start := time.Now()
	_, err := b.Sync(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Sync error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed >= 200*time.Millisecond {
		t.Fatalf("timeout returned after %v, operation had not finished yet", elapsed)
	}

	select {
	case op := <-fake.Completed():
		if op != ledgertest.OpSync {
			t.Fatalf("completed op = %s", op)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("abandoned operation never completed")
	}
}

func TestCallerDeadlineWins(t *testing.T) {
	fake := ledgertest.NewFake()
	b := newTestBridge(t, fake, Config{})
	fake.SetDelay(200 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := b.Accounts(ctx); !errors.Is(err, ErrTimeout) {
		t.Fatalf("Accounts error = %v, want ErrTimeout", err)
	}
}

func TestCloseThenCallsFail(t *testing.T) {
	fake := ledgertest.NewFake()
	b := newTestBridge(t, fake, Config{})

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if b.State() != StateDestroyed {
		t.Fatalf("State() = %s after Close", b.State())
	}
	if err := b.Close(); !errors.Is(err, ErrClosed) {
		t.Fatalf("second Close = %v, want ErrClosed", err)
	}
	if _, err := b.Sync(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Sync after Close = %v, want ErrClosed", err)
	}
	if err := b.TestConnectionAsync(func(error) {}); !errors.Is(err, ErrClosed) {
		t.Fatalf("TestConnectionAsync after Close = %v, want ErrClosed", err)
	}
	if fake.Closes() != 1 {
		t.Fatalf("client closed %d times, want 1", fake.Closes())
	}
}

func TestCloseDrainsQueuedRequests(t *testing.T) {
	fake := ledgertest.NewFake()
	b := newTestBridge(t, fake, Config{})
	release := fake.Hold()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		if err := b.AccountsAsync(func([]ledger.AccountID, error) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}); err != nil {
			t.Fatalf("AccountsAsync %d: %v", i, err)
		}
	}

	closed := make(chan error, 1)
	go func() { closed <- b.Close() }()
	waitCalls(t, fake, 1)
	release()

	select {
	case err := <-closed:
		if err != nil {
			t.Fatalf("Close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Close did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 5 {
		t.Fatalf("%d callbacks ran before Close returned, want 5", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("callbacks out of order: %v", order)
		}
	}
}

func TestClientPanicBecomesError(t *testing.T) {
	fake := ledgertest.NewFake()
	b := newTestBridge(t, fake, Config{})
	fake.PanicNext(ledgertest.OpListAccounts)

	if _, err := b.Accounts(context.Background()); !errors.Is(err, ErrPanic) {
		t.Fatalf("Accounts error = %v, want ErrPanic", err)
	}
	if _, err := b.Accounts(context.Background()); err != nil {
		t.Fatalf("worker did not survive the panic: %v", err)
	}
}

func TestCallbackPanicDoesNotStopWorker(t *testing.T) {
	fake := ledgertest.NewFake()
	b := newTestBridge(t, fake, Config{})

	if err := b.SyncAsync(func(ledger.SyncSummary, error) { panic("callback bug") }); err != nil {
		t.Fatalf("SyncAsync: %v", err)
	}
	if _, err := b.Sync(context.Background()); err != nil {
		t.Fatalf("Sync after panicking callback: %v", err)
	}
}

func TestDomainErrorsCarryOp(t *testing.T) {
	fake := ledgertest.NewFake()
	b := newTestBridge(t, fake, Config{})

	_, err := b.Balance(context.Background(), ledger.AccountID{1})
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("Balance error = %v, want ErrAccountNotFound", err)
	}
	if op, ok := OpOf(err); !ok || op != OpGetBalance {
		t.Fatalf("OpOf = %v, %v; want get_balance", op, ok)
	}

	fake.FailNext(ledgertest.OpSync, ledger.ErrSync)
	err = b.TestConnection(context.Background())
	if !errors.Is(err, ledger.ErrSync) {
		t.Fatalf("TestConnection error = %v, want ErrSync", err)
	}
}

func TestAsyncResultsAndValidation(t *testing.T) {
	fake := ledgertest.NewFake()
	b := newTestBridge(t, fake, Config{})

	got := make(chan ledger.AccountID, 1)
	if err := b.CreateWalletAsync([ledger.SeedLen]byte{7}, func(id ledger.AccountID, err error) {
		if err != nil {
			t.Errorf("CreateWalletAsync callback: %v", err)
		}
		got <- id
	}); err != nil {
		t.Fatalf("CreateWalletAsync: %v", err)
	}

	var acct ledger.AccountID
	select {
	case acct = <-got:
	case <-time.After(2 * time.Second):
		t.Fatalf("callback not invoked")
	}

	note := fake.AddNote(&acct, ledger.FungibleAsset(ledger.AccountID{0xfa}, 3))
	txs := make(chan error, 1)
	if err := b.ConsumeNotesAsync(acct, []ledger.NoteID{note}, func(_ ledger.TxID, err error) { txs <- err }); err != nil {
		t.Fatalf("ConsumeNotesAsync: %v", err)
	}
	if err := <-txs; err != nil {
		t.Fatalf("consume callback error: %v", err)
	}

	if err := b.ConsumeNotesAsync(acct, nil, func(ledger.TxID, error) {}); !errors.Is(err, ErrInvalidNoteIDs) {
		t.Fatalf("empty note list = %v, want ErrInvalidNoteIDs", err)
	}
	if err := b.SyncAsync(nil); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("nil callback = %v, want ErrInvalidParameter", err)
	}
}
