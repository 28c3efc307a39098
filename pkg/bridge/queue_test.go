package bridge

import (
	"errors"
	"testing"
)

func TestQueueAdmission(t *testing.T) {
	q := newQueue(2)
	if err := q.push(&request{op: OpSync}); err != nil {
		t.Fatalf("push 1: %v", err)
	}
	if err := q.push(&request{op: OpListAccounts}); err != nil {
		t.Fatalf("push 2: %v", err)
	}
	if err := q.push(&request{op: OpSync}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("push 3 = %v, want ErrQueueFull", err)
	}

	r, ok := q.pop()
	if !ok || r.op != OpSync {
		t.Fatalf("pop = %v, %v", r, ok)
	}
	// Popped but not yet done still holds its slot.
	if err := q.push(&request{op: OpSync}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("push before done = %v, want ErrQueueFull", err)
	}
	q.done()
	if err := q.push(&request{op: OpGetBalance}); err != nil {
		t.Fatalf("push after done: %v", err)
	}
	if q.queued() != 2 {
		t.Fatalf("queued() = %d, want 2", q.queued())
	}
}

func TestQueueShutdownDrainsInOrder(t *testing.T) {
	q := newQueue(2)
	_ = q.push(&request{op: OpListAccounts})
	_ = q.push(&request{op: OpGetBalance})

	if !q.shutdown() {
		t.Fatalf("first shutdown reported already closed")
	}
	if q.shutdown() {
		t.Fatalf("second shutdown reported closing")
	}
	if err := q.push(&request{op: OpSync}); !errors.Is(err, ErrClosed) {
		t.Fatalf("push after shutdown = %v, want ErrClosed", err)
	}

	want := []Op{OpListAccounts, OpGetBalance, opShutdown}
	for i, op := range want {
		r, ok := q.pop()
		if !ok || r.op != op {
			t.Fatalf("pop %d = %v, %v; want %s", i, r, ok, op)
		}
	}
	if _, ok := q.pop(); ok {
		t.Fatalf("pop after drain succeeded")
	}
}
