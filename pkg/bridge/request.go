package bridge

import (
	"github.com/google/uuid"

	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
)

// Op identifies a request kind.
type Op uint8

// opInit labels errors raised while the worker opens the client.
const opInit Op = 0

const (
	OpSync Op = iota + 1
	OpTestConnection
	OpCreateWallet
	OpListAccounts
	OpGetBalance
	OpListNotes
	OpConsumeNotes
	opShutdown
)

func (op Op) String() string {
	switch op {
	case OpSync:
		return "sync"
	case OpTestConnection:
		return "test_connection"
	case OpCreateWallet:
		return "create_wallet"
	case OpListAccounts:
		return "get_accounts"
	case OpGetBalance:
		return "get_balance"
	case OpListNotes:
		return "get_input_notes"
	case OpConsumeNotes:
		return "consume_notes"
	case opShutdown:
		return "shutdown"
	case opInit:
		return "init"
	default:
		return "unknown"
	}
}

// request is one unit of work for the worker. Inputs are already parsed;
// exactly one completion is attached before it is queued.
type request struct {
	id      uuid.UUID
	op      Op
	seed    [ledger.SeedLen]byte
	account ledger.AccountID
	filter  *ledger.AccountID
	notes   []ledger.NoteID
	done    completion
}

// response carries the result of a request. Only the field matching the op
// is set.
type response struct {
	op       Op
	sync     ledger.SyncSummary
	account  ledger.AccountID
	accounts []ledger.AccountID
	balance  Balance
	notes    NoteList
	tx       ledger.TxID
	err      error
}

type completion interface {
	complete(response)
}

// replyChan is the completion of blocking calls. It has capacity 1, so the
// worker never blocks on a caller that already gave up.
type replyChan chan response

func (c replyChan) complete(r response) {
	select {
	case c <- r:
	default:
	}
}

// callback is the completion of async calls. It runs on the worker.
type callback func(response)

func (f callback) complete(r response) { f(r) }
