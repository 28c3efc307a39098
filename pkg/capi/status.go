package capi

import (
	"errors"
	"strconv"

	"github.com/walletcore/ledgerbridge-go/pkg/bridge"
	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
)

// Status is the int32 result code of every exported function.
type Status int32

const (
	StatusOK            Status = 0
	StatusInvalidParam  Status = -1
	StatusInvalidHandle Status = -2
	StatusAccountFailed Status = -3
	StatusNoteFailed    Status = -4
	StatusLookupFailed  Status = -5
	StatusSubmitFailed  Status = -6
	StatusSyncFailed    Status = -7
	StatusQueueFull     Status = -8
	StatusTimeout       Status = -99

	// StatusInitFailed is reported by Create when the client cannot be
	// opened. It shares its value with StatusInvalidHandle.
	StatusInitFailed = StatusInvalidHandle
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidParam:
		return "invalid parameter"
	case StatusInvalidHandle:
		return "invalid handle"
	case StatusAccountFailed:
		return "account operation failed"
	case StatusNoteFailed:
		return "note operation failed"
	case StatusLookupFailed:
		return "lookup failed"
	case StatusSubmitFailed:
		return "transaction submission failed"
	case StatusSyncFailed:
		return "sync failed"
	case StatusQueueFull:
		return "queue full"
	case StatusTimeout:
		return "timeout"
	default:
		return "status(" + strconv.Itoa(int(s)) + ")"
	}
}

// StatusFromError classifies err. Argument, handle, queue and timeout errors
// have fixed codes. Wallet creation and the account and note listings report
// any other failure with the code of their operation; the remaining
// operations classify by cause and fall back to the code of the operation
// recorded in err.
func StatusFromError(err error) Status {
	op, _ := bridge.OpOf(err)
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, bridge.ErrInvalidParameter), errors.Is(err, ledger.ErrInvalidID):
		return StatusInvalidParam
	case errors.Is(err, bridge.ErrClosed), errors.Is(err, bridge.ErrInitFailed), errors.Is(err, ledger.ErrClientClosed):
		return StatusInvalidHandle
	case errors.Is(err, bridge.ErrQueueFull):
		return StatusQueueFull
	case errors.Is(err, bridge.ErrTimeout):
		return StatusTimeout
	case errors.Is(err, bridge.ErrInvalidAccountID):
		return StatusAccountFailed
	case errors.Is(err, bridge.ErrInvalidNoteIDs):
		return StatusNoteFailed
	case op == bridge.OpCreateWallet, op == bridge.OpListAccounts, op == bridge.OpListNotes:
		return opFailure(op)
	case errors.Is(err, ledger.ErrTransactionSubmit):
		return StatusSubmitFailed
	case errors.Is(err, ledger.ErrTransactionRequest), errors.Is(err, ledger.ErrAccountNotFound):
		return StatusLookupFailed
	case errors.Is(err, ledger.ErrNoteNotFound):
		return StatusNoteFailed
	case errors.Is(err, ledger.ErrSync):
		return StatusSyncFailed
	case errors.Is(err, ledger.ErrKeyStore):
		return StatusAccountFailed
	case errors.Is(err, ledger.ErrStore):
		return StatusLookupFailed
	}
	return opFailure(op)
}

func opFailure(op bridge.Op) Status {
	switch op {
	case bridge.OpSync, bridge.OpTestConnection:
		return StatusSyncFailed
	case bridge.OpCreateWallet, bridge.OpListAccounts:
		return StatusAccountFailed
	case bridge.OpGetBalance:
		return StatusLookupFailed
	case bridge.OpListNotes:
		return StatusNoteFailed
	case bridge.OpConsumeNotes:
		return StatusSubmitFailed
	default:
		return StatusInvalidHandle
	}
}
