package capi

import (
	"context"
	"unicode/utf8"
	"unsafe"

	"github.com/walletcore/ledgerbridge-go/pkg/bridge"
	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
)

// Callbacks receive the user pointer given at submission untouched. They
// run on the bridge worker; a data callback owns buf and must release it
// with ReleaseBuffer. On failure buf is empty.
type (
	SyncCallback   func(userData unsafe.Pointer, st Status, blockNum uint32)
	StatusCallback func(userData unsafe.Pointer, st Status)
	DataCallback   func(userData unsafe.Pointer, st Status, buf Buffer)
)

// Sync synchronizes with the node. blockNum may be nil.
func Sync(h Handle, blockNum *uint32) (st Status) {
	defer recoverStatus(&st, StatusSyncFailed)
	b, st := lookup(h)
	if st != StatusOK {
		return st
	}
	sum, err := b.Sync(context.Background())
	if err != nil {
		return StatusFromError(err)
	}
	if blockNum != nil {
		*blockNum = sum.BlockNum
	}
	return StatusOK
}

// SyncAsync enqueues a sync and returns once it is queued.
func SyncAsync(h Handle, cb SyncCallback, userData unsafe.Pointer) (st Status) {
	defer recoverStatus(&st, StatusSyncFailed)
	if cb == nil {
		return StatusInvalidParam
	}
	b, st := lookup(h)
	if st != StatusOK {
		return st
	}
	return StatusFromError(b.SyncAsync(func(sum ledger.SyncSummary, err error) {
		cb(userData, StatusFromError(err), sum.BlockNum)
	}))
}

// TestConnection reports whether a sync with the node succeeds.
func TestConnection(h Handle) (st Status) {
	defer recoverStatus(&st, StatusSyncFailed)
	b, st := lookup(h)
	if st != StatusOK {
		return st
	}
	return StatusFromError(b.TestConnection(context.Background()))
}

// TestConnectionAsync enqueues a connection test.
func TestConnectionAsync(h Handle, cb StatusCallback, userData unsafe.Pointer) (st Status) {
	defer recoverStatus(&st, StatusSyncFailed)
	if cb == nil {
		return StatusInvalidParam
	}
	b, st := lookup(h)
	if st != StatusOK {
		return st
	}
	return StatusFromError(b.TestConnectionAsync(func(err error) {
		cb(userData, StatusFromError(err))
	}))
}

// CreateWallet creates a wallet and writes its hex account id to out. A nil
// seed selects a random one; otherwise it must be 32 bytes.
func CreateWallet(h Handle, seed []byte, out []byte, outLen *int) (st Status) {
	defer recoverStatus(&st, StatusAccountFailed)
	if outLen == nil {
		return StatusInvalidParam
	}
	b, st := lookup(h)
	if st != StatusOK {
		return st
	}
	s, err := bridge.SeedFrom(seed)
	if err != nil {
		return StatusFromError(err)
	}
	id, err := b.CreateWallet(context.Background(), s)
	if err != nil {
		return StatusFromError(err)
	}
	return writeOut([]byte(id.Hex()), out, outLen)
}

// CreateWalletAsync enqueues a wallet creation. The callback receives the
// hex account id.
func CreateWalletAsync(h Handle, seed []byte, cb DataCallback, userData unsafe.Pointer) (st Status) {
	defer recoverStatus(&st, StatusAccountFailed)
	if cb == nil {
		return StatusInvalidParam
	}
	b, st := lookup(h)
	if st != StatusOK {
		return st
	}
	s, err := bridge.SeedFrom(seed)
	if err != nil {
		return StatusFromError(err)
	}
	return StatusFromError(b.CreateWalletAsync(s, func(id ledger.AccountID, err error) {
		if err != nil {
			cb(userData, StatusFromError(err), Buffer{})
			return
		}
		deliverData(cb, userData, []byte(id.Hex()))
	}))
}

// GetAccounts writes the JSON array of tracked account ids to out.
func GetAccounts(h Handle, out []byte, outLen *int) (st Status) {
	defer recoverStatus(&st, StatusAccountFailed)
	if outLen == nil {
		return StatusInvalidParam
	}
	b, st := lookup(h)
	if st != StatusOK {
		return st
	}
	ids, err := b.Accounts(context.Background())
	if err != nil {
		return StatusFromError(err)
	}
	payload, err := bridge.MarshalAccounts(ids)
	if err != nil {
		return StatusAccountFailed
	}
	return writeOut(payload, out, outLen)
}

// GetAccountsAsync enqueues an account listing.
func GetAccountsAsync(h Handle, cb DataCallback, userData unsafe.Pointer) (st Status) {
	defer recoverStatus(&st, StatusAccountFailed)
	if cb == nil {
		return StatusInvalidParam
	}
	b, st := lookup(h)
	if st != StatusOK {
		return st
	}
	return StatusFromError(b.AccountsAsync(func(ids []ledger.AccountID, err error) {
		if err != nil {
			cb(userData, StatusFromError(err), Buffer{})
			return
		}
		payload, err := bridge.MarshalAccounts(ids)
		if err != nil {
			cb(userData, StatusAccountFailed, Buffer{})
			return
		}
		deliverData(cb, userData, payload)
	}))
}

// GetBalance writes the JSON balance of accountID to out.
func GetBalance(h Handle, accountID string, out []byte, outLen *int) (st Status) {
	defer recoverStatus(&st, StatusLookupFailed)
	if outLen == nil || !utf8.ValidString(accountID) {
		return StatusInvalidParam
	}
	b, st := lookup(h)
	if st != StatusOK {
		return st
	}
	id, err := bridge.ParseAccountID(accountID)
	if err != nil {
		return StatusFromError(err)
	}
	bal, err := b.Balance(context.Background(), id)
	if err != nil {
		return StatusFromError(err)
	}
	payload, err := bridge.MarshalBalance(bal)
	if err != nil {
		return StatusLookupFailed
	}
	return writeOut(payload, out, outLen)
}

// GetBalanceAsync enqueues a balance lookup.
func GetBalanceAsync(h Handle, accountID string, cb DataCallback, userData unsafe.Pointer) (st Status) {
	defer recoverStatus(&st, StatusLookupFailed)
	if cb == nil || !utf8.ValidString(accountID) {
		return StatusInvalidParam
	}
	b, st := lookup(h)
	if st != StatusOK {
		return st
	}
	id, err := bridge.ParseAccountID(accountID)
	if err != nil {
		return StatusFromError(err)
	}
	return StatusFromError(b.BalanceAsync(id, func(bal bridge.Balance, err error) {
		if err != nil {
			cb(userData, StatusFromError(err), Buffer{})
			return
		}
		payload, err := bridge.MarshalBalance(bal)
		if err != nil {
			cb(userData, StatusLookupFailed, Buffer{})
			return
		}
		deliverData(cb, userData, payload)
	}))
}

// GetInputNotes writes the JSON list of consumable notes to out. An empty
// accountID lists the notes of every tracked account.
func GetInputNotes(h Handle, accountID string, out []byte, outLen *int) (st Status) {
	defer recoverStatus(&st, StatusNoteFailed)
	if outLen == nil || !utf8.ValidString(accountID) {
		return StatusInvalidParam
	}
	b, st := lookup(h)
	if st != StatusOK {
		return st
	}
	filter, err := bridge.ParseAccountFilter(accountID)
	if err != nil {
		return StatusFromError(err)
	}
	notes, err := b.InputNotes(context.Background(), filter)
	if err != nil {
		return StatusFromError(err)
	}
	payload, err := bridge.MarshalNotes(notes)
	if err != nil {
		return StatusNoteFailed
	}
	return writeOut(payload, out, outLen)
}

// GetInputNotesAsync enqueues a note listing.
func GetInputNotesAsync(h Handle, accountID string, cb DataCallback, userData unsafe.Pointer) (st Status) {
	defer recoverStatus(&st, StatusNoteFailed)
	if cb == nil || !utf8.ValidString(accountID) {
		return StatusInvalidParam
	}
	b, st := lookup(h)
	if st != StatusOK {
		return st
	}
	filter, err := bridge.ParseAccountFilter(accountID)
	if err != nil {
		return StatusFromError(err)
	}
	return StatusFromError(b.InputNotesAsync(filter, func(notes bridge.NoteList, err error) {
		if err != nil {
			cb(userData, StatusFromError(err), Buffer{})
			return
		}
		payload, err := bridge.MarshalNotes(notes)
		if err != nil {
			cb(userData, StatusNoteFailed, Buffer{})
			return
		}
		deliverData(cb, userData, payload)
	}))
}

// ConsumeNotes consumes the notes listed in noteIDsJSON, a JSON array of hex
// note ids, into accountID and writes the hex transaction id to out.
func ConsumeNotes(h Handle, accountID, noteIDsJSON string, out []byte, outLen *int) (st Status) {
	defer recoverStatus(&st, StatusSubmitFailed)
	if outLen == nil || !utf8.ValidString(accountID) || !utf8.ValidString(noteIDsJSON) {
		return StatusInvalidParam
	}
	b, st := lookup(h)
	if st != StatusOK {
		return st
	}
	id, notes, st := parseConsume(accountID, noteIDsJSON)
	if st != StatusOK {
		return st
	}
	tx, err := b.ConsumeNotes(context.Background(), id, notes)
	if err != nil {
		return StatusFromError(err)
	}
	return writeOut([]byte(tx.Hex()), out, outLen)
}

// ConsumeNotesAsync enqueues a consume-notes transaction. The callback
// receives the hex transaction id.
func ConsumeNotesAsync(h Handle, accountID, noteIDsJSON string, cb DataCallback, userData unsafe.Pointer) (st Status) {
	defer recoverStatus(&st, StatusSubmitFailed)
	if cb == nil || !utf8.ValidString(accountID) || !utf8.ValidString(noteIDsJSON) {
		return StatusInvalidParam
	}
	b, st := lookup(h)
	if st != StatusOK {
		return st
	}
	id, notes, st := parseConsume(accountID, noteIDsJSON)
	if st != StatusOK {
		return st
	}
	return StatusFromError(b.ConsumeNotesAsync(id, notes, func(tx ledger.TxID, err error) {
		if err != nil {
			cb(userData, StatusFromError(err), Buffer{})
			return
		}
		deliverData(cb, userData, []byte(tx.Hex()))
	}))
}

func parseConsume(accountID, noteIDsJSON string) (ledger.AccountID, []ledger.NoteID, Status) {
	id, err := bridge.ParseAccountID(accountID)
	if err != nil {
		return ledger.AccountID{}, nil, StatusFromError(err)
	}
	notes, err := bridge.ParseNoteIDs(noteIDsJSON)
	if err != nil {
		return ledger.AccountID{}, nil, StatusFromError(err)
	}
	return id, notes, StatusOK
}

// deliverData hands payload to cb in a freshly allocated buffer.
func deliverData(cb DataCallback, userData unsafe.Pointer, payload []byte) {
	buf, err := NewBuffer(payload)
	if err != nil {
		cb(userData, StatusInvalidParam, Buffer{})
		return
	}
	cb(userData, StatusOK, buf)
}
