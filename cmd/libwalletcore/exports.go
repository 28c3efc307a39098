//go:build cgo

package main

/*
#include <stdlib.h>
#include "walletcore.h"
*/
import "C"

import (
	"unsafe"

	"github.com/walletcore/ledgerbridge-go/pkg/capi"
)

var versionCString = C.CString(capi.Version())

func status(st capi.Status) C.int32_t { return C.int32_t(st) }

// callerBuffer runs fn over the caller buffer out of capacity *outLen and
// stores the written or required length back into *outLen. A NULL out is
// accepted with a zero capacity to query the size.
func callerBuffer(out *C.uint8_t, outLen *C.size_t, fn func([]byte, *int) capi.Status) C.int32_t {
	if outLen == nil {
		return status(capi.StatusInvalidParam)
	}
	var buf []byte
	if out != nil {
		buf = unsafe.Slice((*byte)(unsafe.Pointer(out)), int(*outLen))
	} else if *outLen != 0 {
		return status(capi.StatusInvalidParam)
	}
	n := 0
	st := fn(buf, &n)
	if st == capi.StatusOK || n > 0 {
		*outLen = C.size_t(n)
	}
	return status(st)
}

func goString(s *C.char) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

func goSeed(seed *C.uint8_t, n C.size_t) []byte {
	if seed == nil {
		return nil
	}
	out := make([]byte, int(n))
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(seed)), int(n)))
	return out
}

//export wc_ledger_create
func wc_ledger_create(keystorePath, storePath, endpoint *C.char, handleOut *C.uintptr_t) C.int32_t {
	if keystorePath == nil || storePath == nil || handleOut == nil {
		return status(capi.StatusInvalidParam)
	}
	var ep *string
	if endpoint != nil {
		s := C.GoString(endpoint)
		ep = &s
	}
	var h capi.Handle
	st := capi.Create(C.GoString(keystorePath), C.GoString(storePath), ep, &h)
	*handleOut = C.uintptr_t(h)
	return status(st)
}

//export wc_ledger_destroy
func wc_ledger_destroy(handle *C.uintptr_t) {
	if handle == nil {
		return
	}
	h := capi.Handle(*handle)
	*handle = 0
	capi.Destroy(&h)
}

//export wc_ledger_sync
func wc_ledger_sync(h C.uintptr_t, blockNumOut *C.uint32_t) C.int32_t {
	var block uint32
	st := capi.Sync(capi.Handle(h), &block)
	if st == capi.StatusOK && blockNumOut != nil {
		*blockNumOut = C.uint32_t(block)
	}
	return status(st)
}

//export wc_ledger_sync_async
func wc_ledger_sync_async(h C.uintptr_t, cb C.wc_sync_cb, userData unsafe.Pointer) C.int32_t {
	if cb == nil {
		return status(capi.StatusInvalidParam)
	}
	return status(capi.SyncAsync(capi.Handle(h), syncCallback(cb), userData))
}

//export wc_ledger_test_connection
func wc_ledger_test_connection(h C.uintptr_t) C.int32_t {
	return status(capi.TestConnection(capi.Handle(h)))
}

//export wc_ledger_test_connection_async
func wc_ledger_test_connection_async(h C.uintptr_t, cb C.wc_status_cb, userData unsafe.Pointer) C.int32_t {
	if cb == nil {
		return status(capi.StatusInvalidParam)
	}
	return status(capi.TestConnectionAsync(capi.Handle(h), statusCallback(cb), userData))
}

//export wc_ledger_create_wallet
func wc_ledger_create_wallet(h C.uintptr_t, seed *C.uint8_t, seedLen C.size_t, out *C.uint8_t, outLen *C.size_t) C.int32_t {
	s := goSeed(seed, seedLen)
	return callerBuffer(out, outLen, func(buf []byte, n *int) capi.Status {
		return capi.CreateWallet(capi.Handle(h), s, buf, n)
	})
}

//export wc_ledger_create_wallet_async
func wc_ledger_create_wallet_async(h C.uintptr_t, seed *C.uint8_t, seedLen C.size_t, cb C.wc_data_cb, userData unsafe.Pointer) C.int32_t {
	if cb == nil {
		return status(capi.StatusInvalidParam)
	}
	return status(capi.CreateWalletAsync(capi.Handle(h), goSeed(seed, seedLen), dataCallback(cb), userData))
}

//export wc_ledger_get_accounts
func wc_ledger_get_accounts(h C.uintptr_t, out *C.uint8_t, outLen *C.size_t) C.int32_t {
	return callerBuffer(out, outLen, func(buf []byte, n *int) capi.Status {
		return capi.GetAccounts(capi.Handle(h), buf, n)
	})
}

//export wc_ledger_get_accounts_async
func wc_ledger_get_accounts_async(h C.uintptr_t, cb C.wc_data_cb, userData unsafe.Pointer) C.int32_t {
	if cb == nil {
		return status(capi.StatusInvalidParam)
	}
	return status(capi.GetAccountsAsync(capi.Handle(h), dataCallback(cb), userData))
}

//export wc_ledger_get_balance
func wc_ledger_get_balance(h C.uintptr_t, accountID *C.char, out *C.uint8_t, outLen *C.size_t) C.int32_t {
	if accountID == nil {
		return status(capi.StatusInvalidParam)
	}
	id := C.GoString(accountID)
	return callerBuffer(out, outLen, func(buf []byte, n *int) capi.Status {
		return capi.GetBalance(capi.Handle(h), id, buf, n)
	})
}

//export wc_ledger_get_balance_async
func wc_ledger_get_balance_async(h C.uintptr_t, accountID *C.char, cb C.wc_data_cb, userData unsafe.Pointer) C.int32_t {
	if accountID == nil || cb == nil {
		return status(capi.StatusInvalidParam)
	}
	return status(capi.GetBalanceAsync(capi.Handle(h), C.GoString(accountID), dataCallback(cb), userData))
}

//export wc_ledger_get_input_notes
func wc_ledger_get_input_notes(h C.uintptr_t, accountID *C.char, out *C.uint8_t, outLen *C.size_t) C.int32_t {
	id := goString(accountID)
	return callerBuffer(out, outLen, func(buf []byte, n *int) capi.Status {
		return capi.GetInputNotes(capi.Handle(h), id, buf, n)
	})
}

//export wc_ledger_get_input_notes_async
func wc_ledger_get_input_notes_async(h C.uintptr_t, accountID *C.char, cb C.wc_data_cb, userData unsafe.Pointer) C.int32_t {
	if cb == nil {
		return status(capi.StatusInvalidParam)
	}
	return status(capi.GetInputNotesAsync(capi.Handle(h), goString(accountID), dataCallback(cb), userData))
}

//export wc_ledger_consume_notes
func wc_ledger_consume_notes(h C.uintptr_t, accountID, noteIDsJSON *C.char, out *C.uint8_t, outLen *C.size_t) C.int32_t {
	if accountID == nil || noteIDsJSON == nil {
		return status(capi.StatusInvalidParam)
	}
	id, notes := C.GoString(accountID), C.GoString(noteIDsJSON)
	return callerBuffer(out, outLen, func(buf []byte, n *int) capi.Status {
		return capi.ConsumeNotes(capi.Handle(h), id, notes, buf, n)
	})
}

//export wc_ledger_consume_notes_async
func wc_ledger_consume_notes_async(h C.uintptr_t, accountID, noteIDsJSON *C.char, cb C.wc_data_cb, userData unsafe.Pointer) C.int32_t {
	if accountID == nil || noteIDsJSON == nil || cb == nil {
		return status(capi.StatusInvalidParam)
	}
	return status(capi.ConsumeNotesAsync(capi.Handle(h), C.GoString(accountID), C.GoString(noteIDsJSON), dataCallback(cb), userData))
}

//export wc_bytes_free
func wc_bytes_free(ptr *C.uint8_t, n C.size_t) {
	capi.ReleaseBuffer(unsafe.Pointer(ptr), int(n))
}

//export wc_keccak256
func wc_keccak256(data *C.uint8_t, n C.size_t, out *C.uint8_t, outLen *C.size_t) C.int32_t {
	if data == nil {
		return status(capi.StatusInvalidParam)
	}
	in := unsafe.Slice((*byte)(unsafe.Pointer(data)), int(n))
	return callerBuffer(out, outLen, func(buf []byte, written *int) capi.Status {
		return capi.Keccak256(in, buf, written)
	})
}

//export wc_ledger_account_id_to_hex
func wc_ledger_account_id_to_hex(id *C.uint8_t, n C.size_t, out *C.uint8_t, outLen *C.size_t) C.int32_t {
	if id == nil {
		return status(capi.StatusInvalidParam)
	}
	in := unsafe.Slice((*byte)(unsafe.Pointer(id)), int(n))
	return callerBuffer(out, outLen, func(buf []byte, written *int) capi.Status {
		return capi.AccountIDToHex(in, buf, written)
	})
}

//export wc_version
func wc_version() *C.char {
	return versionCString
}
