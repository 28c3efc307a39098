package ledger

import "errors"

var (
	// ErrInvalidID indicates an identifier could not be parsed.
	ErrInvalidID = errors.New("ledger: invalid identifier")

	// ErrAccountNotFound indicates the account is not tracked by the client.
	ErrAccountNotFound = errors.New("ledger: account not found")

	// ErrNoteNotFound indicates a requested input note is unknown.
	ErrNoteNotFound = errors.New("ledger: note not found")

	// ErrTransactionRequest indicates a transaction request could not be built.
	ErrTransactionRequest = errors.New("ledger: transaction request failed")

	// ErrTransactionSubmit indicates the node rejected a transaction.
	ErrTransactionSubmit = errors.New("ledger: transaction submission failed")

	// ErrKeyStore indicates a key could not be created, stored or loaded.
	ErrKeyStore = errors.New("ledger: key store failure")

	// ErrStore indicates the local store could not be read or written.
	ErrStore = errors.New("ledger: store failure")

	// ErrSync indicates state synchronization with the node failed.
	ErrSync = errors.New("ledger: sync failed")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("ledger: client closed")
)
