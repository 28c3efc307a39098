package ledger

import "context"

// SeedLen is the byte length of a wallet seed.
const SeedLen = 32

// ClientLibrary is the stateful ledger client. Implementations own a network
// session, a local store and a key store, and are not safe for concurrent use.
type ClientLibrary interface {
	// Sync brings local state up to date with the node.
	Sync(ctx context.Context) (SyncSummary, error)

	// CreateWallet creates and tracks a new wallet account derived from seed.
	CreateWallet(ctx context.Context, seed [SeedLen]byte) (Account, error)

	// ListAccounts returns the headers of every tracked account.
	ListAccounts(ctx context.Context) ([]AccountHeader, error)

	// GetAccount returns a tracked account or ErrAccountNotFound.
	GetAccount(ctx context.Context, id AccountID) (Account, error)

	// ListConsumableNotes returns notes consumable by account, or by any
	// tracked account when account is nil.
	ListConsumableNotes(ctx context.Context, account *AccountID) ([]InputNote, error)

	// SubmitConsumeNotes builds, signs and submits a transaction consuming
	// notes into account.
	SubmitConsumeNotes(ctx context.Context, account AccountID, notes []NoteID) (TxID, error)

	// Close releases every resource held by the client.
	Close() error
}
