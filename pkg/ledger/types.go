package ledger

// AssetKind distinguishes fungible from non-fungible assets.
type AssetKind uint8

const (
	AssetFungible AssetKind = iota
	AssetNonFungible
)

// Asset is a vault entry. Fungible assets carry an amount; non-fungible
// assets carry a commitment to their data.
type Asset struct {
	Kind       AssetKind
	Faucet     AccountID
	Amount     uint64
	Commitment [DigestLen]byte
}

// FungibleAsset returns a fungible asset of amount issued by faucet.
func FungibleAsset(faucet AccountID, amount uint64) Asset {
	return Asset{Kind: AssetFungible, Faucet: faucet, Amount: amount}
}

// NonFungibleAsset returns a non-fungible asset issued by faucet.
func NonFungibleAsset(faucet AccountID, commitment [DigestLen]byte) Asset {
	return Asset{Kind: AssetNonFungible, Faucet: faucet, Commitment: commitment}
}

// IsFungible reports whether the asset is fungible.
func (a Asset) IsFungible() bool { return a.Kind == AssetFungible }

// StorageMode controls whether account state is published on chain.
type StorageMode uint8

const (
	StoragePublic StorageMode = iota
	StoragePrivate
)

func (m StorageMode) String() string {
	if m == StoragePrivate {
		return "private"
	}
	return "public"
}

// AccountKind is the account type.
type AccountKind uint8

const (
	RegularAccountImmutableCode AccountKind = iota
	RegularAccountUpdatableCode
	FungibleFaucet
)

// AccountHeader is the summary stored for every tracked account.
type AccountHeader struct {
	ID      AccountID
	Nonce   uint64
	Kind    AccountKind
	Storage StorageMode
}

// Account is a tracked account together with its vault.
type Account struct {
	AccountHeader
	Assets []Asset
}

// NoteState is the local lifecycle of an input note.
type NoteState uint8

const (
	NoteExpected NoteState = iota
	NoteCommitted
	NoteProcessing
	NoteConsumed
)

func (s NoteState) String() string {
	switch s {
	case NoteExpected:
		return "expected"
	case NoteCommitted:
		return "committed"
	case NoteProcessing:
		return "processing"
	case NoteConsumed:
		return "consumed"
	default:
		return "unknown"
	}
}

// InputNote is a note the client can consume.
type InputNote struct {
	ID NoteID
	// Target restricts consumption to one account. Nil means any account.
	Target *AccountID
	Assets []Asset
	// InclusionBlock is the block the note was committed in, or 0.
	InclusionBlock uint32
	// Authenticated reports whether the client holds an inclusion proof.
	Authenticated bool
	State         NoteState
}

// ConsumableBy reports whether id may consume the note now.
func (n InputNote) ConsumableBy(id AccountID) bool {
	if n.State != NoteCommitted {
		return false
	}
	return n.Target == nil || *n.Target == id
}

// SyncSummary describes the result of a state sync.
type SyncSummary struct {
	BlockNum        uint32
	NewNotes        int
	ConsumedNotes   int
	UpdatedAccounts int
}
