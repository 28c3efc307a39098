// Package client is the concrete ledger client: a filesystem key store, a
// SQLite store and a node RPC connection behind ledger.ClientLibrary.
//
// A Client is not safe for concurrent use. pkg/bridge confines each Client to
// a single worker goroutine.
package client

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"

	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
	"github.com/walletcore/ledgerbridge-go/pkg/ledger/keystore"
	"github.com/walletcore/ledgerbridge-go/pkg/ledger/rpc"
	"github.com/walletcore/ledgerbridge-go/pkg/ledger/store"
	"github.com/walletcore/ledgerbridge-go/pkg/logging"
)

// Options configures Open.
type Options struct {
	// KeystorePath is the key store directory. Created when missing.
	KeystorePath string

	// StorePath is the SQLite database file. Parent directories are created.
	StorePath string

	// Endpoint is the node to talk to. Ignored when Node is set.
	Endpoint rpc.Endpoint

	// RPCTimeout bounds each node call. Zero selects rpc.DefaultTimeout.
	RPCTimeout time.Duration

	// DialOptions are appended to the defaults when dialing Endpoint.
	DialOptions []grpc.DialOption

	// Node, when set, is used instead of dialing Endpoint. The client takes
	// ownership and closes it.
	Node Node

	Logger logging.Logger
}

// Node is the node API the client depends on. *rpc.Client implements it.
type Node interface {
	SyncState(ctx context.Context, req *rpc.SyncStateRequest) (*rpc.SyncStateResponse, error)
	SubmitTransaction(ctx context.Context, req *rpc.SubmitTransactionRequest) (*rpc.SubmitTransactionResponse, error)
	Close() error
}

// Client implements ledger.ClientLibrary.
type Client struct {
	keys   *keystore.FilesystemKeyStore
	store  *store.Store
	node   Node
	log    logging.Logger
	closed bool
}

var _ ledger.ClientLibrary = (*Client)(nil)

// Open builds a client. Nothing is sent to the node until the first call.
func Open(ctx context.Context, opts Options) (*Client, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}

	keys, err := keystore.Open(opts.KeystorePath)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, opts.StorePath)
	if err != nil {
		return nil, err
	}

	node := opts.Node
	if node == nil {
		node, err = rpc.Dial(opts.Endpoint, opts.RPCTimeout, opts.DialOptions...)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	log.Debug(ctx, "ledger client opened",
		"keystore", keys.Dir(),
		"store", st.Path(),
		"endpoint", opts.Endpoint.String(),
	)
	return &Client{keys: keys, store: st, node: node, log: log}, nil
}

// Sync pulls notes, account updates and nullifiers since the last synced
// block and applies them to the store.
func (c *Client) Sync(ctx context.Context) (ledger.SyncSummary, error) {
	if c.closed {
		return ledger.SyncSummary{}, ledger.ErrClientClosed
	}

	from, err := c.store.BlockNum(ctx)
	if err != nil {
		return ledger.SyncSummary{}, err
	}
	headers, err := c.store.Accounts(ctx)
	if err != nil {
		return ledger.SyncSummary{}, err
	}
	req := &rpc.SyncStateRequest{BlockNum: from, AccountIDs: make([]string, len(headers))}
	for i, h := range headers {
		req.AccountIDs[i] = h.ID.Hex()
	}

	resp, err := c.node.SyncState(ctx, req)
	if err != nil {
		return ledger.SyncSummary{}, fmt.Errorf("%w: %v", ledger.ErrSync, err)
	}

	notes := make([]ledger.InputNote, 0, len(resp.Notes))
	for _, rec := range resp.Notes {
		n, err := noteFromRecord(rec)
		if err != nil {
			return ledger.SyncSummary{}, fmt.Errorf("%w: %v", ledger.ErrSync, err)
		}
		notes = append(notes, n)
	}
	created, err := c.store.UpsertNotes(ctx, notes)
	if err != nil {
		return ledger.SyncSummary{}, err
	}

	updated := 0
	for _, upd := range resp.Accounts {
		id, assets, err := accountUpdateFromRecord(upd)
		if err != nil {
			return ledger.SyncSummary{}, fmt.Errorf("%w: %v", ledger.ErrSync, err)
		}
		applied, err := c.store.ApplyAccountDelta(ctx, id, upd.Nonce, assets)
		if err != nil && !errors.Is(err, ledger.ErrAccountNotFound) {
			return ledger.SyncSummary{}, err
		}
		if applied {
			updated++
		}
	}

	nullifiers := make([]ledger.NoteID, 0, len(resp.Nullifiers))
	for _, s := range resp.Nullifiers {
		id, err := ledger.ParseNoteID(s)
		if err != nil {
			return ledger.SyncSummary{}, fmt.Errorf("%w: %v", ledger.ErrSync, err)
		}
		nullifiers = append(nullifiers, id)
	}
	consumed, err := c.store.SetNoteState(ctx, nullifiers, ledger.NoteConsumed, nil)
	if err != nil {
		return ledger.SyncSummary{}, err
	}

	if err := c.store.SetBlockNum(ctx, resp.ChainTip); err != nil {
		return ledger.SyncSummary{}, err
	}

	summary := ledger.SyncSummary{
		BlockNum:        resp.ChainTip,
		NewNotes:        created,
		ConsumedNotes:   consumed,
		UpdatedAccounts: updated,
	}
	c.log.Debug(ctx, "state synced",
		"from_block", from,
		"block_num", summary.BlockNum,
		"new_notes", summary.NewNotes,
		"consumed_notes", summary.ConsumedNotes,
		"updated_accounts", summary.UpdatedAccounts,
	)
	return summary, nil
}

// CreateWallet derives a signing key and account id from seed, stores the key
// and starts tracking the account.
func (c *Client) CreateWallet(ctx context.Context, seed [ledger.SeedLen]byte) (ledger.Account, error) {
	if c.closed {
		return ledger.Account{}, ledger.ErrClientClosed
	}

	key := keystore.DeriveKey(seed)
	defer key.Zero()

	commitment, err := c.keys.Add(key)
	if err != nil {
		return ledger.Account{}, err
	}

	acct := ledger.Account{AccountHeader: ledger.AccountHeader{
		ID:      deriveAccountID(seed, commitment),
		Kind:    ledger.RegularAccountImmutableCode,
		Storage: ledger.StoragePublic,
	}}
	rec := store.AccountRecord{Account: acct, KeyCommitment: commitment}
	if err := c.store.InsertAccount(ctx, rec); err != nil {
		return ledger.Account{}, err
	}

	c.log.Info(ctx, "wallet created", "account_id", acct.ID.Hex(), logging.Redacted("seed"))
	return acct, nil
}

// ListAccounts returns every tracked account header.
func (c *Client) ListAccounts(ctx context.Context) ([]ledger.AccountHeader, error) {
	if c.closed {
		return nil, ledger.ErrClientClosed
	}
	return c.store.Accounts(ctx)
}

// GetAccount returns a tracked account with its vault.
func (c *Client) GetAccount(ctx context.Context, id ledger.AccountID) (ledger.Account, error) {
	if c.closed {
		return ledger.Account{}, ledger.ErrClientClosed
	}
	rec, err := c.store.Account(ctx, id)
	if err != nil {
		return ledger.Account{}, err
	}
	return rec.Account, nil
}

// ListConsumableNotes returns committed notes consumable by account, or by
// any tracked account when account is nil.
func (c *Client) ListConsumableNotes(ctx context.Context, account *ledger.AccountID) ([]ledger.InputNote, error) {
	if c.closed {
		return nil, ledger.ErrClientClosed
	}
	return c.store.ConsumableNotes(ctx, account)
}

// SubmitConsumeNotes builds a transaction consuming notes into account, signs
// it with the account key and submits it. The notes stay in the processing
// state until a later sync observes their nullifiers.
func (c *Client) SubmitConsumeNotes(ctx context.Context, account ledger.AccountID, notes []ledger.NoteID) (ledger.TxID, error) {
	if c.closed {
		return ledger.TxID{}, ledger.ErrClientClosed
	}
	if len(notes) == 0 {
		return ledger.TxID{}, fmt.Errorf("%w: no notes to consume", ledger.ErrTransactionRequest)
	}

	rec, err := c.store.Account(ctx, account)
	if err != nil {
		return ledger.TxID{}, fmt.Errorf("%w: %w", ledger.ErrTransactionRequest, err)
	}
	stored, err := c.store.NotesByID(ctx, notes)
	if err != nil {
		return ledger.TxID{}, fmt.Errorf("%w: %w", ledger.ErrTransactionRequest, err)
	}
	for _, n := range stored {
		if !n.ConsumableBy(account) {
			return ledger.TxID{}, fmt.Errorf("%w: note %s is %s and not consumable by %s",
				ledger.ErrTransactionRequest, n.ID.Hex(), n.State, account.Hex())
		}
	}

	keyCommitment := keystore.Commitment(rec.KeyCommitment)
	pub, err := c.keys.PublicKey(keyCommitment)
	if err != nil {
		return ledger.TxID{}, fmt.Errorf("%w: %w", ledger.ErrTransactionRequest, err)
	}
	nonce := rec.Nonce + 1
	commitment := ledger.TransactionCommitment(account, nonce, notes)
	sig, err := c.keys.Sign(keyCommitment, commitment)
	if err != nil {
		return ledger.TxID{}, fmt.Errorf("%w: %w", ledger.ErrTransactionRequest, err)
	}

	req := &rpc.SubmitTransactionRequest{
		AccountID:  account.Hex(),
		Nonce:      nonce,
		NoteIDs:    make([]string, len(notes)),
		PublicKey:  hex.EncodeToString(pub.SerializeCompressed()),
		Commitment: hex.EncodeToString(commitment[:]),
		Signature:  hex.EncodeToString(sig),
	}
	for i, n := range notes {
		req.NoteIDs[i] = n.Hex()
	}

	resp, err := c.node.SubmitTransaction(ctx, req)
	if err != nil {
		return ledger.TxID{}, fmt.Errorf("%w: %v", ledger.ErrTransactionSubmit, err)
	}
	txID, err := ledger.ParseTxID(resp.TxID)
	if err != nil {
		return ledger.TxID{}, fmt.Errorf("%w: node returned %v", ledger.ErrTransactionSubmit, err)
	}

	if _, err := c.store.SetNoteState(ctx, notes, ledger.NoteProcessing, &txID); err != nil {
		return ledger.TxID{}, err
	}
	c.log.Info(ctx, "transaction submitted",
		"account_id", account.Hex(),
		"tx_id", txID.Hex(),
		"notes", len(notes),
		"block_num", resp.BlockNum,
	)
	return txID, nil
}

// Close releases the node connection and the store. It returns
// ledger.ErrClientClosed when called twice.
func (c *Client) Close() error {
	if c.closed {
		return ledger.ErrClientClosed
	}
	c.closed = true
	return errors.Join(c.node.Close(), c.store.Close())
}

func deriveAccountID(seed [ledger.SeedLen]byte, key keystore.Commitment) ledger.AccountID {
	digest := ledger.Keccak256([]byte("walletcore/account-id"), seed[:], key[:])
	var id ledger.AccountID
	copy(id[:], digest[:])
	return id
}

func noteFromRecord(rec rpc.NoteRecord) (ledger.InputNote, error) {
	id, err := ledger.ParseNoteID(rec.ID)
	if err != nil {
		return ledger.InputNote{}, err
	}
	n := ledger.InputNote{
		ID:             id,
		InclusionBlock: rec.BlockNum,
		Authenticated:  rec.BlockNum > 0,
		State:          ledger.NoteCommitted,
	}
	if rec.Target != "" {
		target, err := ledger.ParseAccountID(rec.Target)
		if err != nil {
			return ledger.InputNote{}, err
		}
		n.Target = &target
	}
	for _, a := range rec.Assets {
		asset, err := rpc.AssetFromRecord(a)
		if err != nil {
			return ledger.InputNote{}, err
		}
		n.Assets = append(n.Assets, asset)
	}
	return n, nil
}

func accountUpdateFromRecord(upd rpc.AccountUpdate) (ledger.AccountID, []ledger.Asset, error) {
	id, err := ledger.ParseAccountID(upd.ID)
	if err != nil {
		return ledger.AccountID{}, nil, err
	}
	assets := make([]ledger.Asset, 0, len(upd.Assets))
	for _, a := range upd.Assets {
		asset, err := rpc.AssetFromRecord(a)
		if err != nil {
			return ledger.AccountID{}, nil, err
		}
		assets = append(assets, asset)
	}
	return id, assets, nil
}
