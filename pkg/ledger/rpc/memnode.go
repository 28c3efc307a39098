package rpc

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
)

// MemNode is an in-memory node. Every mint and every accepted transaction
// produces one block. It is safe for concurrent use.
type MemNode struct {
	mu        sync.Mutex
	block     uint32
	minted    uint64
	notes     []NoteRecord
	nullified map[string]uint32
	accounts  map[string]*memAccount
	reject    error
}

type memAccount struct {
	nonce  uint64
	assets []AssetRecord
	pubKey string
	block  uint32
}

var _ NodeServer = (*MemNode)(nil)

// NewMemNode returns an empty node at block 0.
func NewMemNode() *MemNode {
	return &MemNode{
		nullified: make(map[string]uint32),
		accounts:  make(map[string]*memAccount),
	}
}

// ChainTip returns the latest block number.
func (n *MemNode) ChainTip() uint32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.block
}

// Mint commits a new note carrying assets. A nil target lets any account
// consume it.
func (n *MemNode) Mint(target *ledger.AccountID, assets ...ledger.Asset) ledger.NoteID {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.block++
	n.minted++
	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], n.minted)
	id := ledger.NoteID(ledger.Keccak256([]byte("walletcore/memnode-note"), ctr[:]))

	rec := NoteRecord{ID: id.Hex(), BlockNum: n.block}
	if target != nil {
		rec.Target = target.Hex()
	}
	for _, a := range assets {
		rec.Assets = append(rec.Assets, AssetToRecord(a))
	}
	n.notes = append(n.notes, rec)
	return id
}

// RejectSubmissions makes every later SubmitTransaction fail with err. A nil
// err restores normal behaviour.
func (n *MemNode) RejectSubmissions(err error) {
	n.mu.Lock()
	n.reject = err
	n.mu.Unlock()
}

func (n *MemNode) SyncState(_ context.Context, req *SyncStateRequest) (*SyncStateResponse, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if req.BlockNum > n.block {
		return nil, status.Errorf(codes.OutOfRange, "block %d is ahead of chain tip %d", req.BlockNum, n.block)
	}

	wanted := make(map[string]bool, len(req.AccountIDs))
	for _, id := range req.AccountIDs {
		wanted[id] = true
	}

	resp := &SyncStateResponse{ChainTip: n.block}
	for _, note := range n.notes {
		if note.BlockNum <= req.BlockNum {
			continue
		}
		if note.Target != "" && !wanted[note.Target] {
			continue
		}
		resp.Notes = append(resp.Notes, note)
	}
	for id := range wanted {
		acct, ok := n.accounts[id]
		if !ok || acct.block <= req.BlockNum {
			continue
		}
		resp.Accounts = append(resp.Accounts, AccountUpdate{
			ID:       id,
			Nonce:    acct.nonce,
			Assets:   append([]AssetRecord(nil), acct.assets...),
			BlockNum: acct.block,
		})
	}
	for id, block := range n.nullified {
		if block > req.BlockNum {
			resp.Nullifiers = append(resp.Nullifiers, id)
		}
	}
	return resp, nil
}

func (n *MemNode) SubmitTransaction(_ context.Context, req *SubmitTransactionRequest) (*SubmitTransactionResponse, error) {
	account, err := ledger.ParseAccountID(req.AccountID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	notes := make([]ledger.NoteID, len(req.NoteIDs))
	for i, s := range req.NoteIDs {
		if notes[i], err = ledger.ParseNoteID(s); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "%v", err)
		}
	}
	if len(notes) == 0 {
		return nil, status.Error(codes.InvalidArgument, "transaction consumes no notes")
	}
	pubBytes, err := hex.DecodeString(req.PublicKey)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed public key")
	}
	pub, err := btcec.ParsePubKey(pubBytes)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "parse public key: %v", err)
	}
	sigBytes, err := hex.DecodeString(req.Signature)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed signature")
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "parse signature: %v", err)
	}

	commitment := ledger.TransactionCommitment(account, req.Nonce, notes)
	if hex.EncodeToString(commitment[:]) != req.Commitment {
		return nil, status.Error(codes.InvalidArgument, "commitment does not match transaction")
	}
	if !sig.Verify(commitment[:], pub) {
		return nil, status.Error(codes.Unauthenticated, "invalid signature")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.reject != nil {
		return nil, status.Errorf(codes.Unavailable, "%v", n.reject)
	}

	acct := n.accounts[req.AccountID]
	if acct == nil {
		acct = &memAccount{}
	}
	if acct.pubKey != "" && acct.pubKey != req.PublicKey {
		return nil, status.Error(codes.PermissionDenied, "public key does not control account")
	}
	if req.Nonce != acct.nonce+1 {
		return nil, status.Errorf(codes.FailedPrecondition, "nonce %d, want %d", req.Nonce, acct.nonce+1)
	}

	consumed := make([]NoteRecord, 0, len(req.NoteIDs))
	seen := make(map[string]bool, len(req.NoteIDs))
	for _, id := range req.NoteIDs {
		note, ok := n.findNote(id)
		switch {
		case !ok:
			return nil, status.Errorf(codes.NotFound, "note %s not found", id)
		case seen[id]:
			return nil, status.Errorf(codes.InvalidArgument, "note %s listed twice", id)
		case n.nullified[id] != 0:
			return nil, status.Errorf(codes.FailedPrecondition, "note %s already consumed", id)
		case note.Target != "" && note.Target != req.AccountID:
			return nil, status.Errorf(codes.PermissionDenied, "note %s targets another account", id)
		}
		seen[id] = true
		consumed = append(consumed, note)
	}

	n.block++
	for _, note := range consumed {
		n.nullified[note.ID] = n.block
		for _, a := range note.Assets {
			acct.assets = addAsset(acct.assets, a)
		}
	}
	acct.nonce = req.Nonce
	acct.pubKey = req.PublicKey
	acct.block = n.block
	n.accounts[req.AccountID] = acct

	txID := ledger.TransactionID(commitment, sigBytes)
	return &SubmitTransactionResponse{TxID: txID.Hex(), BlockNum: n.block}, nil
}

func (n *MemNode) findNote(id string) (NoteRecord, bool) {
	for _, note := range n.notes {
		if note.ID == id {
			return note, true
		}
	}
	return NoteRecord{}, false
}

func addAsset(vault []AssetRecord, a AssetRecord) []AssetRecord {
	if a.Commitment == "" {
		for i := range vault {
			if vault[i].Commitment == "" && vault[i].FaucetID == a.FaucetID {
				vault[i].Amount += a.Amount
				return vault
			}
		}
	}
	return append(vault, a)
}

// AssetToRecord converts a domain asset to its wire form.
func AssetToRecord(a ledger.Asset) AssetRecord {
	rec := AssetRecord{FaucetID: a.Faucet.Hex()}
	if a.IsFungible() {
		rec.Amount = a.Amount
	} else {
		rec.Commitment = hex.EncodeToString(a.Commitment[:])
	}
	return rec
}

// AssetFromRecord converts a wire asset to the domain type.
func AssetFromRecord(rec AssetRecord) (ledger.Asset, error) {
	faucet, err := ledger.ParseAccountID(rec.FaucetID)
	if err != nil {
		return ledger.Asset{}, err
	}
	if rec.Commitment == "" {
		return ledger.FungibleAsset(faucet, rec.Amount), nil
	}
	c, err := ledger.ParseNoteID(rec.Commitment)
	if err != nil {
		return ledger.Asset{}, err
	}
	return ledger.NonFungibleAsset(faucet, [ledger.DigestLen]byte(c)), nil
}
