package rpc

// AssetRecord is the wire form of a vault asset. Fungible assets carry
// Amount; non-fungible assets carry Commitment.
type AssetRecord struct {
	FaucetID   string `json:"faucet_id"`
	Amount     uint64 `json:"amount,omitempty"`
	Commitment string `json:"commitment,omitempty"`
}

// NoteRecord is a note committed on chain.
type NoteRecord struct {
	ID       string        `json:"id"`
	Target   string        `json:"target,omitempty"`
	Assets   []AssetRecord `json:"assets"`
	BlockNum uint32        `json:"block_num"`
}

// AccountUpdate is the latest public state of an account.
type AccountUpdate struct {
	ID       string        `json:"id"`
	Nonce    uint64        `json:"nonce"`
	Assets   []AssetRecord `json:"assets"`
	BlockNum uint32        `json:"block_num"`
}

type SyncStateRequest struct {
	BlockNum   uint32   `json:"block_num"`
	AccountIDs []string `json:"account_ids"`
}

type SyncStateResponse struct {
	ChainTip uint32          `json:"chain_tip"`
	Notes    []NoteRecord    `json:"notes"`
	Accounts []AccountUpdate `json:"accounts"`
	// Nullifiers lists ids of notes consumed since the requested block.
	Nullifiers []string `json:"nullifiers"`
}

type SubmitTransactionRequest struct {
	AccountID  string   `json:"account_id"`
	Nonce      uint64   `json:"nonce"`
	NoteIDs    []string `json:"note_ids"`
	PublicKey  string   `json:"public_key"`
	Commitment string   `json:"commitment"`
	Signature  string   `json:"signature"`
}

type SubmitTransactionResponse struct {
	TxID     string `json:"tx_id"`
	BlockNum uint32 `json:"block_num"`
}
