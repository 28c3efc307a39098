package store

import "time"

// GORM model structs
type accountModel struct {
	ID            string `gorm:"primaryKey"`
	Nonce         uint64
	Kind          uint8
	Storage       uint8
	KeyCommitment string
	CreatedAt     time.Time
}

func (accountModel) TableName() string {
	return "accounts"
}

type assetModel struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	AccountID  string `gorm:"index"`
	Kind       uint8
	Faucet     string
	Amount     uint64
	Commitment string
}

func (assetModel) TableName() string {
	return "assets"
}

type noteModel struct {
	ID             string  `gorm:"primaryKey"`
	Target         *string `gorm:"index"`
	AssetsJSON     string  `gorm:"column:assets"`
	InclusionBlock uint32
	Authenticated  bool
	State          uint8 `gorm:"index"`
	ConsumerTx     *string
	UpdatedAt      time.Time
}

func (noteModel) TableName() string {
	return "input_notes"
}

type syncStateModel struct {
	ID       uint `gorm:"primaryKey"`
	BlockNum uint32
}

func (syncStateModel) TableName() string {
	return "sync_state"
}

// storedAsset is the JSON shape of a note asset.
type storedAsset struct {
	Kind       uint8  `json:"kind"`
	Faucet     string `json:"faucet"`
	Amount     uint64 `json:"amount,omitempty"`
	Commitment string `json:"commitment,omitempty"`
}
