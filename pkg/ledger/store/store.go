// Package store is the SQLite-backed local state of the ledger client:
// tracked accounts and their vaults, input notes, and the last synced block.
package store

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
)

const syncStateRow = 1

// Store is a SQLite database holding client state. It is not safe for
// concurrent writers; the owning client serializes access.
type Store struct {
	db   *gorm.DB
	path string
}

// AccountRecord is a tracked account together with the commitment of the key
// that controls it.
type AccountRecord struct {
	ledger.Account
	KeyCommitment [ledger.DigestLen]byte
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty store path", ledger.ErrStore)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("%w: create %s: %v", ledger.ErrStore, dir, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to database: %v (path: %s)", ledger.ErrStore, err, path)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: failed to migrate database: %v", ledger.ErrStore, err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&accountModel{}, &assetModel{}, &noteModel{}, &syncStateModel{})
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Account operations

// InsertAccount starts tracking a new account.
func (s *Store) InsertAccount(ctx context.Context, rec AccountRecord) error {
	id := rec.ID.Hex()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&accountModel{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return wrap(err)
		}
		if n > 0 {
			return fmt.Errorf("%w: account %s already tracked", ledger.ErrStore, id)
		}
		m := accountModel{
			ID:            id,
			Nonce:         rec.Nonce,
			Kind:          uint8(rec.Kind),
			Storage:       uint8(rec.Storage),
			KeyCommitment: hex.EncodeToString(rec.KeyCommitment[:]),
		}
		if err := tx.Create(&m).Error; err != nil {
			return wrap(err)
		}
		return replaceAssets(tx, id, rec.Assets)
	})
}

// Accounts returns every tracked account header ordered by creation.
func (s *Store) Accounts(ctx context.Context) ([]ledger.AccountHeader, error) {
	var models []accountModel
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&models).Error; err != nil {
		return nil, wrap(err)
	}
	out := make([]ledger.AccountHeader, 0, len(models))
	for _, m := range models {
		hdr, err := headerFromModel(m)
		if err != nil {
			return nil, err
		}
		out = append(out, hdr)
	}
	return out, nil
}

// Account returns one tracked account with its vault.
func (s *Store) Account(ctx context.Context, id ledger.AccountID) (AccountRecord, error) {
	db := s.db.WithContext(ctx)

	var m accountModel
	if err := db.First(&m, "id = ?", id.Hex()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AccountRecord{}, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, id.Hex())
		}
		return AccountRecord{}, wrap(err)
	}
	hdr, err := headerFromModel(m)
	if err != nil {
		return AccountRecord{}, err
	}

	var assets []assetModel
	if err := db.Where("account_id = ?", m.ID).Order("id").Find(&assets).Error; err != nil {
		return AccountRecord{}, wrap(err)
	}

	rec := AccountRecord{Account: ledger.Account{AccountHeader: hdr}}
	if err := decodeFixed(m.KeyCommitment, rec.KeyCommitment[:]); err != nil {
		return AccountRecord{}, err
	}
	for _, am := range assets {
		a, err := assetFromStored(storedAsset{Kind: am.Kind, Faucet: am.Faucet, Amount: am.Amount, Commitment: am.Commitment})
		if err != nil {
			return AccountRecord{}, err
		}
		rec.Assets = append(rec.Assets, a)
	}
	return rec, nil
}

// ApplyAccountDelta replaces the vault of a tracked account and advances its
// nonce. Stale deltas (nonce not greater than the stored one) are ignored and
// reported as false.
func (s *Store) ApplyAccountDelta(ctx context.Context, id ledger.AccountID, nonce uint64, assets []ledger.Asset) (bool, error) {
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m accountModel
		if err := tx.First(&m, "id = ?", id.Hex()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, id.Hex())
			}
			return wrap(err)
		}
		if nonce <= m.Nonce {
			return nil
		}
		if err := tx.Model(&m).Update("nonce", nonce).Error; err != nil {
			return wrap(err)
		}
		applied = true
		return replaceAssets(tx, m.ID, assets)
	})
	return applied, err
}

func replaceAssets(tx *gorm.DB, accountID string, assets []ledger.Asset) error {
	if err := tx.Where("account_id = ?", accountID).Delete(&assetModel{}).Error; err != nil {
		return wrap(err)
	}
	for _, a := range assets {
		sa := storedFromAsset(a)
		m := assetModel{
			AccountID:  accountID,
			Kind:       sa.Kind,
			Faucet:     sa.Faucet,
			Amount:     sa.Amount,
			Commitment: sa.Commitment,
		}
		if err := tx.Create(&m).Error; err != nil {
			return wrap(err)
		}
	}
	return nil
}

// Note operations

// UpsertNotes stores notes reported by the node. Known notes only move
// forward in their lifecycle. It returns the number of newly stored notes.
func (s *Store) UpsertNotes(ctx context.Context, notes []ledger.InputNote) (int, error) {
	created := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, n := range notes {
			incoming, err := noteToModel(n)
			if err != nil {
				return err
			}

			var existing noteModel
			err = tx.First(&existing, "id = ?", incoming.ID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&incoming).Error; err != nil {
					return wrap(err)
				}
				created++
				continue
			case err != nil:
				return wrap(err)
			}

			if incoming.State > existing.State {
				existing.State = incoming.State
			}
			if incoming.InclusionBlock > 0 {
				existing.InclusionBlock = incoming.InclusionBlock
				existing.Authenticated = existing.Authenticated || incoming.Authenticated
			}
			if err := tx.Save(&existing).Error; err != nil {
				return wrap(err)
			}
		}
		return nil
	})
	return created, err
}

// ConsumableNotes returns committed notes. When account is non-nil only notes
// that account may consume are returned.
func (s *Store) ConsumableNotes(ctx context.Context, account *ledger.AccountID) ([]ledger.InputNote, error) {
	q := s.db.WithContext(ctx).Where("state = ?", uint8(ledger.NoteCommitted))
	if account != nil {
		q = q.Where("(target IS NULL OR target = ?)", account.Hex())
	}
	var models []noteModel
	if err := q.Order("inclusion_block, id").Find(&models).Error; err != nil {
		return nil, wrap(err)
	}
	return notesFromModels(models)
}

// NotesByID returns the requested notes in request order. Unknown ids fail
// with ledger.ErrNoteNotFound.
func (s *Store) NotesByID(ctx context.Context, ids []ledger.NoteID) ([]ledger.InputNote, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.Hex()
	}
	var models []noteModel
	if err := s.db.WithContext(ctx).Where("id IN ?", keys).Find(&models).Error; err != nil {
		return nil, wrap(err)
	}
	byID := make(map[string]noteModel, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	ordered := make([]noteModel, 0, len(keys))
	for _, k := range keys {
		m, ok := byID[k]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ledger.ErrNoteNotFound, k)
		}
		ordered = append(ordered, m)
	}
	return notesFromModels(ordered)
}

// SetNoteState moves known notes to state, recording tx as their consumer
// when set. It returns the number of notes updated; unknown ids are skipped.
func (s *Store) SetNoteState(ctx context.Context, ids []ledger.NoteID, state ledger.NoteState, tx *ledger.TxID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.Hex()
	}
	updates := map[string]any{"state": uint8(state)}
	if tx != nil {
		updates["consumer_tx"] = tx.Hex()
	}
	res := s.db.WithContext(ctx).Model(&noteModel{}).Where("id IN ?", keys).Updates(updates)
	if res.Error != nil {
		return 0, wrap(res.Error)
	}
	return int(res.RowsAffected), nil
}

// Sync state

// BlockNum returns the last synced block, or 0 before the first sync.
func (s *Store) BlockNum(ctx context.Context) (uint32, error) {
	var m syncStateModel
	err := s.db.WithContext(ctx).First(&m, syncStateRow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, wrap(err)
	}
	return m.BlockNum, nil
}

// SetBlockNum records the last synced block.
func (s *Store) SetBlockNum(ctx context.Context, block uint32) error {
	m := syncStateModel{ID: syncStateRow, BlockNum: block}
	if err := s.db.WithContext(ctx).Save(&m).Error; err != nil {
		return wrap(err)
	}
	return nil
}

// Conversions

func wrap(err error) error {
	return fmt.Errorf("%w: %v", ledger.ErrStore, err)
}

func headerFromModel(m accountModel) (ledger.AccountHeader, error) {
	id, err := ledger.ParseAccountID(m.ID)
	if err != nil {
		return ledger.AccountHeader{}, wrap(err)
	}
	return ledger.AccountHeader{
		ID:      id,
		Nonce:   m.Nonce,
		Kind:    ledger.AccountKind(m.Kind),
		Storage: ledger.StorageMode(m.Storage),
	}, nil
}

func storedFromAsset(a ledger.Asset) storedAsset {
	sa := storedAsset{Kind: uint8(a.Kind), Faucet: a.Faucet.Hex()}
	if a.IsFungible() {
		sa.Amount = a.Amount
	} else {
		sa.Commitment = hex.EncodeToString(a.Commitment[:])
	}
	return sa
}

func assetFromStored(sa storedAsset) (ledger.Asset, error) {
	faucet, err := ledger.ParseAccountID(sa.Faucet)
	if err != nil {
		return ledger.Asset{}, wrap(err)
	}
	if ledger.AssetKind(sa.Kind) == ledger.AssetFungible {
		return ledger.FungibleAsset(faucet, sa.Amount), nil
	}
	var c [ledger.DigestLen]byte
	if err := decodeFixed(sa.Commitment, c[:]); err != nil {
		return ledger.Asset{}, err
	}
	return ledger.NonFungibleAsset(faucet, c), nil
}

func noteToModel(n ledger.InputNote) (noteModel, error) {
	stored := make([]storedAsset, len(n.Assets))
	for i, a := range n.Assets {
		stored[i] = storedFromAsset(a)
	}
	assets, err := json.Marshal(stored)
	if err != nil {
		return noteModel{}, wrap(err)
	}
	m := noteModel{
		ID:             n.ID.Hex(),
		AssetsJSON:     string(assets),
		InclusionBlock: n.InclusionBlock,
		Authenticated:  n.Authenticated,
		State:          uint8(n.State),
	}
	if n.Target != nil {
		t := n.Target.Hex()
		m.Target = &t
	}
	return m, nil
}

func notesFromModels(models []noteModel) ([]ledger.InputNote, error) {
	out := make([]ledger.InputNote, 0, len(models))
	for _, m := range models {
		id, err := ledger.ParseNoteID(m.ID)
		if err != nil {
			return nil, wrap(err)
		}
		n := ledger.InputNote{
			ID:             id,
			InclusionBlock: m.InclusionBlock,
			Authenticated:  m.Authenticated,
			State:          ledger.NoteState(m.State),
		}
		if m.Target != nil {
			t, err := ledger.ParseAccountID(*m.Target)
			if err != nil {
				return nil, wrap(err)
			}
			n.Target = &t
		}
		var stored []storedAsset
		if err := json.Unmarshal([]byte(m.AssetsJSON), &stored); err != nil {
			return nil, wrap(err)
		}
		for _, sa := range stored {
			a, err := assetFromStored(sa)
			if err != nil {
				return nil, err
			}
			n.Assets = append(n.Assets, a)
		}
		out = append(out, n)
	}
	return out, nil
}

func decodeFixed(s string, dst []byte) error {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(dst) {
		return fmt.Errorf("%w: malformed digest %q", ledger.ErrStore, s)
	}
	copy(dst, b)
	return nil
}
