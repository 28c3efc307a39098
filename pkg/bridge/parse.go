package bridge

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
)

// ParseAccountID parses a hex account id supplied by a caller.
func ParseAccountID(s string) (ledger.AccountID, error) {
	id, err := ledger.ParseAccountID(s)
	if err != nil {
		return ledger.AccountID{}, fmt.Errorf("%w: %v", ErrInvalidAccountID, err)
	}
	return id, nil
}

// ParseAccountFilter parses an optional account id. Empty input selects
// every account and yields nil.
func ParseAccountFilter(s string) (*ledger.AccountID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := ParseAccountID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ParseNoteIDs parses a JSON array of hex note ids. An empty array or a
// repeated id is rejected.
func ParseNoteIDs(s string) ([]ledger.NoteID, error) {
	var raw []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNoteIDs, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty list", ErrInvalidNoteIDs)
	}
	ids := make([]ledger.NoteID, len(raw))
	seen := make(map[ledger.NoteID]int, len(raw))
	for i, r := range raw {
		id, err := ledger.ParseNoteID(r)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidNoteIDs, i, err)
		}
		if j, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: entry %d repeats entry %d", ErrInvalidNoteIDs, i, j)
		}
		seen[id] = i
		ids[i] = id
	}
	return ids, nil
}

// SeedFrom returns seed as a wallet seed. A nil seed is replaced with fresh
// random bytes; any other length than ledger.SeedLen is rejected.
func SeedFrom(seed []byte) ([ledger.SeedLen]byte, error) {
	var out [ledger.SeedLen]byte
	if seed == nil {
		if _, err := rand.Read(out[:]); err != nil {
			return out, fmt.Errorf("bridge: generate seed: %w", err)
		}
		return out, nil
	}
	if len(seed) != ledger.SeedLen {
		return out, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrInvalidParameter, ledger.SeedLen, len(seed))
	}
	copy(out[:], seed)
	return out, nil
}
