package ledger

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// AccountIDLen is the byte length of an account identifier.
	AccountIDLen = 15
	// DigestLen is the byte length of note and transaction identifiers.
	DigestLen = 32
)

// AccountID identifies an account on the ledger.
type AccountID [AccountIDLen]byte

// NoteID identifies a note.
type NoteID [DigestLen]byte

// TxID identifies a submitted transaction.
type TxID [DigestLen]byte

// Hex returns the 0x-prefixed lowercase hex form.
func (id AccountID) Hex() string { return encodeHex(id[:]) }

func (id AccountID) String() string { return id.Hex() }

// IsZero reports whether id is the zero value.
func (id AccountID) IsZero() bool { return id == AccountID{} }

// Hex returns the 0x-prefixed lowercase hex form.
func (id NoteID) Hex() string { return encodeHex(id[:]) }

func (id NoteID) String() string { return id.Hex() }

// Hex returns the 0x-prefixed lowercase hex form.
func (id TxID) Hex() string { return encodeHex(id[:]) }

func (id TxID) String() string { return id.Hex() }

// ParseAccountID parses a hex account id. The 0x prefix is optional.
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID
	if err := decodeHex(s, id[:]); err != nil {
		return AccountID{}, fmt.Errorf("account id: %w", err)
	}
	return id, nil
}

// ParseNoteID parses a hex note id. The 0x prefix is optional.
func ParseNoteID(s string) (NoteID, error) {
	var id NoteID
	if err := decodeHex(s, id[:]); err != nil {
		return NoteID{}, fmt.Errorf("note id: %w", err)
	}
	return id, nil
}

// ParseTxID parses a hex transaction id. The 0x prefix is optional.
func ParseTxID(s string) (TxID, error) {
	var id TxID
	if err := decodeHex(s, id[:]); err != nil {
		return TxID{}, fmt.Errorf("transaction id: %w", err)
	}
	return id, nil
}

func encodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func decodeHex(s string, dst []byte) error {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s) != 2*len(dst) {
		return fmt.Errorf("%w: want %d hex digits, got %d", ErrInvalidID, 2*len(dst), len(s))
	}
	if _, err := hex.Decode(dst, []byte(s)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	return nil
}
