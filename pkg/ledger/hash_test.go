package ledger

import (
	"encoding/hex"
	"testing"
)

func TestKeccak256KnownVectors(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{"abc", "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"},
	}
	for _, tc := range cases {
		got := Keccak256([]byte(tc.in))
		if hex.EncodeToString(got[:]) != tc.want {
			t.Fatalf("Keccak256(%q) = %s, want %s", tc.in, hex.EncodeToString(got[:]), tc.want)
		}
	}
}

func TestKeccak256ConcatenatesParts(t *testing.T) {
	whole := Keccak256([]byte("hello world"))
	split := Keccak256([]byte("hello"), []byte(" "), []byte("world"))
	if whole != split {
		t.Fatalf("digest depends on part boundaries")
	}
}

func TestTransactionCommitmentBindsInputs(t *testing.T) {
	var acct AccountID
	acct[0] = 1
	notes := []NoteID{{1}, {2}}

	base := TransactionCommitment(acct, 1, notes)
	if base != TransactionCommitment(acct, 1, []NoteID{{1}, {2}}) {
		t.Fatalf("commitment is not deterministic")
	}
	if base == TransactionCommitment(acct, 2, notes) {
		t.Fatalf("commitment ignores nonce")
	}
	if base == TransactionCommitment(acct, 1, []NoteID{{2}, {1}}) {
		t.Fatalf("commitment ignores note order")
	}
	other := acct
	other[0] = 2
	if base == TransactionCommitment(other, 1, notes) {
		t.Fatalf("commitment ignores account")
	}
}
