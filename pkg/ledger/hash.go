package ledger

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// Keccak256 returns the legacy Keccak-256 digest of the concatenated parts.
func Keccak256(parts ...[]byte) [DigestLen]byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out [DigestLen]byte
	h.Sum(out[:0])
	return out
}

// TransactionCommitment is the digest an account key signs to consume notes.
// It binds the account, its next nonce and the ordered note ids.
func TransactionCommitment(account AccountID, nonce uint64, notes []NoteID) [DigestLen]byte {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	parts := make([][]byte, 0, 3+len(notes))
	parts = append(parts, []byte("walletcore/consume-notes"), account[:], n[:])
	for i := range notes {
		parts = append(parts, notes[i][:])
	}
	return Keccak256(parts...)
}

// TransactionID derives the id of a signed transaction.
func TransactionID(commitment [DigestLen]byte, signature []byte) TxID {
	return TxID(Keccak256(commitment[:], signature))
}
