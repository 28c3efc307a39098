// Package keystore persists account signing keys on the local filesystem.
//
// Keys are secp256k1 private keys, one file per key, named after the
// Keccak-256 commitment of the compressed public key. Files are created with
// mode 0600 and secret material read back from disk is zeroized once parsed.
package keystore

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
)

const keyFileExt = ".key"

// Commitment is the Keccak-256 digest of a compressed public key.
type Commitment [ledger.DigestLen]byte

// Hex returns the commitment in plain lowercase hex.
func (c Commitment) Hex() string { return hex.EncodeToString(c[:]) }

// FilesystemKeyStore stores keys under a single directory.
type FilesystemKeyStore struct {
	dir string
}

// Open returns a key store rooted at dir, creating the directory if needed.
func Open(dir string) (*FilesystemKeyStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty key store path", ledger.ErrKeyStore)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ledger.ErrKeyStore, dir, err)
	}
	return &FilesystemKeyStore{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (ks *FilesystemKeyStore) Dir() string { return ks.dir }

// DeriveKey derives a signing key from a wallet seed. The same seed always
// yields the same key.
func DeriveKey(seed [ledger.SeedLen]byte) *btcec.PrivateKey {
	material := ledger.Keccak256([]byte("walletcore/signing-key"), seed[:])
	priv, _ := btcec.PrivKeyFromBytes(material[:])
	zeroizeBytes(material[:])
	return priv
}

// CommitmentOf returns the commitment of a public key.
func CommitmentOf(pub *btcec.PublicKey) Commitment {
	return Commitment(ledger.Keccak256(pub.SerializeCompressed()))
}

// Add persists key and returns its public key commitment. Adding a key that
// is already stored is not an error.
func (ks *FilesystemKeyStore) Add(key *btcec.PrivateKey) (Commitment, error) {
	if key == nil {
		return Commitment{}, fmt.Errorf("%w: nil key", ledger.ErrKeyStore)
	}
	c := CommitmentOf(key.PubKey())
	path := ks.path(c)

	secret := key.Serialize()
	defer zeroizeBytes(secret)

	encoded := make([]byte, hex.EncodedLen(len(secret)))
	hex.Encode(encoded, secret)
	defer zeroizeBytes(encoded)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return c, nil
	}
	if err != nil {
		return Commitment{}, fmt.Errorf("%w: create key file: %v", ledger.ErrKeyStore, err)
	}
	if _, err := f.Write(encoded); err != nil {
		f.Close()
		os.Remove(path)
		return Commitment{}, fmt.Errorf("%w: write key file: %v", ledger.ErrKeyStore, err)
	}
	if err := f.Close(); err != nil {
		return Commitment{}, fmt.Errorf("%w: close key file: %v", ledger.ErrKeyStore, err)
	}
	return c, nil
}

// Get loads the key committed to by c.
func (ks *FilesystemKeyStore) Get(c Commitment) (*btcec.PrivateKey, error) {
	encoded, err := os.ReadFile(ks.path(c))
	if err != nil {
		return nil, fmt.Errorf("%w: read key %s: %v", ledger.ErrKeyStore, c.Hex(), err)
	}
	defer zeroizeBytes(encoded)

	secret := make([]byte, hex.DecodedLen(len(encoded)))
	defer zeroizeBytes(secret)
	if _, err := hex.Decode(secret, encoded); err != nil || len(secret) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("%w: corrupt key file %s", ledger.ErrKeyStore, c.Hex())
	}

	priv, pub := btcec.PrivKeyFromBytes(secret)
	if got := CommitmentOf(pub); subtle.ConstantTimeCompare(got[:], c[:]) != 1 {
		return nil, fmt.Errorf("%w: key file %s does not match its commitment", ledger.ErrKeyStore, c.Hex())
	}
	return priv, nil
}

// PublicKey returns the public half of the key committed to by c.
func (ks *FilesystemKeyStore) PublicKey(c Commitment) (*btcec.PublicKey, error) {
	priv, err := ks.Get(c)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()
	return priv.PubKey(), nil
}

// Sign signs digest with the key committed to by c and returns a DER
// encoded ECDSA signature.
func (ks *FilesystemKeyStore) Sign(c Commitment, digest [ledger.DigestLen]byte) ([]byte, error) {
	priv, err := ks.Get(c)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()
	return ecdsa.Sign(priv, digest[:]).Serialize(), nil
}

func (ks *FilesystemKeyStore) path(c Commitment) string {
	return filepath.Join(ks.dir, c.Hex()+keyFileExt)
}
