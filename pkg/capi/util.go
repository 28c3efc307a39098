package capi

import (
	"encoding/hex"

	"github.com/walletcore/ledgerbridge-go/pkg/bridge"
	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
)

// Keccak256 writes the 32-byte Keccak-256 digest of data to out.
func Keccak256(data, out []byte, outLen *int) Status {
	if outLen == nil {
		return StatusInvalidParam
	}
	sum := ledger.Keccak256(data)
	return writeOut(sum[:], out, outLen)
}

// AccountIDToHex writes id as lowercase hex without a prefix to out.
func AccountIDToHex(id, out []byte, outLen *int) Status {
	if outLen == nil {
		return StatusInvalidParam
	}
	return writeOut([]byte(hex.EncodeToString(id)), out, outLen)
}

// Version returns the build version of the library.
func Version() string {
	return bridge.BuildVersion()
}
