// Package keccak computes Keccak-256 as used for account addresses: the
// pre-standard Keccak padding (domain byte 0x01), not NIST SHA3-256 (0x06).
package keccak

import (
	"hash"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Size is the digest length in bytes.
const Size = common.HashLength

// State is a Keccak-256 sponge that can also squeeze directly into a buffer.
type State interface {
	hash.Hash
	Read([]byte) (int, error)
}

// NewState returns a fresh Keccak-256 sponge.
func NewState() State {
	return sha3.NewLegacyKeccak256().(State)
}

// Sum256 hashes the concatenation of data.
func Sum256(data ...[]byte) (h common.Hash) {
	d := NewState()
	for _, b := range data {
		d.Write(b)
	}
	d.Read(h[:]) //nolint:errcheck
	return h
}
