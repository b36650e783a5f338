// Package eip191 builds the personal-message ("version 0x45") form of
// EIP-191 so a signed message can never double as a signed transaction.
package eip191

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0gfoundation/0g-sigverify/internal/keccak"
)

const prefix = "\x19Ethereum Signed Message:\n"

// Prefix returns "\x19Ethereum Signed Message:\n" + len(msg) + msg, the
// length being the decimal byte length of msg itself.
func Prefix(msg []byte) []byte {
	n := strconv.Itoa(len(msg))
	out := make([]byte, 0, len(prefix)+len(n)+len(msg))
	out = append(out, prefix...)
	out = append(out, n...)
	return append(out, msg...)
}

// Hash constructs the EIP-191 prefixed hash:
// keccak256("\x19Ethereum Signed Message:\n" + len(msg) + msg)
func Hash(msg []byte) common.Hash {
	return keccak.Sum256([]byte(prefix+strconv.Itoa(len(msg))), msg)
}
