// Package hexcodec converts the textual forms users paste (signature and
// address hex strings) into raw bytes.
package hexcodec

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0gfoundation/0g-sigverify/internal/sigerr"
)

// Decode strips an optional 0x / 0X prefix and decodes the rest as hex.
// Odd-length input and any non-hex character, whitespace included, are
// rejected.
func Decode(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return hex.DecodeString(s)
}

// DecodeSignature decodes a hex signature. Length is not checked here; the
// signature decoder owns that rule.
func DecodeSignature(s string) ([]byte, error) {
	b, err := Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sigerr.ErrMalformedSignature, err)
	}
	return b, nil
}

// DecodeAddress decodes a 20-byte hex address. Checksum capitalization is
// accepted but not enforced.
func DecodeAddress(s string) (common.Address, error) {
	b, err := Decode(s)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", sigerr.ErrMalformedAddress, err)
	}
	if len(b) != common.AddressLength {
		return common.Address{}, fmt.Errorf("%w: expected %d bytes, got %d",
			sigerr.ErrMalformedAddress, common.AddressLength, len(b))
	}
	return common.BytesToAddress(b), nil
}

// EncodeAddress returns the canonical lowercase 0x-prefixed form.
func EncodeAddress(a common.Address) string {
	return "0x" + hex.EncodeToString(a[:])
}

// EqualAddress compares two textual addresses by value. Malformed input is
// never equal to anything.
func EqualAddress(a, b string) bool {
	x, err := DecodeAddress(a)
	if err != nil {
		return false
	}
	y, err := DecodeAddress(b)
	if err != nil {
		return false
	}
	return x == y
}
