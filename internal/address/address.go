// Package address derives account addresses from public keys.
package address

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0gfoundation/0g-sigverify/internal/keccak"
	"github.com/0gfoundation/0g-sigverify/internal/sigerr"
)

// PublicKeyLength is X || Y without the 0x04 prefix.
const PublicKeyLength = 64

// Derive returns the low 20 bytes of keccak256(pub).
func Derive(pub []byte) (common.Address, error) {
	if len(pub) != PublicKeyLength {
		return common.Address{}, fmt.Errorf("%w: expected %d bytes, got %d",
			sigerr.ErrMalformedPublicKey, PublicKeyLength, len(pub))
	}
	h := keccak.Sum256(pub)
	return common.BytesToAddress(h[keccak.Size-common.AddressLength:]), nil
}
