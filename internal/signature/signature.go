// Package signature splits a 65-byte R || S || V signature into its parts.
package signature

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/0gfoundation/0g-sigverify/internal/sigerr"
)

// Length is the size of an encoded signature.
const Length = 65

// legacyVOffset is added to the recovery id by wallets following the
// yellow paper convention (27/28).
const legacyVOffset = 27

// Signature is a decoded recoverable signature. R and S are big-endian and
// not range-checked; recovery rejects zero or out-of-range values.
type Signature struct {
	R          [32]byte
	S          [32]byte
	RecoveryID byte // always 0 or 1
}

// Decode parses raw. V may be 0, 1, 27 or 28; any other value, including
// EIP-155 chain-offset encodings, is rejected.
func Decode(raw []byte) (*Signature, error) {
	if len(raw) != Length {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", sigerr.ErrMalformedSignature, Length, len(raw))
	}
	v := raw[64]
	switch v {
	case 0, 1:
	case legacyVOffset, legacyVOffset + 1:
		v -= legacyVOffset
	default:
		return nil, fmt.Errorf("%w: %d", sigerr.ErrInvalidRecoveryByte, raw[64])
	}
	sig := &Signature{RecoveryID: v}
	copy(sig.R[:], raw[:32])
	copy(sig.S[:], raw[32:64])
	return sig, nil
}

// IsLowS reports whether S is in [1, n/2], the canonical non-malleable half.
// An S of zero or >= n is never low.
func (sig *Signature) IsLowS() bool {
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(sig.S[:]); overflow || s.IsZero() {
		return false
	}
	return !s.IsOverHalfOrder()
}

// Bytes re-encodes the signature with V in {0, 1}.
func (sig *Signature) Bytes() []byte {
	out := make([]byte, Length)
	copy(out[:32], sig.R[:])
	copy(out[32:64], sig.S[:])
	out[64] = sig.RecoveryID
	return out
}
