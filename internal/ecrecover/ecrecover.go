// Package ecrecover reconstructs the secp256k1 public key that produced a
// recoverable ECDSA signature over a 32-byte digest (SEC 1 v2, 4.1.6).
//
// Given curve generator G, group order N, field prime P, digest e and a
// signature (r, s, recid):
//
//	Q = r^-1 (sR - eG)
//
// where R is the curve point whose x coordinate is r and whose y parity is
// the low bit of recid. Only recovery ids 0 and 1 are supported; ids 2 and 3
// encode x = r + N, which needs r + N < P and essentially never occurs.
//
// Every input is public, so the variable-time group operations are used.
package ecrecover

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common"

	"github.com/0gfoundation/0g-sigverify/internal/signature"
	"github.com/0gfoundation/0g-sigverify/internal/sigerr"
)

// PublicKeyLength is the size of an uncompressed key without the 0x04 tag.
const PublicKeyLength = 64

// PublicKey is X || Y, each 32 bytes big-endian.
type PublicKey [PublicKeyLength]byte

// Bytes returns a copy of the key as a slice.
func (p PublicKey) Bytes() []byte {
	out := make([]byte, PublicKeyLength)
	copy(out, p[:])
	return out
}

// Recover returns the public key that signed digest.
func Recover(digest common.Hash, sig *signature.Signature) (PublicKey, error) {
	if sig.RecoveryID > 1 {
		return PublicKey{}, fmt.Errorf("%w: recovery id %d", sigerr.ErrInvalidRecoveryByte, sig.RecoveryID)
	}

	// Fail if r and s are not in [1, N-1].
	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sig.R[:]); overflow {
		return PublicKey{}, fmt.Errorf("%w: r >= curve order", sigerr.ErrInvalidSignature)
	}
	if r.IsZero() {
		return PublicKey{}, fmt.Errorf("%w: r is zero", sigerr.ErrInvalidSignature)
	}
	if overflow := s.SetByteSlice(sig.S[:]); overflow {
		return PublicKey{}, fmt.Errorf("%w: s >= curve order", sigerr.ErrInvalidSignature)
	}
	if s.IsZero() {
		return PublicKey{}, fmt.Errorf("%w: s is zero", sigerr.ErrInvalidSignature)
	}

	// R = (r, y) with y = ±sqrt(r^3 + 7) picked by the parity bit. r < N < P so
	// it is already a valid field element.
	var R secp256k1.JacobianPoint
	rBytes := r.Bytes()
	R.X.SetByteSlice(rBytes[:])
	R.X.Normalize()
	if !secp256k1.DecompressY(&R.X, sig.RecoveryID&1 == 1, &R.Y) {
		return PublicKey{}, fmt.Errorf("%w: no y for x = r", sigerr.ErrPointNotOnCurve)
	}
	R.Y.Normalize()
	R.Z.SetInt(1)

	// e = digest mod N
	var e secp256k1.ModNScalar
	e.SetByteSlice(digest[:])

	// w = r^-1 mod N, u1 = -e*w, u2 = s*w
	w := new(secp256k1.ModNScalar).InverseValNonConst(&r)
	u1 := new(secp256k1.ModNScalar).Mul2(&e, w).Negate()
	u2 := new(secp256k1.ModNScalar).Mul2(&s, w)

	// Q = u1*G + u2*R = r^-1 (sR - eG)
	var u1G, u2R, Q secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(u1, &u1G)
	secp256k1.ScalarMultNonConst(u2, &R, &u2R)
	secp256k1.AddNonConst(&u1G, &u2R, &Q)

	if (Q.X.IsZero() && Q.Y.IsZero()) || Q.Z.IsZero() {
		return PublicKey{}, sigerr.ErrPointAtInfinity
	}

	Q.ToAffine()
	Q.X.Normalize()
	Q.Y.Normalize()
	var pub PublicKey
	Q.X.PutBytesUnchecked(pub[:32])
	Q.Y.PutBytesUnchecked(pub[32:])
	return pub, nil
}
