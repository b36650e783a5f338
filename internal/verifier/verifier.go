// Package verifier answers "did this address sign this exact message?" for
// personal-message (EIP-191) signatures.
//
// A Verifier holds only its options; every call is a pure function of its
// inputs and safe for concurrent use.
package verifier

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-sigverify/internal/address"
	"github.com/0gfoundation/0g-sigverify/internal/ecrecover"
	"github.com/0gfoundation/0g-sigverify/internal/eip191"
	"github.com/0gfoundation/0g-sigverify/internal/hexcodec"
	"github.com/0gfoundation/0g-sigverify/internal/signature"
	"github.com/0gfoundation/0g-sigverify/internal/sigerr"
)

// DefaultMaxMessageSize caps the bytes hashed per call.
const DefaultMaxMessageSize = 1 << 20

type Verifier struct {
	strict         bool
	maxMessageSize int
	log            *zap.Logger
}

type Option func(*Verifier)

// WithStrict rejects high-s signatures. Both halves recover the same signer,
// but only one of them is canonical, which matters when a signature is used
// as a replay key.
func WithStrict(strict bool) Option {
	return func(v *Verifier) { v.strict = strict }
}

// WithMaxMessageSize sets the message cap; n <= 0 disables it.
func WithMaxMessageSize(n int) Option {
	return func(v *Verifier) { v.maxMessageSize = n }
}

func WithLogger(log *zap.Logger) Option {
	return func(v *Verifier) {
		if log != nil {
			v.log = log
		}
	}
}

func New(opts ...Option) *Verifier {
	v := &Verifier{
		maxMessageSize: DefaultMaxMessageSize,
		log:            zap.NewNop(),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Strict reports whether high-s signatures are rejected.
func (v *Verifier) Strict() bool { return v.strict }

// RecoverSigner returns the address whose key produced sig over msg. The
// first failing stage (message, signature decoding, recovery, derivation)
// determines the error kind.
func (v *Verifier) RecoverSigner(msg, sig []byte) (common.Address, error) {
	if v.maxMessageSize > 0 && len(msg) > v.maxMessageSize {
		return common.Address{}, fmt.Errorf("%w: %d bytes exceeds limit of %d",
			sigerr.ErrMalformedMessage, len(msg), v.maxMessageSize)
	}
	digest := eip191.Hash(msg)

	decoded, err := signature.Decode(sig)
	if err != nil {
		return common.Address{}, err
	}
	if v.strict && !decoded.IsLowS() {
		return common.Address{}, fmt.Errorf("%w: s is not in the lower half of the curve order", sigerr.ErrInvalidSignature)
	}

	pub, err := ecrecover.Recover(digest, decoded)
	if err != nil {
		return common.Address{}, fmt.Errorf("ecrecover: %w", err)
	}
	return address.Derive(pub[:])
}

// Verify reports whether expected signed msg. Every failure, malformed
// input included, is reported as false.
func (v *Verifier) Verify(msg, sig []byte, expected common.Address) bool {
	got, err := v.RecoverSigner(msg, sig)
	if err != nil {
		v.log.Debug("signature rejected", zap.String("kind", sigerr.Kind(err)), zap.Error(err))
		return false
	}
	if got != expected {
		v.log.Debug("signer mismatch",
			zap.String("recovered", hexcodec.EncodeAddress(got)),
			zap.String("expected", hexcodec.EncodeAddress(expected)),
		)
		return false
	}
	return true
}

// RecoverSignerHex is RecoverSigner for a hex signature (optional 0x).
func (v *Verifier) RecoverSignerHex(msg []byte, sigHex string) (common.Address, error) {
	sig, err := hexcodec.DecodeSignature(sigHex)
	if err != nil {
		return common.Address{}, err
	}
	return v.RecoverSigner(msg, sig)
}

// VerifyHex is Verify for hex signature and address text. The address is
// compared by value, so checksum capitalization does not matter.
func (v *Verifier) VerifyHex(msg []byte, sigHex, expectedHex string) bool {
	expected, err := hexcodec.DecodeAddress(expectedHex)
	if err != nil {
		v.log.Debug("expected address rejected", zap.Error(err))
		return false
	}
	sig, err := hexcodec.DecodeSignature(sigHex)
	if err != nil {
		v.log.Debug("signature rejected", zap.String("kind", sigerr.Kind(err)), zap.Error(err))
		return false
	}
	return v.Verify(msg, sig, expected)
}
