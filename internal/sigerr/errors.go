// Package sigerr holds the error kinds shared by every stage of signature
// recovery. Stages wrap these with fmt.Errorf("...: %w", ...) so callers can
// test with errors.Is regardless of which stage failed.
package sigerr

import "errors"

var (
	ErrMalformedSignature  = errors.New("malformed signature")
	ErrInvalidRecoveryByte = errors.New("invalid recovery byte")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrPointNotOnCurve     = errors.New("point not on curve")
	ErrPointAtInfinity     = errors.New("point at infinity")
	ErrMalformedAddress    = errors.New("malformed address")
	ErrMalformedMessage    = errors.New("malformed message")
	ErrMalformedPublicKey  = errors.New("malformed public key")
)

// kinds is ordered; the first match wins for errors wrapping several kinds.
var kinds = []struct {
	err  error
	name string
}{
	{ErrMalformedSignature, "malformed_signature"},
	{ErrInvalidRecoveryByte, "invalid_recovery_byte"},
	{ErrInvalidSignature, "invalid_signature"},
	{ErrPointNotOnCurve, "point_not_on_curve"},
	{ErrPointAtInfinity, "point_at_infinity"},
	{ErrMalformedAddress, "malformed_address"},
	{ErrMalformedMessage, "malformed_message"},
	{ErrMalformedPublicKey, "malformed_public_key"},
}

// Kind returns the stable snake_case name of err's kind, "" for nil and
// "unknown" for errors outside the taxonomy.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "unknown"
}
