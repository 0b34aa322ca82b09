// Package sigutil implements EIP-2098 compact signature packing.
package sigutil

import (
	"errors"
	"fmt"
)

// ErrInvalidSignature is returned when the input signature is not the
// expected 65-byte r||s||v layout produced by crypto.Sign.
var ErrInvalidSignature = errors.New("sigutil: invalid signature")

// CompactYParityAndS computes the EIP-2098 yParityAndS value from a
// 65-byte r||s||v signature (the shape go-ethereum's crypto.Sign
// returns, v in {0,1}). The result is the 32-byte big-endian s with its
// most-significant bit set when the recovery id is odd.
//
// https://eips.ethereum.org/EIPS/eip-2098
func CompactYParityAndS(sig []byte) ([32]byte, error) {
	var out [32]byte
	if len(sig) != 65 {
		return out, fmt.Errorf("%w: want 65 bytes, got %d", ErrInvalidSignature, len(sig))
	}
	recoveryID := sig[64]
	if recoveryID >= 27 {
		recoveryID -= 27
	}
	if recoveryID != 0 && recoveryID != 1 {
		return out, fmt.Errorf("%w: recovery id %d out of range", ErrInvalidSignature, sig[64])
	}

	copy(out[:], sig[32:64])
	if recoveryID&1 == 1 {
		out[0] |= 0x80
	}
	return out, nil
}

// Compact returns the 64-byte EIP-2098 compact signature r||yParityAndS
// for a 65-byte r||s||v signature.
func Compact(sig []byte) ([64]byte, error) {
	var out [64]byte
	if len(sig) != 65 {
		return out, fmt.Errorf("%w: want 65 bytes, got %d", ErrInvalidSignature, len(sig))
	}
	yParityAndS, err := CompactYParityAndS(sig)
	if err != nil {
		return out, err
	}
	copy(out[:32], sig[:32])
	copy(out[32:], yParityAndS[:])
	return out, nil
}
