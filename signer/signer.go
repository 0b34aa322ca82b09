// Package signer wraps the ECDSA key that authorizes offchain ENS
// records, so the resolver handler never touches a raw private key.
package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer produces ECDSA signatures over a 32-byte digest. Production
// code uses LocalSigner; tests can substitute a fake. The context
// parameter accommodates remote/async signers (spec.md §5 names
// "an async remote signer" as a possible suspension point) even though
// LocalSigner itself never suspends.
type Signer interface {
	// Sign returns a 65-byte r||s||v signature over digest.
	Sign(ctx context.Context, digest [32]byte) ([]byte, error)
	// Address returns the Ethereum address callers should expect the
	// signature to recover to.
	Address() common.Address
}

// LocalSigner signs with an in-process ECDSA private key.
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewLocalSigner parses a hex-encoded private key (with or without a
// "0x" prefix) and returns a LocalSigner for it.
func NewLocalSigner(privateKeyHex string) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("signer: invalid private key: %w", err)
	}
	return &LocalSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

var _ Signer = (*LocalSigner)(nil)

// Sign signs digest with the wrapped key. It never suspends.
func (s *LocalSigner) Sign(_ context.Context, digest [32]byte) ([]byte, error) {
	sig, err := crypto.Sign(digest[:], s.key)
	if err != nil {
		return nil, fmt.Errorf("signer: signing digest: %w", err)
	}
	return sig, nil
}

// Address returns the address derived from the wrapped public key.
func (s *LocalSigner) Address() common.Address {
	return s.address
}
