// Package store defines the ENS record lookup contract (C1) and its
// concrete backends.
package store

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Store is the capability every record backend must expose. Lookups
// are read-only, safe for concurrent use, and never return a domain
// error for "record absent" — that case is communicated by the second
// return value being false. A non-nil error means the backend itself
// failed (I/O, malformed stored value) and the caller should surface a
// 500, never a partial or ill-formed record.
type Store interface {
	// Addr returns the ETH (coin type 60) address for name.
	Addr(ctx context.Context, name string) (addr common.Address, ok bool, err error)

	// AddrCoinType returns the raw address bytes for (name, coinType)
	// on non-ETH chains (SLIP-0044 coin types).
	AddrCoinType(ctx context.Context, name string, coinType *big.Int) (addr []byte, ok bool, err error)

	// Text returns the text record value for (name, key).
	Text(ctx context.Context, name, key string) (value string, ok bool, err error)

	// Contenthash returns the decoded contenthash bytes for name. The
	// backend is responsible for stripping an optional "0x" prefix
	// from the stored hex and decoding it; malformed hex is a backend
	// error (err != nil), never a panic.
	Contenthash(ctx context.Context, name string) (hash []byte, ok bool, err error)
}
