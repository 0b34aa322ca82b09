// Package resolver implements the ENS resolver handler (C6): it
// decodes the outer resolve(bytes,bytes) call, resolves the inner ENS
// record query against a Store, and returns a signed, ABI-encoded
// CCIP-Read response.
package resolver

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ethdenver2026/ens-gateway/clock"
	"github.com/ethdenver2026/ens-gateway/dispatch"
	"github.com/ethdenver2026/ens-gateway/dnsname"
	"github.com/ethdenver2026/ens-gateway/signer"
	"github.com/ethdenver2026/ens-gateway/sigutil"
	"github.com/ethdenver2026/ens-gateway/store"
)

// ErrInvalidName is returned when the outer call's name argument is
// not a decodable DNS-encoded byte string.
var ErrInvalidName = errors.New("resolver: invalid ENS name")

// ErrUnknownRecordType is returned when the inner call's selector does
// not match one of the supported ENS resolver functions.
var ErrUnknownRecordType = errors.New("resolver: unknown record type")

// ResolveFunctionName is the name Register must be called with against
// the outer ABI.
const ResolveFunctionName = "resolve"

// ResolveABIJSON is the canonical outer function ABI. Its shape —
// resolve(bytes,bytes) returns (bytes,uint64,bytes) — is fixed by the
// on-chain verifier and must not change.
const ResolveABIJSON = `[{
	"name": "resolve",
	"type": "function",
	"stateMutability": "view",
	"inputs": [
		{"name": "name", "type": "bytes"},
		{"name": "data", "type": "bytes"}
	],
	"outputs": [
		{"name": "result", "type": "bytes"},
		{"name": "expires", "type": "uint64"},
		{"name": "sig", "type": "bytes"}
	]
}]`

// innerABIJSON describes the ENS resolver functions this gateway knows
// how to answer. The bytes32 "node" parameter on every entry is
// accepted but ignored: resolution is keyed by DNS name, not namehash.
const innerABIJSON = `[
	{"name":"addr","type":"function","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
	{"name":"addr","type":"function","inputs":[{"name":"node","type":"bytes32"},{"name":"coinType","type":"uint256"}],"outputs":[{"name":"","type":"bytes"}]},
	{"name":"text","type":"function","inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"}],"outputs":[{"name":"","type":"string"}]},
	{"name":"contenthash","type":"function","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"bytes"}]},
	{"name":"ABI","type":"function","inputs":[{"name":"node","type":"bytes32"},{"name":"contentTypes","type":"uint256"}],"outputs":[{"name":"","type":"uint256"},{"name":"","type":"bytes"}]},
	{"name":"pubkey","type":"function","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"bytes32"},{"name":"","type":"bytes32"}]}
]`

// Resolver answers CCIP-Read requests for the offchain ENS resolver.
type Resolver struct {
	store    store.Store
	signer   signer.Signer
	clock    clock.Clock
	ttl      uint64
	innerABI abi.ABI
}

// New builds a Resolver. ttlSeconds is added to the current time to
// compute each response's expiry.
func New(st store.Store, sg signer.Signer, clk clock.Clock, ttlSeconds uint64) (*Resolver, error) {
	innerABI, err := abi.JSON(strings.NewReader(innerABIJSON))
	if err != nil {
		return nil, fmt.Errorf("resolver: parsing inner ABI: %w", err)
	}
	return &Resolver{store: st, signer: sg, clock: clk, ttl: ttlSeconds, innerABI: innerABI}, nil
}

// Handle implements dispatch.HandlerFunc for the outer resolve(bytes,bytes)
// function.
func (r *Resolver) Handle(ctx context.Context, args []any, call dispatch.RPCCall) ([]any, error) {
	encodedName, ok := args[0].([]byte)
	if !ok {
		return nil, ErrInvalidName
	}
	innerData, ok := args[1].([]byte)
	if !ok {
		return nil, ErrInvalidName
	}

	name, err := dnsname.Decode(encodedName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidName, err)
	}

	resultBytes, err := r.resolveInner(ctx, name, innerData)
	if err != nil {
		return nil, err
	}

	expires := r.clock.Now().Unix() + int64(r.ttl)
	if expires < 0 {
		expires = 0
	}

	digest := signingDigest(call.To, uint64(expires), call.Data, resultBytes)

	sig, err := r.signer.Sign(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("resolver: signing response: %w", err)
	}
	compact, err := sigutil.Compact(sig)
	if err != nil {
		return nil, fmt.Errorf("resolver: compacting signature: %w", err)
	}

	return []any{resultBytes, uint64(expires), compact[:]}, nil
}

// resolveInner decodes innerData as a call to one of the ENS resolver
// functions in innerABI, queries the store, and returns the ABI-encoded
// result value (the "bytes result" portion of the outer response).
func (r *Resolver) resolveInner(ctx context.Context, name string, innerData []byte) ([]byte, error) {
	if len(innerData) < 4 {
		return nil, ErrUnknownRecordType
	}
	method, err := r.innerABI.MethodById(innerData[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownRecordType, err)
	}
	args, err := method.Inputs.Unpack(innerData[4:])
	if err != nil {
		return nil, fmt.Errorf("resolver: decoding inner call %s: %w", method.Sig, err)
	}

	switch method.RawName {
	case "addr":
		if len(method.Inputs) == 1 {
			addr, ok, err := r.store.Addr(ctx, name)
			if err != nil {
				return nil, err
			}
			if !ok {
				addr = common.Address{}
			}
			return method.Outputs.Pack(addr)
		}
		coinType, ok := args[1].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("%w: addr coinType arg has unexpected type", ErrUnknownRecordType)
		}
		value, ok, err := r.store.AddrCoinType(ctx, name, coinType)
		if err != nil {
			return nil, err
		}
		if !ok {
			value = []byte{}
		}
		return method.Outputs.Pack(value)

	case "text":
		key, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("%w: text key arg has unexpected type", ErrUnknownRecordType)
		}
		value, ok, err := r.store.Text(ctx, name, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			value = ""
		}
		return method.Outputs.Pack(value)

	case "contenthash":
		value, ok, err := r.store.Contenthash(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			value = []byte{}
		}
		return method.Outputs.Pack(value)

	case "ABI":
		// Not stored: per-name ABI metadata records are not part of this
		// gateway's data model.
		return method.Outputs.Pack(big.NewInt(0), []byte{})

	case "pubkey":
		// Not stored. Correct ABI shape is two 32-byte zero values, not
		// the single zero byte the original implementation returned.
		var zero [32]byte
		return method.Outputs.Pack(zero, zero)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownRecordType, method.Sig)
	}
}

// signingDigest builds the ERC-3668 / EIP-191-style digest the
// on-chain verifier reconstructs to authenticate this response.
func signingDigest(to string, expires uint64, outerData, resultBytes []byte) [32]byte {
	toAddr := common.HexToAddress(to)

	var expiresBuf [8]byte
	binary.BigEndian.PutUint64(expiresBuf[:], expires)

	callDataHash := crypto.Keccak256(outerData)
	resultHash := crypto.Keccak256(resultBytes)

	msg := make([]byte, 0, 2+20+8+32+32)
	msg = append(msg, 0x19, 0x00)
	msg = append(msg, toAddr.Bytes()...)
	msg = append(msg, expiresBuf[:]...)
	msg = append(msg, callDataHash...)
	msg = append(msg, resultHash...)

	var digest [32]byte
	copy(digest[:], crypto.Keccak256(msg))
	return digest
}
