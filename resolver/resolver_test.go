package resolver

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/ethdenver2026/ens-gateway/dispatch"
	"github.com/ethdenver2026/ens-gateway/signer"
	"github.com/ethdenver2026/ens-gateway/store"
)

// testEthEncoded is the DNS wire encoding of "test.eth".
var testEthEncoded = []byte{4, 't', 'e', 's', 't', 3, 'e', 't', 'h', 0}

type fakeStore struct {
	addr          common.Address
	addrOK        bool
	coinTypeValue []byte
	coinTypeOK    bool
	text          string
	textOK        bool
	contenthash   []byte
	contenthashOK bool
	err           error
}

func (f fakeStore) Addr(context.Context, string) (common.Address, bool, error) {
	return f.addr, f.addrOK, f.err
}

func (f fakeStore) AddrCoinType(context.Context, string, *big.Int) ([]byte, bool, error) {
	return f.coinTypeValue, f.coinTypeOK, f.err
}

func (f fakeStore) Text(context.Context, string, string) (string, bool, error) {
	return f.text, f.textOK, f.err
}

func (f fakeStore) Contenthash(context.Context, string) ([]byte, bool, error) {
	return f.contenthash, f.contenthashOK, f.err
}

var _ store.Store = fakeStore{}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func hexPrivateKey(key *ecdsa.PrivateKey) string {
	return hex.EncodeToString(crypto.FromECDSA(key))
}

func newTestResolver(t *testing.T, st store.Store) (*Resolver, *signer.LocalSigner, time.Time) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sg, err := signer.NewLocalSigner(hexPrivateKey(key))
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	r, err := New(st, sg, fixedClock{at: now}, 3600)
	require.NoError(t, err)
	return r, sg, now
}

func mustInnerABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(innerABIJSON))
	require.NoError(t, err)
	return parsed
}

func mustOuterABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(ResolveABIJSON))
	require.NoError(t, err)
	return parsed
}

func packInner(t *testing.T, innerABI abi.ABI, name string, args ...any) []byte {
	t.Helper()
	packed, err := innerABI.Pack(name, args...)
	require.NoError(t, err)
	return packed
}

func TestResolver_HandleAddr(t *testing.T) {
	want := common.HexToAddress("0x8464135c8F25da09e49BC8782676a84730C318bC")
	st := fakeStore{addr: want, addrOK: true}
	r, sg, now := newTestResolver(t, st)
	innerABI := mustInnerABI(t)
	outerABI := mustOuterABI(t)

	var node [32]byte
	innerCalldata := packInner(t, innerABI, "addr", node)
	outerCalldata, err := outerABI.Pack("resolve", testEthEncoded, innerCalldata)
	require.NoError(t, err)

	call := dispatch.RPCCall{To: "0x19c2d5D0f035563344dBB7bE5fD09c8dad62cA0f", Data: outerCalldata}
	tokens, err := r.Handle(context.Background(), []any{testEthEncoded, innerCalldata}, call)
	require.NoError(t, err)
	require.Len(t, tokens, 3)

	resultBytes := tokens[0].([]byte)
	decodedAddr, err := innerABI.Methods["addr"].Outputs.Unpack(resultBytes)
	require.NoError(t, err)
	require.Equal(t, want, decodedAddr[0].(common.Address))

	expires := tokens[1].(uint64)
	require.Equal(t, uint64(now.Unix())+3600, expires)

	sig := tokens[2].([]byte)
	require.Len(t, sig, 64)

	digest := signingDigest(call.To, expires, call.Data, resultBytes)
	r65 := make([]byte, 0, 65)
	r65 = append(r65, sig[:32]...)
	s := make([]byte, 32)
	copy(s, sig[32:])
	v := byte(0)
	if s[0]&0x80 != 0 {
		v = 1
		s[0] &^= 0x80
	}
	r65 = append(r65, s...)
	r65 = append(r65, v)

	pub, err := crypto.SigToPub(digest[:], r65)
	require.NoError(t, err)
	require.Equal(t, sg.Address(), crypto.PubkeyToAddress(*pub))
}

func TestResolver_HandleAddr_Absent(t *testing.T) {
	st := fakeStore{addrOK: false}
	r, _, _ := newTestResolver(t, st)
	innerABI := mustInnerABI(t)

	var node [32]byte
	innerCalldata := packInner(t, innerABI, "addr", node)
	call := dispatch.RPCCall{To: "0xabc", Data: append([]byte{}, innerCalldata...)}

	tokens, err := r.Handle(context.Background(), []any{testEthEncoded, innerCalldata}, call)
	require.NoError(t, err)

	decoded, err := innerABI.Methods["addr"].Outputs.Unpack(tokens[0].([]byte))
	require.NoError(t, err)
	require.Equal(t, common.Address{}, decoded[0].(common.Address))
}

func TestResolver_HandleAddrCoinType(t *testing.T) {
	st := fakeStore{coinTypeValue: []byte{0xde, 0xad}, coinTypeOK: true}
	r, _, _ := newTestResolver(t, st)
	innerABI := mustInnerABI(t)

	var node [32]byte
	innerCalldata := packInner(t, innerABI, "addr0", node, big.NewInt(0))
	call := dispatch.RPCCall{To: "0xabc", Data: innerCalldata}

	tokens, err := r.Handle(context.Background(), []any{testEthEncoded, innerCalldata}, call)
	require.NoError(t, err)

	method, err := innerABI.MethodById(innerCalldata[:4])
	require.NoError(t, err)
	decoded, err := method.Outputs.Unpack(tokens[0].([]byte))
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad}, decoded[0].([]byte))
}

func TestResolver_HandleText(t *testing.T) {
	st := fakeStore{text: "hello", textOK: true}
	r, _, _ := newTestResolver(t, st)
	innerABI := mustInnerABI(t)

	var node [32]byte
	innerCalldata := packInner(t, innerABI, "text", node, "avatar")
	call := dispatch.RPCCall{To: "0xabc", Data: innerCalldata}

	tokens, err := r.Handle(context.Background(), []any{testEthEncoded, innerCalldata}, call)
	require.NoError(t, err)

	decoded, err := innerABI.Methods["text"].Outputs.Unpack(tokens[0].([]byte))
	require.NoError(t, err)
	require.Equal(t, "hello", decoded[0].(string))
}

func TestResolver_HandleContenthash_Absent(t *testing.T) {
	st := fakeStore{contenthashOK: false}
	r, _, _ := newTestResolver(t, st)
	innerABI := mustInnerABI(t)

	var node [32]byte
	innerCalldata := packInner(t, innerABI, "contenthash", node)
	call := dispatch.RPCCall{To: "0xabc", Data: innerCalldata}

	tokens, err := r.Handle(context.Background(), []any{testEthEncoded, innerCalldata}, call)
	require.NoError(t, err)

	decoded, err := innerABI.Methods["contenthash"].Outputs.Unpack(tokens[0].([]byte))
	require.NoError(t, err)
	require.Equal(t, []byte{}, decoded[0].([]byte))
}

func TestResolver_HandleContenthash_BackendError(t *testing.T) {
	st := fakeStore{err: errTest{}}
	r, _, _ := newTestResolver(t, st)
	innerABI := mustInnerABI(t)

	var node [32]byte
	innerCalldata := packInner(t, innerABI, "contenthash", node)
	call := dispatch.RPCCall{To: "0xabc", Data: innerCalldata}

	_, err := r.Handle(context.Background(), []any{testEthEncoded, innerCalldata}, call)
	require.Error(t, err)
}

type errTest struct{}

func (errTest) Error() string { return "backend failure" }

func TestResolver_HandlePubkey(t *testing.T) {
	st := fakeStore{}
	r, _, _ := newTestResolver(t, st)
	innerABI := mustInnerABI(t)

	var node [32]byte
	innerCalldata := packInner(t, innerABI, "pubkey", node)
	call := dispatch.RPCCall{To: "0xabc", Data: innerCalldata}

	tokens, err := r.Handle(context.Background(), []any{testEthEncoded, innerCalldata}, call)
	require.NoError(t, err)

	decoded, err := innerABI.Methods["pubkey"].Outputs.Unpack(tokens[0].([]byte))
	require.NoError(t, err)
	require.Equal(t, [32]byte{}, decoded[0].([32]byte))
	require.Equal(t, [32]byte{}, decoded[1].([32]byte))
}

func TestResolver_HandleUnknownRecordType(t *testing.T) {
	st := fakeStore{}
	r, _, _ := newTestResolver(t, st)

	call := dispatch.RPCCall{To: "0xabc", Data: []byte{0xde, 0xad, 0xbe, 0xef}}
	_, err := r.Handle(context.Background(), []any{testEthEncoded, []byte{0xde, 0xad, 0xbe, 0xef}}, call)
	require.ErrorIs(t, err, ErrUnknownRecordType)
}

func TestResolver_HandleInvalidName(t *testing.T) {
	st := fakeStore{}
	r, _, _ := newTestResolver(t, st)
	innerABI := mustInnerABI(t)

	var node [32]byte
	innerCalldata := packInner(t, innerABI, "addr", node)
	badName := []byte{5, 'b', 'a', 'd'} // length prefix overruns buffer

	call := dispatch.RPCCall{To: "0xabc", Data: innerCalldata}
	_, err := r.Handle(context.Background(), []any{badName, innerCalldata}, call)
	require.ErrorIs(t, err, ErrInvalidName)
}
