package dispatch

import (
	"context"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/require"
)

const addABIJSON = `[{
	"name": "add",
	"type": "function",
	"inputs": [{"name":"a","type":"uint256"},{"name":"b","type":"uint256"}],
	"outputs": [{"name":"sum","type":"uint256"}]
}]`

func mustParseABI(t *testing.T, raw string) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(raw))
	require.NoError(t, err)
	return parsed
}

func TestRegistry_Register_UnknownFunction(t *testing.T) {
	contractABI := mustParseABI(t, addABIJSON)
	reg := NewRegistry()
	err := reg.Register(contractABI, "subtract", nil)
	require.ErrorIs(t, err, ErrUnknownFunction)
}

func TestRegistry_Dispatch_RoundTrip(t *testing.T) {
	contractABI := mustParseABI(t, addABIJSON)
	reg := NewRegistry()
	err := reg.Register(contractABI, "add", func(_ context.Context, args []any, _ RPCCall) ([]any, error) {
		a := args[0].(*big.Int)
		b := args[1].(*big.Int)
		return []any{new(big.Int).Add(a, b)}, nil
	})
	require.NoError(t, err)

	packed, err := contractABI.Pack("add", big.NewInt(2), big.NewInt(40))
	require.NoError(t, err)

	resp, err := reg.Dispatch(context.Background(), RPCCall{To: "0xabc", Data: packed})
	require.NoError(t, err)
	require.Equal(t, 200, resp.Status)

	body, ok := resp.Body.(dataBody)
	require.True(t, ok)

	encodedResult, err := hex.DecodeString(strings.TrimPrefix(body.Data, "0x"))
	require.NoError(t, err)
	outputs, err := contractABI.Methods["add"].Outputs.Unpack(encodedResult)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(42), outputs[0])
}

func TestRegistry_Dispatch_UnknownSelector(t *testing.T) {
	reg := NewRegistry() // empty registry
	packed, err := hex.DecodeString("9061b923")
	require.NoError(t, err)

	resp, err := reg.Dispatch(context.Background(), RPCCall{To: "0xabc", Data: packed})
	require.NoError(t, err)
	require.Equal(t, 404, resp.Status)

	body, ok := resp.Body.(messageBody)
	require.True(t, ok)
	require.Equal(t, "No implementation for function with selector 0x9061b923", body.Message)
}

func TestRegistry_Dispatch_EmptyCalldata(t *testing.T) {
	reg := NewRegistry()
	resp, err := reg.Dispatch(context.Background(), RPCCall{To: "0xabc", Data: nil})
	require.NoError(t, err)
	require.Equal(t, 404, resp.Status)

	body, ok := resp.Body.(messageBody)
	require.True(t, ok)
	require.Equal(t, "No implementation for function with selector 0x", body.Message)
}

func TestRegistry_Dispatch_TruncatedArgs(t *testing.T) {
	contractABI := mustParseABI(t, addABIJSON)
	reg := NewRegistry()
	err := reg.Register(contractABI, "add", func(_ context.Context, _ []any, _ RPCCall) ([]any, error) {
		t.Fatal("handler should not be invoked on a decode failure")
		return nil, nil
	})
	require.NoError(t, err)

	selector := contractABI.Methods["add"].ID
	truncated := append(append([]byte{}, selector...), 0x01, 0x02)

	_, err = reg.Dispatch(context.Background(), RPCCall{To: "0xabc", Data: truncated})
	require.Error(t, err)
}

func TestRegistry_Dispatch_HandlerFailure(t *testing.T) {
	contractABI := mustParseABI(t, addABIJSON)
	reg := NewRegistry()
	err := reg.Register(contractABI, "add", func(_ context.Context, _ []any, _ RPCCall) ([]any, error) {
		return nil, assertAnError{}
	})
	require.NoError(t, err)

	packed, err := contractABI.Pack("add", big.NewInt(1), big.NewInt(1))
	require.NoError(t, err)

	resp, err := reg.Dispatch(context.Background(), RPCCall{To: "0xabc", Data: packed})
	require.NoError(t, err)
	require.Equal(t, 500, resp.Status)

	body, ok := resp.Body.(messageBody)
	require.True(t, ok)
	require.Equal(t, "Unexpected error", body.Message)
}

type assertAnError struct{}

func (assertAnError) Error() string { return "boom" }
