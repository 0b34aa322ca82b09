// Package dispatch implements the CCIP-Read ABI dispatch engine (C4):
// a selector-keyed handler registry that decodes calldata, invokes a
// handler, and ABI-encodes the result.
package dispatch

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ErrUnknownFunction is returned at registration time when name is not
// present in the supplied ABI.
var ErrUnknownFunction = fmt.Errorf("dispatch: unknown function")

// RPCCall is the decoded CCIP-Read request: the resolver contract
// address and the raw calldata it forwarded to the gateway.
type RPCCall struct {
	To   string
	Data []byte
}

// RPCResponse is the outcome of a dispatch: an HTTP-shaped status plus
// a JSON-serializable body.
type RPCResponse struct {
	Status int
	Body   any
}

// messageBody is the {"message": "..."} error body shape used by every
// non-2xx response.
type messageBody struct {
	Message string `json:"message"`
}

// dataBody is the {"data": "0x..."} success body shape.
type dataBody struct {
	Data string `json:"data"`
}

// HandlerFunc computes the output tokens for a decoded call. args are
// the ABI-decoded inputs of the registered function; call carries the
// raw request the handler may need (e.g. to bind a signature to the
// calling contract's address).
type HandlerFunc func(ctx context.Context, args []any, call RPCCall) ([]any, error)

type registration struct {
	method  abi.Method
	handler HandlerFunc
}

// Registry maps 4-byte function selectors to a registered function
// descriptor and handler. It is built once at startup with Register
// and is safe for concurrent read-only use (Dispatch) thereafter.
type Registry struct {
	handlers map[[4]byte]registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[[4]byte]registration)}
}

// Register looks up name in contractABI and stores a handler for its
// 4-byte selector. The last registration for a given selector wins.
// Returns ErrUnknownFunction if name is not declared in contractABI.
func (r *Registry) Register(contractABI abi.ABI, name string, handler HandlerFunc) error {
	method, ok := contractABI.Methods[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	var selector [4]byte
	copy(selector[:], method.ID)
	r.handlers[selector] = registration{method: method, handler: handler}
	return nil
}

// Dispatch routes call to its registered handler by 4-byte selector,
// decodes the inputs, invokes the handler, and ABI-encodes its output
// tokens.
//
// A returned RPCResponse always carries a well-formed HTTP-shaped
// outcome (404 unknown selector, 500 handler failure, 200 success). A
// returned error indicates a structural failure — malformed calldata
// that could not even be ABI-decoded — which the caller (the HTTP
// layer) turns into a generic 500.
func (r *Registry) Dispatch(ctx context.Context, call RPCCall) (RPCResponse, error) {
	if len(call.Data) < 4 {
		return unknownSelectorResponse(call.Data), nil
	}

	var selector [4]byte
	copy(selector[:], call.Data[:4])

	reg, ok := r.handlers[selector]
	if !ok {
		return unknownSelectorResponse(call.Data[:4]), nil
	}

	args, err := reg.method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return RPCResponse{}, fmt.Errorf("dispatch: decoding inputs for %s: %w", reg.method.Sig, err)
	}

	tokens, err := reg.handler(ctx, args, call)
	if err != nil {
		return RPCResponse{Status: 500, Body: messageBody{Message: "Unexpected error"}}, nil
	}

	encoded, err := reg.method.Outputs.Pack(tokens...)
	if err != nil {
		return RPCResponse{}, fmt.Errorf("dispatch: encoding outputs for %s: %w", reg.method.Sig, err)
	}

	return RPCResponse{
		Status: 200,
		Body:   dataBody{Data: "0x" + hex.EncodeToString(encoded)},
	}, nil
}

func unknownSelectorResponse(selector []byte) RPCResponse {
	return RPCResponse{
		Status: 404,
		Body: messageBody{
			Message: fmt.Sprintf("No implementation for function with selector 0x%s", hex.EncodeToString(selector)),
		},
	}
}
