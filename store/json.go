package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
)

// JSONStore serves ENS records from a single JSON document read once
// at startup, e.g.:
//
//	{
//	  "test.eth": {
//	    "addresses": {"60": "0x...", "0": "0x..."},
//	    "text": {"email": "user@example.com"},
//	    "contenthash": "0xe3010170..."
//	  }
//	}
type JSONStore struct {
	domains map[string]jsonDomain
}

type jsonDomain struct {
	Addresses   map[string]string `json:"addresses"`
	Text        map[string]string `json:"text"`
	Contenthash string            `json:"contenthash"`
}

// NewJSONStore reads and parses the JSON database at path.
func NewJSONStore(path string) (*JSONStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: opening json database: %w", err)
	}
	defer f.Close()
	return NewJSONStoreFromReader(f)
}

// NewJSONStoreFromReader parses a JSON database from r, useful for tests.
func NewJSONStoreFromReader(r io.Reader) (*JSONStore, error) {
	var domains map[string]jsonDomain
	if err := json.NewDecoder(r).Decode(&domains); err != nil {
		return nil, fmt.Errorf("store: parsing json database: %w", err)
	}
	return &JSONStore{domains: domains}, nil
}

var _ Store = (*JSONStore)(nil)

func (s *JSONStore) Addr(_ context.Context, name string) (common.Address, bool, error) {
	value, ok := s.domains[name].Addresses["60"]
	if !ok || value == "" {
		return common.Address{}, false, nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, false, fmt.Errorf("store: %q: malformed address %q", name, value)
	}
	return common.HexToAddress(value), true, nil
}

func (s *JSONStore) AddrCoinType(_ context.Context, name string, coinType *big.Int) ([]byte, bool, error) {
	value, ok := s.domains[name].Addresses[coinType.String()]
	if !ok || value == "" {
		return nil, false, nil
	}
	decoded, err := decodeHexValue(value)
	if err != nil {
		return nil, false, fmt.Errorf("store: %q: malformed address bytes for coin type %s: %w", name, coinType, err)
	}
	return decoded, true, nil
}

func (s *JSONStore) Text(_ context.Context, name, key string) (string, bool, error) {
	value, ok := s.domains[name].Text[key]
	if !ok {
		return "", false, nil
	}
	return value, true, nil
}

func (s *JSONStore) Contenthash(_ context.Context, name string) ([]byte, bool, error) {
	value := s.domains[name].Contenthash
	if value == "" {
		return nil, false, nil
	}
	decoded, err := decodeHexValue(value)
	if err != nil {
		return nil, false, fmt.Errorf("store: %q: malformed contenthash hex: %w", name, err)
	}
	return decoded, true, nil
}
