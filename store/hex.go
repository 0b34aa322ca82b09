package store

import (
	"encoding/hex"
	"strings"
)

// decodeHexValue decodes a stored hex string, tolerating an optional
// "0x" prefix, matching the original JSON backend's convention
// (db/json.rs strips "0x" before returning the content hash).
func decodeHexValue(value string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(value, "0x"))
}
