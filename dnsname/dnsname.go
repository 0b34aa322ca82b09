// Package dnsname decodes DNS wire-format names into dotted strings.
package dnsname

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidName is returned when the encoded name is malformed: a
// length byte overruns the buffer or a label is not valid UTF-8.
var ErrInvalidName = errors.New("dnsname: invalid encoded name")

// Decode reads a DNS wire-format name — a sequence of length-prefixed
// labels terminated by a zero-length label — and returns the dotted
// form, e.g. []byte{4,'t','e','s','t',3,'e','t','h',0} -> "test.eth".
func Decode(encoded []byte) (string, error) {
	var labels []string
	idx := 0
	for idx < len(encoded) {
		length := int(encoded[idx])
		if length == 0 {
			return strings.Join(labels, "."), nil
		}
		start := idx + 1
		end := start + length
		if end > len(encoded) {
			return "", fmt.Errorf("%w: label at offset %d overruns buffer", ErrInvalidName, idx)
		}
		label := encoded[start:end]
		if !utf8.Valid(label) {
			return "", fmt.Errorf("%w: label at offset %d is not valid UTF-8", ErrInvalidName, idx)
		}
		labels = append(labels, string(label))
		idx = end
	}
	return "", fmt.Errorf("%w: missing terminating zero-length label", ErrInvalidName)
}
