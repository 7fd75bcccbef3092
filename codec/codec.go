// Package codec encodes renio types with the scale codec.
package codec

import (
	"bytes"
	"fmt"

	"github.com/spacemeshos/go-scale"
)

// EncodeSlice encodes a slice of structs with a length prefix.
func EncodeSlice[V any, H scale.EncodablePtr[V]](value []V) ([]byte, error) {
	var b bytes.Buffer
	_, err := scale.EncodeStructSlice[V, H](scale.NewEncoder(&b), value)
	if err != nil {
		return nil, fmt.Errorf("encode struct slice: %w", err)
	}
	return b.Bytes(), nil
}

// DecodeSlice decodes a slice written by EncodeSlice. Trailing bytes are an error.
func DecodeSlice[V any, H scale.DecodablePtr[V]](buf []byte) ([]V, error) {
	r := bytes.NewReader(buf)
	v, _, err := scale.DecodeStructSlice[V, H](scale.NewDecoder(r))
	if err != nil {
		return nil, fmt.Errorf("decode struct slice: %w", err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("decode struct slice: %d trailing bytes", r.Len())
	}
	return v, nil
}
