package store

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

func jsonHandle() *codec.JsonHandle {
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	return jh
}

// Encode returns the canonical JSON encoding of v, as written by Put.
func Encode(v interface{}) ([]byte, error) {
	var b bytes.Buffer
	enc := codec.NewEncoder(&b, jsonHandle())
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Decode decodes a row returned by All into v.
func Decode(data []byte, v interface{}) error {
	dec := codec.NewDecoder(bytes.NewReader(data), jsonHandle())
	return dec.Decode(v)
}
