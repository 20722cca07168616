// Package codec is the single place where component, resource, and message
// values are converted to and from bytes. Everything the runtime serializes
// goes through these helpers so the wire shape stays consistent.
package codec

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

func Decode[T any](bz []byte) (T, error) {
	value := new(T)
	err := json.Unmarshal(bz, value)
	if err != nil {
		return *value, eris.Wrapf(err, "failed to decode %T", *value)
	}
	return *value, nil
}

func Encode(value any) ([]byte, error) {
	bz, err := json.Marshal(value)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to encode %T", value)
	}
	return bz, nil
}

// MustEncode encodes a value that is known to be serializable, such as a
// component that already passed schema capture at registration.
func MustEncode(value any) []byte {
	bz, err := Encode(value)
	if err != nil {
		panic(err)
	}
	return bz
}
