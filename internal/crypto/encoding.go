package crypto

import (
	"encoding/base64"
	"fmt"
)

// Encode returns the unpadded base64 representation of data.
func Encode(data []byte) string {
	return base64.RawStdEncoding.EncodeToString(data)
}

// Decode reverses Encode. Malformed input yields ErrMalformedEncoding.
func Decode(data string) ([]byte, error) {
	raw, err := base64.RawStdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	return raw, nil
}
