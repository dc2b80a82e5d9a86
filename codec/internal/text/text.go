// Package text implements the codec's text contract: strings travel as
// UTF-16 code units, little-endian, without a byte order mark.
package text

import "errors"

// ErrOddLength reports UTF-16 input that does not hold whole code units.
var ErrOddLength = errors.New("utf-16 payload has an odd number of bytes")

// EncodedLen returns the number of bytes s occupies as UTF-16. Invalid
// UTF-8 bytes become U+FFFD, one code unit each.
func EncodedLen(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 4
		} else {
			n += 2
		}
	}
	return n
}

// Encode writes s as UTF-16 into dst, which must hold EncodedLen(s)
// bytes, and returns the number of bytes written.
func Encode(dst []byte, s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	enc := getEncoder()
	defer putEncoder(enc)

	n, _, err := enc.Transform(dst, []byte(s), true)
	return n, err
}

// Decode converts UTF-16 bytes to a Go string. Unpaired surrogates become
// U+FFFD.
func Decode(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", ErrOddLength
	}
	if len(b) == 0 {
		return "", nil
	}
	dec := getDecoder()
	defer putDecoder(dec)

	out, err := dec.Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
