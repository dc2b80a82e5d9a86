// Package varint implements the codec's variable-length integer contract
// on top of protowire: little-endian base-128 groups with a continuation
// bit, and zigzag mapping for signed values.
package varint

import "google.golang.org/protobuf/encoding/protowire"

// MaxLen is the longest encoding of a 64-bit value.
const MaxLen = 10

// Size returns the number of bytes v occupies.
func Size(v uint64) int {
	return protowire.SizeVarint(v)
}

// Put writes v at the start of b and returns the number of bytes written.
// b must hold at least Size(v) bytes.
func Put(b []byte, v uint64) int {
	return len(protowire.AppendVarint(b[:0:len(b)], v))
}

// Result of a failed Consume.
const (
	Truncated = -1
	Overflow  = -2
)

// Consume reads a varint from the start of b. It returns the value and
// the number of bytes read, or a negative count: Truncated when b ends
// inside the varint, Overflow when the encoding exceeds 64 bits.
func Consume(b []byte) (uint64, int) {
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		return v, n
	}
	if len(b) < MaxLen {
		for _, c := range b {
			if c < 0x80 {
				return 0, Overflow
			}
		}
		return 0, Truncated
	}
	return 0, Overflow
}

// Zigzag maps signed values onto unsigned ones so small magnitudes stay
// short: 0→0, -1→1, 1→2, -2→3.
func Zigzag(v int64) uint64 {
	return protowire.EncodeZigZag(v)
}

// Unzigzag reverses Zigzag.
func Unzigzag(u uint64) int64 {
	return protowire.DecodeZigZag(u)
}
