package spac

// Cursor is a position in an encoded buffer, addressable to the bit.
// Bit is always in [0, 8).
type Cursor struct {
	Byte int
	Bit  uint8
}

// At returns a byte-aligned cursor at offset n.
func At(n int) Cursor {
	return Cursor{Byte: n}
}

// AdvanceBit moves to the next bit, rolling into the next byte after the
// eighth bit.
func (c Cursor) AdvanceBit() Cursor {
	c.Bit++
	if c.Bit == 8 {
		c.Byte++
		c.Bit = 0
	}
	return c
}

// Aligned rounds up to the next byte boundary if the cursor is mid-byte.
func (c Cursor) Aligned() Cursor {
	if c.Bit != 0 {
		c.Byte++
		c.Bit = 0
	}
	return c
}

// AdvanceBytes adds n to the byte index and resets the bit index.
// Callers align first when the cursor may sit after packed booleans.
func (c Cursor) AdvanceBytes(n int) Cursor {
	c.Byte += n
	c.Bit = 0
	return c
}

// IsAligned reports whether the cursor sits on a byte boundary.
func (c Cursor) IsAligned() bool {
	return c.Bit == 0
}

// Size is the extent of an encoded value: whole bytes plus trailing bits
// that share a byte with whatever follows.
type Size struct {
	Bytes int
	Bits  uint8
}

// Bits returns the extent of n packed booleans.
func Bits(n int) Size {
	return Size{Bytes: n / 8, Bits: uint8(n % 8)}
}

// Bytes returns a byte-aligned extent of n bytes.
func Bytes(n int) Size {
	return Size{Bytes: n}
}

// Len is the number of whole bytes the extent occupies.
func (s Size) Len() int {
	if s.Bits != 0 {
		return s.Bytes + 1
	}
	return s.Bytes
}

// IsZero reports whether the extent covers nothing.
func (s Size) IsZero() bool {
	return s.Bytes == 0 && s.Bits == 0
}

// Then returns the extent of s immediately followed by next. Extents made
// only of bits continue the current byte; anything else starts on a byte
// boundary, exactly as the encoder moves its cursor.
func (s Size) Then(next Size) Size {
	if next.Bytes == 0 {
		total := int(s.Bits) + int(next.Bits)
		return Size{Bytes: s.Bytes + total/8, Bits: uint8(total % 8)}
	}
	return Size{Bytes: s.Len() + next.Bytes, Bits: next.Bits}
}

// Tagged returns the extent of s wrapped in a varint length tag whose
// encoded size is tagLen bytes.
func (s Size) Tagged(tagLen int) Size {
	return Size{Bytes: tagLen + s.Len()}
}
