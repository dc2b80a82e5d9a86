package codec

import (
	"github.com/wippyai/spac"
	"github.com/wippyai/spac/codec/internal/types"
	"github.com/wippyai/spac/errors"
	"github.com/wippyai/spac/shape"
)

// Codec encodes and decodes values of one bound shape. It is immutable
// and safe for concurrent use; every call owns its buffer and cursor.
type Codec struct {
	root *types.Node
}

// Shape returns the shape the codec was bound to.
func (c *Codec) Shape() shape.Shape {
	return c.root.Shape
}

// Name returns the definition name of a record or union codec.
func (c *Codec) Name() string {
	return c.root.Unwrap().Name
}

// Size returns the exact extent of v: whole bytes plus trailing bits.
func (c *Codec) Size(v any) (spac.Size, error) {
	return sizer{phase: errors.PhaseLength}.size(c.root, v, nil)
}

// Length returns the number of bytes v encodes to on its own.
func (c *Codec) Length(v any) (int, error) {
	s, err := c.Size(v)
	if err != nil {
		return 0, err
	}
	return s.Len(), nil
}

// Encode writes v into buf starting at cursor at and returns the cursor
// after the value. Booleans pack into the current byte; everything else
// starts on a byte boundary.
func (c *Codec) Encode(buf []byte, at spac.Cursor, v any) (spac.Cursor, error) {
	if err := checkCursor(errors.PhaseEncode, at, len(buf)); err != nil {
		return at, err
	}
	e, _, err := plan(c.root, v, errors.PhaseEncode)
	if err != nil {
		return at, err
	}
	e.buf = buf
	return e.encode(c.root, v, at, nil)
}

// Decode reads one value from buf at cursor at and returns it with the
// cursor after it.
func (c *Codec) Decode(buf []byte, at spac.Cursor) (any, spac.Cursor, error) {
	if err := checkCursor(errors.PhaseDecode, at, len(buf)); err != nil {
		return nil, at, err
	}
	d := decoder{buf: buf}
	return d.decode(c.root, at, len(buf), nil)
}

// Inspect decodes like Decode and also reports where every value came
// from, in pre-order.
func (c *Codec) Inspect(buf []byte, at spac.Cursor) (any, []Span, error) {
	if err := checkCursor(errors.PhaseDecode, at, len(buf)); err != nil {
		return nil, nil, err
	}
	spans := make([]Span, 0, 16)
	d := decoder{buf: buf, spans: &spans}
	v, _, err := d.decode(c.root, at, len(buf), nil)
	return v, spans, err
}

// Marshal encodes v into a buffer of exactly Length(v) bytes.
func (c *Codec) Marshal(v any) ([]byte, error) {
	e, s, err := plan(c.root, v, errors.PhaseLength)
	if err != nil {
		return nil, err
	}
	e.buf = make([]byte, s.Len())
	if _, err := e.encode(c.root, v, spac.Cursor{}, nil); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// Unmarshal decodes one value from the start of data. Bytes after the
// value are ignored.
func (c *Codec) Unmarshal(data []byte) (any, error) {
	v, _, err := c.Decode(data, spac.Cursor{})
	return v, err
}

func checkCursor(phase errors.Phase, at spac.Cursor, length int) error {
	if at.Byte < 0 || at.Bit > 7 || at.Byte > length {
		return errors.New(phase, errors.KindOutOfBounds).
			Value(at).
			Detail("cursor %d.%d outside buffer of %d bytes", at.Byte, at.Bit, length).
			Build()
	}
	return nil
}
