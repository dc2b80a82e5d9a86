package codec

import (
	"bytes"
	"math"

	"github.com/wippyai/spac"
	"github.com/wippyai/spac/codec/internal/abi"
	"github.com/wippyai/spac/codec/internal/text"
	"github.com/wippyai/spac/codec/internal/types"
	"github.com/wippyai/spac/codec/internal/varint"
	"github.com/wippyai/spac/errors"
)

// Span is the stretch of input one decoded value came from.
type Span struct {
	Start spac.Cursor
	End   spac.Cursor
	Shape string
	Path  []string
}

type decoder struct {
	buf   []byte
	spans *[]Span // nil unless tracing
}

// decode reads one value at cursor at. limit is the end of the window the
// value must fit in: the enclosing record or union payload, or the buffer.
func (d *decoder) decode(n *types.Node, at spac.Cursor, limit int, path []string) (any, spac.Cursor, error) {
	if d.spans == nil || n.Kind == types.KindAdapter {
		return d.decodeNode(n, at, limit, path)
	}
	idx := len(*d.spans)
	*d.spans = append(*d.spans, Span{Start: at, Shape: n.Shape.String(), Path: path})
	v, next, err := d.decodeNode(n, at, limit, path)
	(*d.spans)[idx].End = next
	if n.Kind.IsAligned() {
		(*d.spans)[idx].Start = at.Aligned()
	}
	return v, next, err
}

func (d *decoder) decodeNode(n *types.Node, at spac.Cursor, limit int, path []string) (any, spac.Cursor, error) {
	switch n.Kind {
	case types.KindVoid:
		return n.Void, at, nil

	case types.KindBool:
		if at.Byte >= limit {
			return nil, at, errors.Truncated(path, at.Byte, 1, limit)
		}
		return d.buf[at.Byte]&(1<<at.Bit) != 0, at.AdvanceBit(), nil

	case types.KindInteger:
		u, next, err := d.varint(at, limit, path)
		if err != nil {
			return nil, at, err
		}
		if n.Zigzag {
			x := varint.Unzigzag(u)
			if !abi.InSafeRange(x) {
				return nil, at, errors.Corrupt(path, "integer outside the safe range")
			}
			return x, next, nil
		}
		if u > abi.MaxSafeInteger {
			return nil, at, errors.Corrupt(path, "integer outside the safe range")
		}
		return int64(u), next, nil

	case types.KindString:
		raw, next, err := d.prefixed(at, limit, path)
		if err != nil {
			return nil, at, err
		}
		s, err := text.Decode(raw)
		if err != nil {
			return nil, at, errors.New(errors.PhaseDecode, errors.KindCorrupt).Path(path...).Cause(err).Build()
		}
		return s, next, nil

	case types.KindBytes:
		raw, next, err := d.prefixed(at, limit, path)
		if err != nil {
			return nil, at, err
		}
		return bytes.Clone(raw), next, nil

	case types.KindUnknown:
		tag, afterTag, err := d.tag(at, limit, path)
		if err != nil {
			return nil, at, err
		}
		raw, next, err := d.prefixed(afterTag, limit, path)
		if err != nil {
			return nil, at, err
		}
		return UnknownVariant{Index: tag, Payload: bytes.Clone(raw)}, next, nil

	case types.KindRecord:
		return d.decodeRecord(n, at, limit, path)

	case types.KindUnion:
		return d.decodeUnion(n, at, limit, path)

	case types.KindAdapter:
		base, next, err := d.decode(n.Base, at, limit, path)
		if err != nil {
			return nil, at, err
		}
		v, err := n.Adapter.FromBase(base)
		if err != nil {
			return nil, at, errors.Adapter(errors.PhaseDecode, path, n.Adapter.TypeName, err)
		}
		return v, next, nil

	default:
		return nil, at, errors.Unsupported(errors.PhaseDecode, "node kind "+n.Kind.String())
	}
}

// decodeRecord reads the fields inside the window declared by the length
// tag. Fields past the end of an older, shorter payload are left out of
// the map; the cursor always lands on the end of the window.
func (d *decoder) decodeRecord(n *types.Node, at spac.Cursor, limit int, path []string) (any, spac.Cursor, error) {
	start, end, err := d.window(at, limit, path)
	if err != nil {
		return nil, at, err
	}

	m := make(map[string]any, len(n.Fields))
	cur := start
	for _, f := range n.Fields {
		if f.Node.NeedsInput() && exhausted(cur, f.Node, end) {
			break
		}
		v, next, err := d.decode(f.Node, cur, end, abi.Extend(path, f.Name))
		if err != nil {
			return nil, at, err
		}
		m[f.Name] = v
		cur = next
	}
	return m, spac.At(end), nil
}

// decodeUnion reads the tag and the declared length. Unknown tags become
// an UnknownVariant and are skipped by exactly the declared length.
func (d *decoder) decodeUnion(n *types.Node, at spac.Cursor, limit int, path []string) (any, spac.Cursor, error) {
	tag, afterTag, err := d.tag(at, limit, path)
	if err != nil {
		return nil, at, err
	}
	start, end, err := d.window(afterTag, limit, path)
	if err != nil {
		return nil, at, err
	}

	if tag >= len(n.Cases) {
		return UnknownVariant{Index: tag, Payload: bytes.Clone(d.buf[start.Byte:end])}, spac.At(end), nil
	}

	c := n.Cases[tag]
	casePath := abi.Extend(path, c.Label)
	var v any
	if c.Shared {
		v, _, err = d.decode(c.Node, afterTag, end, casePath)
		if err != nil {
			return nil, at, err
		}
	} else {
		var next spac.Cursor
		v, next, err = d.decode(c.Node, start, end, casePath)
		if err != nil {
			return nil, at, err
		}
		if next.Aligned().Byte != end {
			return nil, at, errors.New(errors.PhaseDecode, errors.KindCorrupt).
				Path(casePath...).
				Detail("payload ends at %d, length tag declares %d", next.Aligned().Byte, end).
				Build()
		}
	}

	if c.Merged {
		m := v.(map[string]any)
		m[n.Discriminant] = c.Label
		return m, spac.At(end), nil
	}
	return map[string]any{n.Discriminant: c.Label, ValueKey: v}, spac.At(end), nil
}

// exhausted reports whether a field that needs input starts at or past
// the end of its record's window.
func exhausted(cur spac.Cursor, n *types.Node, end int) bool {
	if n.IsBits() {
		return cur.Byte >= end
	}
	return cur.Aligned().Byte >= end
}

func (d *decoder) varint(at spac.Cursor, limit int, path []string) (uint64, spac.Cursor, error) {
	pos := at.Aligned()
	if pos.Byte >= limit {
		return 0, at, errors.Truncated(path, pos.Byte, 1, limit)
	}
	u, n := varint.Consume(d.buf[pos.Byte:limit])
	switch n {
	case varint.Truncated:
		return 0, at, errors.Truncated(path, pos.Byte, limit-pos.Byte+1, limit)
	case varint.Overflow:
		return 0, at, errors.Corrupt(path, "varint exceeds 64 bits")
	}
	return u, pos.AdvanceBytes(n), nil
}

func (d *decoder) tag(at spac.Cursor, limit int, path []string) (int, spac.Cursor, error) {
	u, next, err := d.varint(at, limit, path)
	if err != nil {
		return 0, at, err
	}
	if u > math.MaxInt32 {
		return 0, at, errors.Corrupt(path, "union tag out of range")
	}
	return int(u), next, nil
}

// window reads a length tag and returns the cursor after it and the end
// of the declared payload.
func (d *decoder) window(at spac.Cursor, limit int, path []string) (spac.Cursor, int, error) {
	l, start, err := d.varint(at, limit, path)
	if err != nil {
		return at, 0, err
	}
	if l > uint64(limit-start.Byte) {
		return at, 0, errors.Truncated(path, start.Byte, int(min(l, math.MaxInt32)), limit)
	}
	return start, start.Byte + int(l), nil
}

func (d *decoder) prefixed(at spac.Cursor, limit int, path []string) ([]byte, spac.Cursor, error) {
	start, end, err := d.window(at, limit, path)
	if err != nil {
		return nil, at, err
	}
	return d.buf[start.Byte:end], spac.At(end), nil
}
