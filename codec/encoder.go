package codec

import (
	"github.com/wippyai/spac"
	"github.com/wippyai/spac/codec/internal/abi"
	"github.com/wippyai/spac/codec/internal/text"
	"github.com/wippyai/spac/codec/internal/types"
	"github.com/wippyai/spac/codec/internal/varint"
	"github.com/wippyai/spac/errors"
)

// encoder writes a value whose window lengths were measured up front by
// plan, so no nested value is sized twice.
type encoder struct {
	buf     []byte
	extents []int
	next    int
	phase   errors.Phase
}

// plan sizes v once, reporting failures under phase, and returns an
// encoder primed with the measured windows together with the total extent.
func plan(root *types.Node, v any, phase errors.Phase) (*encoder, spac.Size, error) {
	var extents []int
	s, err := sizer{phase: phase, extents: &extents}.size(root, v, nil)
	if err != nil {
		return nil, spac.Size{}, err
	}
	return &encoder{extents: extents, phase: errors.PhaseEncode}, s, nil
}

// window returns the next measured window length; take also consumes it.
func (e *encoder) window(take bool) int {
	l := e.extents[e.next]
	if take {
		e.next++
	}
	return l
}

func (e *encoder) encode(n *types.Node, v any, at spac.Cursor, path []string) (spac.Cursor, error) {
	switch n.Kind {
	case types.KindVoid:
		return at, nil

	case types.KindBool:
		b, ok := v.(bool)
		if !ok {
			return at, errors.TypeMismatch(e.phase, path, abi.TypeName(v), "bool")
		}
		if at.Byte >= len(e.buf) {
			return at, errors.OutOfBounds(e.phase, path, at.Byte+1, len(e.buf))
		}
		// Bits above this one are not written yet.
		e.buf[at.Byte] &^= ^byte(0) << at.Bit
		if b {
			e.buf[at.Byte] |= 1 << at.Bit
		}
		return at.AdvanceBit(), nil

	case types.KindInteger:
		u, err := wireInteger(n, v, path, e.phase)
		if err != nil {
			return at, err
		}
		pos := at.Aligned()
		if err := e.reserve(pos, varint.Size(u), path); err != nil {
			return at, err
		}
		return e.putVarint(pos, u), nil

	case types.KindString:
		s, ok := v.(string)
		if !ok {
			return at, errors.TypeMismatch(e.phase, path, abi.TypeName(v), "string")
		}
		l := text.EncodedLen(s)
		pos := at.Aligned()
		if err := e.reserve(pos, varint.Size(uint64(l))+l, path); err != nil {
			return at, err
		}
		start := e.putVarint(pos, uint64(l))
		if _, err := text.Encode(e.buf[start.Byte:start.Byte+l], s); err != nil {
			return at, errors.New(e.phase, errors.KindInvalidData).Path(path...).Cause(err).Build()
		}
		return start.AdvanceBytes(l), nil

	case types.KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return at, errors.TypeMismatch(e.phase, path, abi.TypeName(v), "[]byte")
		}
		pos := at.Aligned()
		if err := e.reserve(pos, varint.Size(uint64(len(b)))+len(b), path); err != nil {
			return at, err
		}
		start := e.putVarint(pos, uint64(len(b)))
		copy(e.buf[start.Byte:], b)
		return start.AdvanceBytes(len(b)), nil

	case types.KindUnknown:
		return at, unknownEncode(e.phase, path)

	case types.KindRecord:
		return e.encodeRecord(n, v, at, path)

	case types.KindUnion:
		return e.encodeUnion(n, v, at, path)

	case types.KindAdapter:
		base, err := toBase(n, v, path, e.phase)
		if err != nil {
			return at, err
		}
		return e.encode(n.Base, base, at, path)

	default:
		return at, errors.Unsupported(e.phase, "node kind "+n.Kind.String())
	}
}

// encodeRecord writes the length tag, then the fields inside the declared
// window. The whole record is validated and its room checked before the
// first byte is written.
func (e *encoder) encodeRecord(n *types.Node, v any, at spac.Cursor, path []string) (spac.Cursor, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return at, errors.TypeMismatch(e.phase, path, abi.TypeName(v), "map[string]any")
	}
	l := e.window(true)
	pos := at.Aligned()
	if err := e.reserve(pos, varint.Size(uint64(l))+l, path); err != nil {
		return at, err
	}

	start := e.putVarint(pos, uint64(l))
	clear(e.buf[start.Byte : start.Byte+l])
	cur := start
	var err error
	for _, f := range n.Fields {
		cur, err = e.encode(f.Node, m[f.Name], cur, abi.Extend(path, f.Name))
		if err != nil {
			return at, err
		}
	}
	return start.AdvanceBytes(l), nil
}

// encodeUnion writes the alternative's tag followed by its payload. A
// record payload brings its own length tag; anything else is wrapped in
// one.
func (e *encoder) encodeUnion(n *types.Node, v any, at spac.Cursor, path []string) (spac.Cursor, error) {
	i, payload, err := selectCase(n, v, path, e.phase)
	if err != nil {
		return at, err
	}
	c := n.Cases[i]
	casePath := abi.Extend(path, c.Label)

	// A shared record payload consumes its window itself.
	l := e.window(!c.Shared)
	pos := at.Aligned()
	if err := e.reserve(pos, varint.Size(uint64(i))+varint.Size(uint64(l))+l, path); err != nil {
		return at, err
	}
	cur := e.putVarint(pos, uint64(i))
	if c.Shared {
		return e.encode(c.Node, payload, cur, casePath)
	}

	start := e.putVarint(cur, uint64(l))
	clear(e.buf[start.Byte : start.Byte+l])
	if _, err := e.encode(c.Node, payload, start, casePath); err != nil {
		return at, err
	}
	return start.AdvanceBytes(l), nil
}

// reserve checks that n bytes fit at the aligned cursor pos.
func (e *encoder) reserve(pos spac.Cursor, n int, path []string) error {
	if pos.Byte+n > len(e.buf) {
		return errors.OutOfBounds(e.phase, path, pos.Byte+n, len(e.buf))
	}
	return nil
}

// putVarint writes u at the aligned cursor pos. Callers reserve first.
func (e *encoder) putVarint(pos spac.Cursor, u uint64) spac.Cursor {
	return pos.AdvanceBytes(varint.Put(e.buf[pos.Byte:], u))
}
