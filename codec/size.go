package codec

import (
	"github.com/wippyai/spac"
	"github.com/wippyai/spac/codec/internal/abi"
	"github.com/wippyai/spac/codec/internal/text"
	"github.com/wippyai/spac/codec/internal/types"
	"github.com/wippyai/spac/codec/internal/varint"
	"github.com/wippyai/spac/errors"
)

// sizer predicts encoded extents. It validates every value it visits, so
// a successful prediction guarantees the encoder will not reject the
// value. phase tags the errors it reports. When extents is set, the
// window length of every record and non-shared union payload is
// appended in pre-order for the encoder to consume.
type sizer struct {
	phase   errors.Phase
	extents *[]int
}

// mark reserves the next extent slot and returns its index, or -1 when
// extents are not recorded.
func (z sizer) mark() int {
	if z.extents == nil {
		return -1
	}
	*z.extents = append(*z.extents, 0)
	return len(*z.extents) - 1
}

func (z sizer) fill(slot, n int) {
	if slot >= 0 {
		(*z.extents)[slot] = n
	}
}

func (z sizer) size(n *types.Node, v any, path []string) (spac.Size, error) {
	switch n.Kind {
	case types.KindVoid:
		return spac.Size{}, nil

	case types.KindBool:
		if _, ok := v.(bool); !ok {
			return spac.Size{}, errors.TypeMismatch(z.phase, path, abi.TypeName(v), "bool")
		}
		return spac.Bits(1), nil

	case types.KindInteger:
		u, err := wireInteger(n, v, path, z.phase)
		if err != nil {
			return spac.Size{}, err
		}
		return spac.Bytes(varint.Size(u)), nil

	case types.KindString:
		s, ok := v.(string)
		if !ok {
			return spac.Size{}, errors.TypeMismatch(z.phase, path, abi.TypeName(v), "string")
		}
		return prefixed(text.EncodedLen(s)), nil

	case types.KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return spac.Size{}, errors.TypeMismatch(z.phase, path, abi.TypeName(v), "[]byte")
		}
		return prefixed(len(b)), nil

	case types.KindUnknown:
		return spac.Size{}, unknownEncode(z.phase, path)

	case types.KindRecord:
		slot := z.mark()
		inner, err := z.fields(n, v, path)
		if err != nil {
			return spac.Size{}, err
		}
		z.fill(slot, inner.Len())
		return tagged(inner), nil

	case types.KindUnion:
		i, payload, err := selectCase(n, v, path, z.phase)
		if err != nil {
			return spac.Size{}, err
		}
		c := n.Cases[i]
		slot := -1
		if !c.Shared {
			slot = z.mark()
		}
		ps, err := z.size(c.Node, payload, abi.Extend(path, c.Label))
		if err != nil {
			return spac.Size{}, err
		}
		if !c.Shared {
			z.fill(slot, ps.Len())
			ps = tagged(ps)
		}
		return spac.Bytes(varint.Size(uint64(i))).Then(ps), nil

	case types.KindAdapter:
		base, err := toBase(n, v, path, z.phase)
		if err != nil {
			return spac.Size{}, err
		}
		return z.size(n.Base, base, path)

	default:
		return spac.Size{}, errors.Unsupported(z.phase, "node kind "+n.Kind.String())
	}
}

// fields returns the extent of a record's fields without its length tag.
func (z sizer) fields(n *types.Node, v any, path []string) (spac.Size, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return spac.Size{}, errors.TypeMismatch(z.phase, path, abi.TypeName(v), "map[string]any")
	}

	var total spac.Size
	for _, f := range n.Fields {
		fv, present := m[f.Name]
		if !present && f.Node.NeedsInput() {
			return spac.Size{}, errors.FieldMissing(z.phase, path, f.Name)
		}
		s, err := z.size(f.Node, fv, abi.Extend(path, f.Name))
		if err != nil {
			return spac.Size{}, err
		}
		total = total.Then(s)
	}
	return total, nil
}

func prefixed(n int) spac.Size {
	return spac.Bytes(varint.Size(uint64(n)) + n)
}

func tagged(inner spac.Size) spac.Size {
	return inner.Tagged(varint.Size(uint64(inner.Len())))
}

// wireInteger checks v against the safe range and the shape's bounds and
// returns the unsigned value the varint carries.
func wireInteger(n *types.Node, v any, path []string, phase errors.Phase) (uint64, error) {
	x, ok := abi.CoerceToInt64(v)
	if !ok {
		return 0, errors.TypeMismatch(phase, path, abi.TypeName(v), n.Int.String())
	}
	if !abi.InSafeRange(x) {
		return 0, errors.OutOfRange(phase, path, x, "the safe integer range ±(2^53-1)")
	}
	if !n.Int.Contains(x) {
		return 0, errors.OutOfRange(phase, path, x, n.Int.String())
	}
	if n.Zigzag {
		return varint.Zigzag(x), nil
	}
	if x < 0 {
		return 0, errors.OutOfRange(phase, path, x, "varuint")
	}
	return uint64(x), nil
}

// selectCase resolves which alternative a union value selects and the
// payload to encode under it.
func selectCase(n *types.Node, v any, path []string, phase errors.Phase) (int, any, error) {
	if _, ok := v.(UnknownVariant); ok {
		return 0, nil, unknownEncode(phase, path)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return 0, nil, errors.TypeMismatch(phase, path, abi.TypeName(v), "map[string]any")
	}
	d, ok := m[n.Discriminant]
	if !ok {
		return 0, nil, errors.FieldMissing(phase, path, n.Discriminant)
	}

	i := -1
	if s, ok := d.(string); ok {
		for idx, c := range n.Cases {
			if c.Label == s {
				i = idx
				break
			}
		}
	}
	if i < 0 {
		if idx, ok := abi.CoerceToIndex(d); ok && idx < len(n.Cases) {
			i = idx
		}
	}
	if i < 0 {
		return 0, nil, errors.NoAlternative(phase, path, n.Discriminant, d)
	}

	c := n.Cases[i]
	if c.Deprecated {
		return 0, nil, errors.New(phase, errors.KindInvalidVariant).
			Path(path...).
			Value(d).
			Detail("alternative %s of %s is deprecated", c.Label, n.Name).
			Build()
	}
	if c.Merged {
		return i, m, nil
	}
	payload, ok := m[ValueKey]
	if !ok && c.Node.NeedsInput() {
		return 0, nil, errors.FieldMissing(phase, abi.Extend(path, c.Label), ValueKey)
	}
	return i, payload, nil
}

func toBase(n *types.Node, v any, path []string, phase errors.Phase) (any, error) {
	base, err := n.Adapter.ToBase(v)
	if err != nil {
		return nil, errors.Adapter(phase, path, n.Adapter.TypeName, err)
	}
	return base, nil
}

func unknownEncode(phase errors.Phase, path []string) error {
	return errors.New(phase, errors.KindInvalidVariant).
		Path(path...).
		Detail("unknown variants can be decoded but never encoded").
		Build()
}
