package codec

import (
	"sort"
	"strconv"

	"github.com/wippyai/spac/codec/internal/abi"
	"github.com/wippyai/spac/codec/internal/types"
	"github.com/wippyai/spac/errors"
	"github.com/wippyai/spac/shape"
)

// compiler turns (shape, memory form, wire form) into a node tree. It runs
// with the registry lock held and stages new definitions until the whole
// tree compiles. A definition is staged before its children compile, so a
// recursive reference resolves to the node being built.
type compiler struct {
	reg    *Registry
	staged map[string]*Definition
	order  []*Definition
}

func (c *compiler) find(name string) (*Definition, bool) {
	if def, ok := c.staged[name]; ok {
		return def, true
	}
	return c.reg.lookup(name)
}

func (c *compiler) stage(def *Definition) error {
	if _, exists := c.find(def.Name); exists {
		return errors.Duplicate("definition", def.Name)
	}
	c.staged[def.Name] = def
	c.order = append(c.order, def)
	return nil
}

func (c *compiler) commit() {
	for _, def := range c.order {
		c.reg.add(def)
	}
}

func (c *compiler) compile(s shape.Shape, mem Mem, wire Wire, path []string) (*types.Node, error) {
	if a, ok := mem.(*MemAdapter); ok {
		return c.compileAdapter(s, a, wire, path)
	}
	if ref, ok := mem.(MemRef); ok {
		return c.compileRef(s, ref.Name, wire, path)
	}
	if ref, ok := wire.(WireRef); ok {
		if mem != nil {
			return nil, errors.New(errors.PhaseBind, errors.KindShapeMismatch).
				Path(path...).
				Detail("wire reference %q cannot be combined with an explicit memory form", ref.Name).
				Build()
		}
		return c.compileRef(s, ref.Name, nil, path)
	}

	// Default derivation reuses a definition bound earlier for the same
	// shape.
	if mem == nil && wire == nil {
		if name := definitionName(s); name != "" {
			if def, ok := c.find(name); ok {
				if def.Shape != s {
					return nil, errors.New(errors.PhaseBind, errors.KindDuplicate).
						Path(path...).
						Detail("name %q is registered with a different shape", name).
						Build()
				}
				return def.node, nil
			}
		}
	}

	if mem != nil {
		if kind, desc := memKind(mem); kind != s.Kind() {
			return nil, errors.ShapeMismatch(path, s.String(), desc)
		}
	}
	if wire != nil {
		if kind, desc := wireKind(wire); kind != s.Kind() {
			return nil, errors.ShapeMismatch(path, s.String(), desc)
		}
	}

	switch t := s.(type) {
	case shape.Void:
		node := &types.Node{Kind: types.KindVoid, Shape: t}
		if m, ok := mem.(MemVoid); ok && m.Sentinel == VoidUnit {
			node.Void = Unit{}
		}
		return node, nil
	case shape.Bool:
		return &types.Node{Kind: types.KindBool, Shape: t}, nil
	case shape.Integer:
		return c.compileInteger(t, mem, wire, path)
	case shape.String:
		if m, ok := mem.(MemString); ok && m.Encoding != UTF16 {
			return nil, errors.New(errors.PhaseBind, errors.KindUnsupported).
				Path(path...).
				Detail("only UTF-16 text is supported").
				Build()
		}
		return &types.Node{Kind: types.KindString, Shape: t}, nil
	case shape.Bytes:
		return &types.Node{Kind: types.KindBytes, Shape: t}, nil
	case shape.Unknown:
		return &types.Node{Kind: types.KindUnknown, Shape: t}, nil
	case *shape.Record:
		m, _ := mem.(*MemRecord)
		w, _ := wire.(*WireRecord)
		return c.compileRecord(t, m, w, path)
	case *shape.Union:
		m, _ := mem.(*MemUnion)
		w, _ := wire.(*WireUnion)
		return c.compileUnion(t, m, w, path)
	default:
		return nil, errors.InvalidShape(path, "unknown shape case")
	}
}

func (c *compiler) compileRef(s shape.Shape, name string, wire Wire, path []string) (*types.Node, error) {
	def, ok := c.find(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseBind, "definition", name)
	}
	if def.Shape != s {
		return nil, errors.ShapeMismatch(path, s.String(), "reference to "+def.Shape.String())
	}
	if wire != nil {
		if ref, ok := wire.(WireRef); !ok || ref.Name != name {
			return nil, errors.New(errors.PhaseBind, errors.KindShapeMismatch).
				Path(path...).
				Detail("referenced definition %q has a fixed wire form", name).
				Build()
		}
	}
	return def.node, nil
}

func (c *compiler) compileAdapter(s shape.Shape, a *MemAdapter, wire Wire, path []string) (*types.Node, error) {
	if a.toBase == nil || a.fromBase == nil {
		return nil, errors.New(errors.PhaseBind, errors.KindInvalidData).
			Path(path...).
			Detail("adapter %q has no conversion functions", a.Symbols.TypeName).
			Build()
	}
	base, err := c.compile(s, a.Base, wire, path)
	if err != nil {
		return nil, err
	}
	return &types.Node{
		Kind:  types.KindAdapter,
		Shape: s,
		Base:  base,
		Adapter: &types.Adapter{
			ToBase:   a.toBase,
			FromBase: a.fromBase,
			TypeName: a.Symbols.TypeName,
			Module:   a.Symbols.DefinedIn,
			ToSym:    a.Symbols.ToBase,
			FromSym:  a.Symbols.FromBase,
		},
	}, nil
}

func (c *compiler) compileInteger(t shape.Integer, mem Mem, wire Wire, path []string) (*types.Node, error) {
	if m, ok := mem.(MemInteger); ok && m.Precision != Native {
		return nil, errors.New(errors.PhaseBind, errors.KindUnsupported).
			Path(path...).
			Detail("extended-precision integers are not supported").
			Build()
	}

	form := defaultForm(t)
	if w, ok := wire.(WireInteger); ok && w.Form != FormAuto {
		form = w.Form
	}
	if form == Varuint && t.Signed() {
		return nil, errors.New(errors.PhaseBind, errors.KindShapeMismatch).
			Path(path...).
			Shape(t.String()).
			Detail("varuint cannot carry an integer that may be negative").
			Build()
	}

	return &types.Node{
		Kind:   types.KindInteger,
		Shape:  t,
		Int:    t,
		Zigzag: form == Varsint,
	}, nil
}

func (c *compiler) compileRecord(t *shape.Record, m *MemRecord, w *WireRecord, path []string) (*types.Node, error) {
	node := &types.Node{
		Kind:   types.KindRecord,
		Shape:  t,
		Name:   t.Name,
		Fields: make([]types.Field, 0, len(t.Fields)),
	}

	var memFields map[string]Mem
	if m != nil {
		if m.Name != "" {
			node.Name = m.Name
		}
		node.Module = m.DefinedIn
		memFields = m.Fields
	}
	var wireFields map[string]Wire
	if w != nil {
		wireFields = w.Fields
	}
	if err := checkFieldNames(t, sortedKeys(memFields), "memory", path); err != nil {
		return nil, err
	}
	if err := checkFieldNames(t, sortedKeys(wireFields), "wire", path); err != nil {
		return nil, err
	}

	def := &Definition{Shape: t, node: node, Name: node.Name, DefinedIn: node.Module}
	if err := c.stage(def); err != nil {
		return nil, err
	}

	for _, f := range t.Fields {
		child, err := c.compile(f.Shape, memFields[f.Name], wireFields[f.Name], abi.Extend(path, f.Name))
		if err != nil {
			return nil, err
		}
		node.Fields = append(node.Fields, types.Field{Name: f.Name, Node: child})
	}
	return node, nil
}

func (c *compiler) compileUnion(t *shape.Union, m *MemUnion, w *WireUnion, path []string) (*types.Node, error) {
	node := &types.Node{
		Kind:         types.KindUnion,
		Shape:        t,
		Name:         t.Name,
		Discriminant: DefaultDiscriminant,
		Cases:        make([]types.Case, 0, len(t.Alternatives)),
	}

	var memAlts []Mem
	if m != nil {
		if m.Name != "" {
			node.Name = m.Name
		}
		if m.Discriminant != "" {
			node.Discriminant = m.Discriminant
		}
		node.Module = m.DefinedIn
		memAlts = m.Alternatives
	}
	var wireAlts []Wire
	if w != nil {
		wireAlts = w.Alternatives
	}
	if len(memAlts) > len(t.Alternatives) || len(wireAlts) > len(t.Alternatives) {
		return nil, errors.New(errors.PhaseBind, errors.KindShapeMismatch).
			Path(path...).
			Detail("union %s has %d alternatives, representation lists more", t.Name, len(t.Alternatives)).
			Build()
	}

	def := &Definition{Shape: t, node: node, Name: node.Name, DefinedIn: node.Module}
	if err := c.stage(def); err != nil {
		return nil, err
	}

	for i, a := range t.Alternatives {
		var am Mem
		if i < len(memAlts) {
			am = memAlts[i]
		}
		var aw Wire
		if i < len(wireAlts) {
			aw = wireAlts[i]
		}
		label := t.Label(i)
		child, err := c.compile(a.Shape, am, aw, abi.Extend(path, label))
		if err != nil {
			return nil, err
		}

		merged := child.Kind == types.KindRecord
		if merged {
			if _, clash := a.Shape.(*shape.Record).Field(node.Discriminant); clash {
				return nil, errors.New(errors.PhaseBind, errors.KindShapeMismatch).
					Path(abi.Extend(path, label)...).
					Detail("field %q collides with the union discriminant", node.Discriminant).
					Build()
			}
		}
		node.Cases = append(node.Cases, types.Case{
			Node:       child,
			Label:      label,
			Shared:     a.Shape.Kind() == shape.KindRecord,
			Merged:     merged,
			Deprecated: t.IsDeprecated(i),
		})
	}
	return node, nil
}

func checkFieldNames(t *shape.Record, names []string, repr string, path []string) error {
	for _, name := range names {
		if _, ok := t.Field(name); !ok {
			return errors.New(errors.PhaseBind, errors.KindNotFound).
				Path(path...).
				Detail("%s form names unknown field %q of record %s", repr, name, t.Name).
				Build()
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func definitionName(s shape.Shape) string {
	switch t := s.(type) {
	case *shape.Record:
		return t.Name
	case *shape.Union:
		return t.Name
	}
	return ""
}

func memKind(m Mem) (shape.Kind, string) {
	switch t := m.(type) {
	case MemVoid:
		return shape.KindVoid, "void memory"
	case MemBool:
		return shape.KindBool, "bool memory"
	case MemInteger:
		return shape.KindInteger, "integer memory"
	case MemString:
		return shape.KindString, "string memory"
	case MemBytes:
		return shape.KindBytes, "bytes memory"
	case MemUnknown:
		return shape.KindUnknown, "unknown memory"
	case *MemRecord:
		return shape.KindRecord, "record memory"
	case *MemUnion:
		return shape.KindUnion, "union memory"
	default:
		return shape.Kind(255), "memory " + strconv.Quote(abi.TypeName(t))
	}
}

func wireKind(w Wire) (shape.Kind, string) {
	switch t := w.(type) {
	case WireVoid:
		return shape.KindVoid, "void wire"
	case WireBool:
		return shape.KindBool, "bool wire"
	case WireInteger:
		return shape.KindInteger, t.Form.String() + " wire"
	case WireString:
		return shape.KindString, "string wire"
	case WireBytes:
		return shape.KindBytes, "bytes wire"
	case WireUnknown:
		return shape.KindUnknown, "unknown wire"
	case *WireRecord:
		return shape.KindRecord, "record wire"
	case *WireUnion:
		return shape.KindUnion, "union wire"
	default:
		return shape.Kind(255), "wire " + strconv.Quote(abi.TypeName(t))
	}
}
