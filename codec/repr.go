package codec

import "github.com/wippyai/spac/shape"

// Mem describes how values of a shape look in memory. The set of
// implementations is closed. A nil Mem anywhere means the default for the
// shape at that position.
type Mem interface {
	mem()
}

// VoidSentinel selects the Go value produced for Void positions.
type VoidSentinel uint8

const (
	// VoidNil decodes Void as nil.
	VoidNil VoidSentinel = iota
	// VoidUnit decodes Void as Unit{}.
	VoidUnit
)

// Precision selects the memory width of integers.
type Precision uint8

const (
	// Native integers are int64 values limited to ±(2^53-1).
	Native Precision = iota
	// Extended integers are not supported and fail at bind time.
	Extended
)

// TextEncoding selects the in-memory text form.
type TextEncoding uint8

const (
	// UTF16 text travels as UTF-16 code units.
	UTF16 TextEncoding = iota
	// UTF8 text on the wire is not supported and fails at bind time.
	UTF8
)

// DefaultDiscriminant is the map key naming a union's selected
// alternative when MemUnion.Discriminant is empty.
const DefaultDiscriminant = "_type"

// ValueKey holds the payload of a non-record union alternative.
const ValueKey = "value"

type (
	MemVoid    struct{ Sentinel VoidSentinel }
	MemBool    struct{}
	MemInteger struct{ Precision Precision }
	MemString  struct{ Encoding TextEncoding }
	MemBytes   struct{}
	MemUnknown struct{}

	// MemRecord decodes to map[string]any. Fields maps a field name to
	// its memory form; missing entries use the default.
	MemRecord struct {
		Fields    map[string]Mem
		Name      string // defaults to the shape's name
		DefinedIn string
	}

	// MemUnion decodes to a map holding the discriminant. Alternatives is
	// positional; missing or nil entries use the default.
	MemUnion struct {
		Alternatives []Mem
		Name         string
		DefinedIn    string
		Discriminant string
	}

	// MemRef names a registered definition instead of restating it.
	MemRef struct{ Name string }
)

func (MemVoid) mem()    {}
func (MemBool) mem()    {}
func (MemInteger) mem() {}
func (MemString) mem()  {}
func (MemBytes) mem()   {}
func (MemUnknown) mem() {}
func (*MemRecord) mem() {}
func (*MemUnion) mem()  {}
func (MemRef) mem()     {}

// Wire describes the byte layout of a shape. The set of implementations
// is closed. A nil Wire anywhere means the default for the shape.
type Wire interface {
	wire()
}

// IntForm selects the wire form of an integer.
type IntForm uint8

const (
	// FormAuto derives the form from the shape's bounds.
	FormAuto IntForm = iota
	// Varuint is a plain varint; only valid for non-negative shapes.
	Varuint
	// Varsint is a zigzag varint.
	Varsint
)

func (f IntForm) String() string {
	switch f {
	case Varuint:
		return "varuint"
	case Varsint:
		return "varsint"
	default:
		return "auto"
	}
}

type (
	WireVoid    struct{}
	WireBool    struct{}
	WireInteger struct{ Form IntForm }
	WireString  struct{}
	WireBytes   struct{}
	WireUnknown struct{}

	WireRecord struct {
		Fields map[string]Wire
	}

	WireUnion struct {
		Alternatives []Wire
	}

	WireRef struct{ Name string }
)

func (WireVoid) wire()    {}
func (WireBool) wire()    {}
func (WireInteger) wire() {}
func (WireString) wire()  {}
func (WireBytes) wire()   {}
func (WireUnknown) wire() {}
func (*WireRecord) wire() {}
func (*WireUnion) wire()  {}
func (WireRef) wire()     {}

// DefaultMem returns the default memory form of s, fully expanded. A
// named definition that appears more than once is expanded at its first
// occurrence and referenced by MemRef afterwards.
func DefaultMem(s shape.Shape) Mem {
	return defaultMem(s, map[shape.Shape]bool{})
}

func defaultMem(s shape.Shape, seen map[shape.Shape]bool) Mem {
	switch t := s.(type) {
	case shape.Void:
		return MemVoid{Sentinel: VoidNil}
	case shape.Bool:
		return MemBool{}
	case shape.Integer:
		return MemInteger{Precision: Native}
	case shape.String:
		return MemString{Encoding: UTF16}
	case shape.Bytes:
		return MemBytes{}
	case shape.Unknown:
		return MemUnknown{}
	case *shape.Record:
		if seen[t] {
			return MemRef{Name: t.Name}
		}
		seen[t] = true
		m := &MemRecord{Name: t.Name, Fields: make(map[string]Mem, len(t.Fields))}
		for _, f := range t.Fields {
			m.Fields[f.Name] = defaultMem(f.Shape, seen)
		}
		return m
	case *shape.Union:
		if seen[t] {
			return MemRef{Name: t.Name}
		}
		seen[t] = true
		m := &MemUnion{
			Name:         t.Name,
			Discriminant: DefaultDiscriminant,
			Alternatives: make([]Mem, len(t.Alternatives)),
		}
		for i, a := range t.Alternatives {
			m.Alternatives[i] = defaultMem(a.Shape, seen)
		}
		return m
	default:
		return nil
	}
}

// DefaultWire returns the default wire form of s, fully expanded:
// varuint for integers that can never be negative, varsint otherwise.
func DefaultWire(s shape.Shape) Wire {
	return defaultWire(s, map[shape.Shape]bool{})
}

func defaultWire(s shape.Shape, seen map[shape.Shape]bool) Wire {
	switch t := s.(type) {
	case shape.Void:
		return WireVoid{}
	case shape.Bool:
		return WireBool{}
	case shape.Integer:
		return WireInteger{Form: defaultForm(t)}
	case shape.String:
		return WireString{}
	case shape.Bytes:
		return WireBytes{}
	case shape.Unknown:
		return WireUnknown{}
	case *shape.Record:
		if seen[t] {
			return WireRef{Name: t.Name}
		}
		seen[t] = true
		w := &WireRecord{Fields: make(map[string]Wire, len(t.Fields))}
		for _, f := range t.Fields {
			w.Fields[f.Name] = defaultWire(f.Shape, seen)
		}
		return w
	case *shape.Union:
		if seen[t] {
			return WireRef{Name: t.Name}
		}
		seen[t] = true
		w := &WireUnion{Alternatives: make([]Wire, len(t.Alternatives))}
		for i, a := range t.Alternatives {
			w.Alternatives[i] = defaultWire(a.Shape, seen)
		}
		return w
	default:
		return nil
	}
}

func defaultForm(i shape.Integer) IntForm {
	if i.Signed() {
		return Varsint
	}
	return Varuint
}
