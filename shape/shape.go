package shape

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Shape is an abstract data type, independent of memory or wire layout.
// The set of implementations is closed; switch on the concrete type or on
// Kind() to handle every case.
type Shape interface {
	Kind() Kind
	String() string
	sealed()
}

type (
	// Void carries no data.
	Void struct{}
	// Bool is a single packed bit on the wire.
	Bool struct{}
	// String is text.
	String struct{}
	// Bytes is an opaque byte sequence.
	Bytes struct{}
	// Unknown is the catch-all for union alternatives a schema does not
	// know about. Values of it can be decoded and skipped, never encoded.
	Unknown struct{}
)

// Integer is a whole number with optional inclusive bounds. Signedness is
// derived from the lower bound.
type Integer struct {
	Min    int64
	Max    int64
	HasMin bool
	HasMax bool
}

// Field is a named record member.
type Field struct {
	Shape Shape
	Name  string
}

// Record is a named, ordered list of fields. Deprecated holds field names
// that were removed and must never be reused.
type Record struct {
	Name       string
	Fields     []Field
	Deprecated []string
}

// Alternative is one case of a tagged union. Name may be empty, in which
// case the alternative is known by its position only.
type Alternative struct {
	Shape Shape
	Name  string
}

// Union is a named tagged union. The position of an alternative is its
// wire tag; renaming never changes it. Deprecated holds positions that are
// retired but kept so later alternatives keep their tags.
type Union struct {
	Name         string
	Alternatives []Alternative
	Deprecated   []int
}

func (Void) Kind() Kind    { return KindVoid }
func (Bool) Kind() Kind    { return KindBool }
func (Integer) Kind() Kind { return KindInteger }
func (String) Kind() Kind  { return KindString }
func (Bytes) Kind() Kind   { return KindBytes }
func (Unknown) Kind() Kind { return KindUnknown }
func (*Record) Kind() Kind { return KindRecord }
func (*Union) Kind() Kind  { return KindUnion }

func (Void) sealed()    {}
func (Bool) sealed()    {}
func (Integer) sealed() {}
func (String) sealed()  {}
func (Bytes) sealed()   {}
func (Unknown) sealed() {}
func (*Record) sealed() {}
func (*Union) sealed()  {}

func (Void) String() string    { return "void" }
func (Bool) String() string    { return "bool" }
func (String) String() string  { return "string" }
func (Bytes) String() string   { return "bytes" }
func (Unknown) String() string { return "unknown" }

func (i Integer) String() string {
	if !i.HasMin && !i.HasMax {
		return "integer"
	}
	lo, hi := "-inf", "+inf"
	if i.HasMin {
		lo = strconv.FormatInt(i.Min, 10)
	}
	if i.HasMax {
		hi = strconv.FormatInt(i.Max, 10)
	}
	return "integer[" + lo + ", " + hi + "]"
}

func (r *Record) String() string { return "record " + r.Name }
func (u *Union) String() string  { return "union " + u.Name }

// Signed reports whether values of the integer may be negative.
func (i Integer) Signed() bool {
	return !i.HasMin || i.Min < 0
}

// Contains reports whether v lies within the declared bounds.
func (i Integer) Contains(v int64) bool {
	if i.HasMin && v < i.Min {
		return false
	}
	if i.HasMax && v > i.Max {
		return false
	}
	return true
}

// Field returns the field with the given name.
func (r *Record) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// IsDeprecated reports whether the alternative at index i is retired.
func (u *Union) IsDeprecated(i int) bool {
	for _, d := range u.Deprecated {
		if d == i {
			return true
		}
	}
	return false
}

// Label is the alternative's name, or its index when it has none.
func (u *Union) Label(i int) string {
	if i >= 0 && i < len(u.Alternatives) && u.Alternatives[i].Name != "" {
		return u.Alternatives[i].Name
	}
	return strconv.Itoa(i)
}

// Constructors

// Int returns an unbounded, signed integer shape.
func Int() Integer { return Integer{} }

// UInt returns a non-negative integer shape.
func UInt() Integer { return Integer{HasMin: true} }

// IntRange returns an integer shape bounded by [min, max]. Use math.MinInt64
// or math.MaxInt64 to leave a side unbounded.
func IntRange(min, max int64) Integer {
	return Integer{
		Min:    min,
		Max:    max,
		HasMin: min != math.MinInt64,
		HasMax: max != math.MaxInt64,
	}
}

// F builds a record field.
func F(name string, s Shape) Field {
	return Field{Name: name, Shape: s}
}

// Alt builds a named union alternative.
func Alt(name string, s Shape) Alternative {
	return Alternative{Name: name, Shape: s}
}

// NewRecord builds a record shape.
func NewRecord(name string, fields ...Field) *Record {
	return &Record{Name: name, Fields: fields}
}

// NewUnion builds a union whose alternatives are known by position only.
func NewUnion(name string, alternatives ...Shape) *Union {
	alts := make([]Alternative, len(alternatives))
	for i, s := range alternatives {
		alts[i] = Alternative{Shape: s}
	}
	return &Union{Name: name, Alternatives: alts}
}

// NewTaggedUnion builds a union with named alternatives.
func NewTaggedUnion(name string, alternatives ...Alternative) *Union {
	return &Union{Name: name, Alternatives: alternatives}
}

// Deprecate marks field names as retired and returns the record.
func (r *Record) Deprecate(names ...string) *Record {
	r.Deprecated = append(r.Deprecated, names...)
	return r
}

// Deprecate marks alternative positions as retired and returns the union.
func (u *Union) Deprecate(indices ...int) *Union {
	u.Deprecated = append(u.Deprecated, indices...)
	return u
}

// Describe renders s and its sub-shapes as an indented tree.
func Describe(s Shape) string {
	var b strings.Builder
	describe(&b, s, 0, map[Shape]bool{})
	return b.String()
}

func describe(b *strings.Builder, s Shape, depth int, seen map[Shape]bool) {
	indent := strings.Repeat("  ", depth)
	switch t := s.(type) {
	case *Record:
		fmt.Fprintf(b, "%srecord %s", indent, t.Name)
		if seen[t] {
			b.WriteString(" (see above)\n")
			return
		}
		seen[t] = true
		b.WriteByte('\n')
		for _, f := range t.Fields {
			fmt.Fprintf(b, "%s  .%s:\n", indent, f.Name)
			describe(b, f.Shape, depth+2, seen)
		}
	case *Union:
		fmt.Fprintf(b, "%sunion %s", indent, t.Name)
		if seen[t] {
			b.WriteString(" (see above)\n")
			return
		}
		seen[t] = true
		b.WriteByte('\n')
		for i, a := range t.Alternatives {
			fmt.Fprintf(b, "%s  %d %s:\n", indent, i, t.Label(i))
			describe(b, a.Shape, depth+2, seen)
		}
	default:
		fmt.Fprintf(b, "%s%s\n", indent, s)
	}
}
