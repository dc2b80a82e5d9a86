package types

import "github.com/wippyai/spac/shape"

type Node struct {
	Shape   shape.Shape
	Void    any // value produced for Void positions
	Adapter *Adapter
	Base    *Node // adapter base
	Fields  []Field
	Cases   []Case
	Name    string // definition name of records and unions
	Module  string // module the definition lives in, empty when local
	// Discriminant is the map key that names the selected alternative.
	Discriminant string
	Int          shape.Integer
	Kind         Kind
	Zigzag       bool
}

type Field struct {
	Node *Node
	Name string
}

type Case struct {
	Node  *Node
	Label string
	// Shared is set when the payload is a record whose own length tag
	// doubles as the union's.
	Shared bool
	// Merged is set when the payload's memory form is a record map that
	// carries the discriminant itself.
	Merged     bool
	Deprecated bool
}

// Adapter converts between an external memory value and the base memory
// value the wire form is defined on.
type Adapter struct {
	ToBase   func(any) (any, error)
	FromBase func(any) (any, error)
	TypeName string
	Module   string
	ToSym    string
	FromSym  string
}

// Unwrap strips adapters and returns the node that touches the wire.
func (n *Node) Unwrap() *Node {
	for n.Kind == KindAdapter {
		n = n.Base
	}
	return n
}

// NeedsInput reports whether decoding the node consumes any input.
func (n *Node) NeedsInput() bool {
	return n.Unwrap().Kind != KindVoid
}

// IsBits reports whether the node occupies a packed bit rather than whole
// bytes.
func (n *Node) IsBits() bool {
	return n.Unwrap().Kind == KindBool
}

// IsNamed reports whether the node is a registered definition.
func (n *Node) IsNamed() bool {
	return n.Kind == KindRecord || n.Kind == KindUnion
}
