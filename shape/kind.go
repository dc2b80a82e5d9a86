package shape

// Kind is the closed set of shape cases.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindInteger
	KindString
	KindBytes
	KindUnknown
	KindRecord
	KindUnion
)

var kindNames = [...]string{
	KindVoid:    "void",
	KindBool:    "bool",
	KindInteger: "integer",
	KindString:  "string",
	KindBytes:   "bytes",
	KindUnknown: "unknown",
	KindRecord:  "record",
	KindUnion:   "union",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// IsPrimitive reports whether shapes of this kind have no sub-shapes.
func (k Kind) IsPrimitive() bool {
	return k <= KindUnknown
}

// IsNamed reports whether shapes of this kind carry a definition name.
func (k Kind) IsNamed() bool {
	return k == KindRecord || k == KindUnion
}
