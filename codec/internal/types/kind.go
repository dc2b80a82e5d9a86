package types

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
	KindAdapter
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
	KindAdapter: "adapter",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

func (k Kind) IsPrimitive() bool {
	return k <= KindUnknown
}

// IsAligned reports whether values of this kind start on a byte boundary.
func (k Kind) IsAligned() bool {
	return k != KindVoid && k != KindBool
}
