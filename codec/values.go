package codec

// Unit is the value decoded for Void positions bound with VoidUnit.
type Unit struct{}

// UnknownVariant stands in for a union alternative the decoding schema
// does not know. It keeps the tag and the raw payload; it cannot be
// encoded.
type UnknownVariant struct {
	Payload []byte
	Index   int
}
