// Package codec binds shapes to memory and wire representations and
// encodes, decodes and sizes values of them.
//
// Binding compiles a (shape, memory form, wire form) triple into an
// immutable node tree once; every later call interprets that tree:
//
//	┌────────────────────────────────────────────────────────────┐
//	│ Go value ←→ [Codec: Size / Encode / Decode] ←→ bytes       │
//	└────────────────────────────────────────────────────────────┘
//
// # Wire Format
//
//	Shape       Wire
//	──────────────────────────────────────────────────────────────
//	void        nothing
//	bool        one bit, packed LSB-first into the current byte
//	integer     varuint, or zigzag varsint when it may be negative
//	string      varint byte length + UTF-16LE code units, no BOM
//	bytes       varint length + raw bytes
//	record      varint length + fields in declaration order
//	union       varint tag + varint length + payload
//
// Everything except bool starts on a byte boundary. A record payload under
// a union shares its own length tag with the union, so its length is
// written once. The length tags are what let an older reader skip an
// alternative it has never heard of and let a newer reader stop at the end
// of an older, shorter record.
//
// # Key Types
//
//	Registry    - owns named definitions; Bind compiles codecs
//	Codec       - Size, Length, Encode, Decode, Marshal, Unmarshal
//	Mem / Wire  - memory and wire representation forms
//	MemAdapter  - presents an external Go type over a base form
//
// # Go Values
//
// Records decode to map[string]any and integers to int64. A union decodes
// to a map whose discriminant key (default "_type") names the
// alternative: record alternatives carry their fields in the same map,
// others carry the payload under "value". A tag the schema does not know
// decodes to UnknownVariant.
//
// # Thread Safety
//
// Codec is immutable and safe for concurrent use. Registry lookups are
// safe for concurrent use; Bind serializes registration.
//
// # Error Handling
//
// Errors use the structured types from the errors package:
//
//	[bind] shape_mismatch at total: shape integer - varuint cannot carry an integer that may be negative
//	[encode] out_of_range at items.qty: value 300 outside integer[0, 255]
//	[decode] truncated at customer.note: need 12 bytes at offset 9, input ends at 14
package codec
