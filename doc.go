// Package spac derives compact binary codecs from abstract data shapes.
//
// A shape (package shape) describes a data type independently of how it
// looks in memory or on the wire. Binding a shape to a memory
// representation and a wire representation (package codec) yields a Codec
// that predicts encoded sizes, encodes values into a buffer and decodes
// them back, with all three operations derived from the same description
// so they cannot drift apart as the schema evolves.
//
// # Architecture Overview
//
//	spac/                Cursor and Size: bit-addressable buffer positions
//	├── shape/           Closed shape model (void, bool, integer, string,
//	│                    bytes, unknown, record, tagged union)
//	├── codec/           Representation bindings, definition registry,
//	│                    length predictor, encoder, decoder, adapters
//	├── adapter/         Ready-made adapters (base58, uuid, ksuid, ...)
//	├── witschema/       Import WIT type definitions as shapes
//	├── errors/          Structured error types
//	├── internal/config/ YAML configuration for the CLI
//	└── cmd/spac/        Inspection and encoding CLI
//
// # Quick Start
//
//	token := shape.NewRecord("DeviceToken", shape.F("token", shape.String{}))
//
//	reg := codec.NewRegistry()
//	c, err := reg.Bind(token, nil, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	data, err := c.Marshal(map[string]any{"token": "abc"})
//	// data: 07 06 61 00 62 00 63 00
//
//	v, err := c.Unmarshal(data)
//	fmt.Println(v) // map[token:abc]
//
// # Wire Format
//
//	Record        varint(len) field1 field2 ...
//	TaggedUnion   varint(index) varint(len) payload
//	              (a record payload shares its own length tag)
//	Bool          one bit, LSB first, packed with neighbouring bools
//	Bytes/String  varint(len) raw bytes (strings as UTF-16LE)
//	Integer       varint, zigzag-mapped when the shape may be negative
//
// Length tags make every record and union skippable: a decoder built from
// an older schema jumps over fields and alternatives it does not know.
//
// # Thread Safety
//
// Shapes and bound Codecs are immutable and safe for concurrent use. Each
// Encode or Decode call must own its buffer.
package spac
