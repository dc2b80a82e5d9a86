// Package types defines the compiled node tree the codec interprets.
//
// Binding a shape to its memory and wire representations produces one
// Node per shape position. Nodes carry everything the size predictor,
// encoder and decoder need (integer form, void sentinel, field order,
// alternative labels, adapter functions) so no lookup happens on the hot
// path. A compiled tree is immutable and may be shared between codecs.
//
// # Key Types
//
//   - Node: compiled position with its children
//   - Kind: node discriminator (primitive, record, union, adapter)
//
// This package is internal to the codec.
package types
