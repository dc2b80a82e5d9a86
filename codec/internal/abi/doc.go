// Package abi provides the value-level rules shared by the size
// predictor, encoder and decoder.
//
// # Contents
//
//   - coerce.go: Go value coercion for integer positions and union
//     discriminants
//   - helpers.go: safe-integer limits and shared utilities
//
// This package is internal to the codec.
package abi
