// Package errors provides structured error types for the spac module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go type and shape names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
//		Path("DeviceToken", "token").
//		GoType("int").
//		Shape("string").
//		Detail("cannot encode integer as text").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseEncode, path, "int", "string")
//	err := errors.Truncated(path, 10, 4, 12)
//
// Three classes matter to callers. Configuration errors (IsConfig) come
// from binding shapes to representations and never depend on a value.
// Value errors (IsValue) reject one value at length or encode time before
// any byte of it is written. Corrupt-input errors (IsCorrupt) come from
// decoding truncated or malformed buffers.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
