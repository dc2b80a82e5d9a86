package abi

import "reflect"

// Integers travel through JavaScript-compatible consumers, so the codec
// never encodes or accepts magnitudes beyond 2^53-1.
const (
	MaxSafeInteger = 1<<53 - 1
	MinSafeInteger = -MaxSafeInteger
)

// InSafeRange reports whether v is within ±(2^53-1).
func InSafeRange(v int64) bool {
	return v >= MinSafeInteger && v <= MaxSafeInteger
}

// TypeName returns the Go type name for error messages.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}

// Extend returns a copy of path with elem appended. Paths are shared
// between siblings, so they are never appended to in place.
func Extend(path []string, elem string) []string {
	return append(append(make([]string, 0, len(path)+1), path...), elem)
}
