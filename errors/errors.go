package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseBind   Phase = "bind"   // shape/representation pairing
	PhaseLength Phase = "length" // size prediction
	PhaseEncode Phase = "encode" // Go value to bytes
	PhaseDecode Phase = "decode" // bytes to Go value
	PhaseImport Phase = "import" // schema import (WIT)
	PhaseConfig Phase = "config" // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch   Kind = "type_mismatch"
	KindShapeMismatch  Kind = "shape_mismatch"
	KindInvalidShape   Kind = "invalid_shape"
	KindUnsupported    Kind = "unsupported"
	KindOutOfRange     Kind = "out_of_range"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindTruncated      Kind = "truncated"
	KindCorrupt        Kind = "corrupt"
	KindFieldMissing   Kind = "field_missing"
	KindDuplicate      Kind = "duplicate"
	KindNotFound       Kind = "not_found"
	KindInvalidVariant Kind = "invalid_variant"
	KindAdapter        Kind = "adapter"
	KindInvalidData    Kind = "invalid_data"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	Shape  string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.Shape != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.Shape != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", shape ")
			b.WriteString(e.Shape)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("shape ")
			b.WriteString(e.Shape)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.Shape != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Shape sets the shape description
func (b *Builder) Shape(s string) *Builder {
	b.err.Shape = s
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a mismatch between a Go value and the shape it is
// encoded under.
func TypeMismatch(phase Phase, path []string, goType, shape string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		Shape:  shape,
	}
}

// ShapeMismatch creates a pairing error between a shape and one of its
// representations.
func ShapeMismatch(path []string, shape, repr string) *Error {
	return &Error{
		Phase:  PhaseBind,
		Kind:   KindShapeMismatch,
		Path:   path,
		Shape:  shape,
		Detail: fmt.Sprintf("representation %s does not fit", repr),
	}
}

// InvalidShape creates a schema validation error
func InvalidShape(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseBind,
		Kind:   KindInvalidShape,
		Path:   path,
		Detail: detail,
	}
}

// FieldMissing creates a missing field error
func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldMissing,
		Path:   path,
		Detail: fmt.Sprintf("required field %q not found", fieldName),
	}
}

// NoAlternative creates an error for a union value that selects no
// known alternative.
func NoAlternative(phase Phase, path []string, discriminant string, value any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidVariant,
		Path:   path,
		Detail: fmt.Sprintf("%s=%v matches no alternative", discriminant, value),
		Value:  value,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfRange creates an error for an integer outside what its wire form
// or shape allows.
func OutOfRange(phase Phase, path []string, value any, bounds string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfRange,
		Path:   path,
		Detail: fmt.Sprintf("value %v outside %s", value, bounds),
		Value:  value,
	}
}

// OutOfBounds creates an error for a write past the end of the buffer
func OutOfBounds(phase Phase, path []string, need, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("need %d bytes, buffer has %d", need, length),
		Value:  need,
	}
}

// Truncated creates an error for input that ends before the value does
func Truncated(path []string, offset, need, limit int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindTruncated,
		Path:   path,
		Detail: fmt.Sprintf("need %d bytes at offset %d, input ends at %d", need, offset, limit),
		Value:  offset,
	}
}

// Corrupt creates an error for structurally invalid input
func Corrupt(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindCorrupt,
		Path:   path,
		Detail: detail,
	}
}

// Duplicate creates a write-once violation error
func Duplicate(what, name string) *Error {
	return &Error{
		Phase:  PhaseBind,
		Kind:   KindDuplicate,
		Detail: fmt.Sprintf("%s %q already registered", what, name),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Adapter wraps a failed adapter conversion
func Adapter(phase Phase, path []string, typeName string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAdapter,
		Path:   path,
		GoType: typeName,
		Detail: "adapter conversion failed",
		Cause:  cause,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// ImportFailed creates a schema import error
func ImportFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseImport,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("import %s", what),
		Cause:  cause,
	}
}

// Error classes

// IsConfig reports whether err is a configuration error: a shape or
// representation problem that no input value can fix.
func IsConfig(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindShapeMismatch, KindInvalidShape, KindUnsupported, KindDuplicate, KindNotFound:
		return true
	}
	return e.Phase == PhaseBind
}

// IsValue reports whether err rejects a particular value at length
// prediction or encode time.
func IsValue(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	if IsConfig(err) {
		return false
	}
	return e.Phase == PhaseLength || e.Phase == PhaseEncode
}

// IsCorrupt reports whether err reports truncated or malformed input.
func IsCorrupt(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindTruncated || e.Kind == KindCorrupt
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }
