package codec

import (
	"fmt"
	"reflect"

	"github.com/wippyai/spac/codec/internal/abi"
)

// Symbols names an adapter's external type and conversion functions for
// dependency listings. The wire format never depends on them.
type Symbols struct {
	TypeName  string
	DefinedIn string
	ToBase    string
	FromBase  string
}

// MemAdapter presents a value of some external type in memory while the
// wire form is defined on its base representation. Build one with Adapt.
type MemAdapter struct {
	Base     Mem
	toBase   func(any) (any, error)
	fromBase func(any) (any, error)
	Symbols  Symbols
}

func (*MemAdapter) mem() {}

// Adapt builds an adapter over base. toBase runs before length prediction
// and encoding; fromBase runs after decoding. Both must be total inverses
// for every value the application produces.
func Adapt[E, B any](base Mem, toBase func(E) (B, error), fromBase func(B) (E, error)) *MemAdapter {
	return &MemAdapter{
		Base: base,
		toBase: func(v any) (any, error) {
			e, err := assertAs[E](v)
			if err != nil {
				return nil, err
			}
			return toBase(e)
		},
		fromBase: func(v any) (any, error) {
			b, err := assertAs[B](v)
			if err != nil {
				return nil, err
			}
			return fromBase(b)
		},
		Symbols: Symbols{TypeName: reflect.TypeFor[E]().String()},
	}
}

// WithSymbols sets the adapter's naming metadata and returns the adapter.
// An empty TypeName keeps the Go type name.
func (a *MemAdapter) WithSymbols(s Symbols) *MemAdapter {
	if s.TypeName == "" {
		s.TypeName = a.Symbols.TypeName
	}
	a.Symbols = s
	return a
}

func assertAs[T any](v any) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	var zero T
	if v == nil && any(zero) == nil {
		return zero, nil
	}
	return zero, fmt.Errorf("expected %s, got %s", reflect.TypeFor[T](), abi.TypeName(v))
}
