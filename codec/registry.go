package codec

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/spac/codec/internal/types"
	"github.com/wippyai/spac/errors"
	"github.com/wippyai/spac/shape"
)

// Handle is a stable index into a Registry.
type Handle int

// Definition is a named record or union bound once in a registry.
type Definition struct {
	Shape     shape.Shape
	node      *types.Node
	Name      string
	DefinedIn string
	Handle    Handle
}

// Kind is the shape kind of the definition.
func (d *Definition) Kind() shape.Kind {
	return d.Shape.Kind()
}

// Registry owns named definitions. It starts empty and lives as long as
// the caller keeps it; every name is written once. Reads are safe for
// concurrent use; Bind serializes registration.
type Registry struct {
	byName map[string]Handle
	defs   []*Definition
	mu     sync.RWMutex
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Handle)}
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.defs[h], true
}

// Definition returns the definition for h.
func (r *Registry) Definition(h Handle) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h < 0 || int(h) >= len(r.defs) {
		return nil, false
	}
	return r.defs[h], true
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Codec returns a codec for a registered definition.
func (r *Registry) Codec(name string) (*Codec, error) {
	def, ok := r.Lookup(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseBind, "definition", name)
	}
	return &Codec{root: def.node}, nil
}

// Bind checks that s, mem and wire agree and compiles them into a codec.
// A nil mem or wire selects the defaults. Named definitions met along
// the way are registered; nothing is registered if Bind fails.
func (r *Registry) Bind(s shape.Shape, mem Mem, wire Wire) (*Codec, error) {
	if err := shape.Validate(s); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := &compiler{reg: r, staged: make(map[string]*Definition)}
	root, err := c.compile(s, mem, wire, nil)
	if err != nil {
		return nil, err
	}
	c.commit()
	return &Codec{root: root}, nil
}

// lookup is called with mu held.
func (r *Registry) lookup(name string) (*Definition, bool) {
	h, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.defs[h], true
}

// add is called with mu held.
func (r *Registry) add(def *Definition) {
	def.Handle = Handle(len(r.defs))
	r.defs = append(r.defs, def)
	r.byName[def.Name] = def.Handle

	Logger().Debug("registered definition",
		zap.String("name", def.Name),
		zap.Int("handle", int(def.Handle)),
		zap.Stringer("kind", def.Kind()),
		zap.String("defined_in", def.DefinedIn),
	)
}
