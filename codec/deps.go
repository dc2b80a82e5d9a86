package codec

import (
	"sort"

	"github.com/wippyai/spac/codec/internal/types"
)

// Dependency lists the symbols a codec uses from one module.
type Dependency struct {
	Module  string
	Symbols []string
}

// Dependencies returns the named definitions and adapter symbols the codec
// reaches that live outside definedIn, grouped by module and sorted.
// Definitions without a module are local everywhere.
func (c *Codec) Dependencies(definedIn string) []Dependency {
	bySource := make(map[string]map[string]bool)
	add := func(module string, symbols ...string) {
		if module == "" || module == definedIn {
			return
		}
		set, ok := bySource[module]
		if !ok {
			set = make(map[string]bool)
			bySource[module] = set
		}
		for _, s := range symbols {
			if s != "" {
				set[s] = true
			}
		}
	}

	seen := make(map[*types.Node]bool)
	var walk func(n *types.Node)
	walk = func(n *types.Node) {
		if seen[n] {
			return
		}
		seen[n] = true
		switch n.Kind {
		case types.KindRecord:
			add(n.Module, n.Name)
			for _, f := range n.Fields {
				walk(f.Node)
			}
		case types.KindUnion:
			add(n.Module, n.Name)
			for _, cs := range n.Cases {
				walk(cs.Node)
			}
		case types.KindAdapter:
			add(n.Adapter.Module, n.Adapter.TypeName, n.Adapter.ToSym, n.Adapter.FromSym)
			walk(n.Base)
		}
	}
	walk(c.root)

	deps := make([]Dependency, 0, len(bySource))
	for module, set := range bySource {
		dep := Dependency{Module: module, Symbols: make([]string, 0, len(set))}
		for s := range set {
			dep.Symbols = append(dep.Symbols, s)
		}
		sort.Strings(dep.Symbols)
		deps = append(deps, dep)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Module < deps[j].Module })
	return deps
}
