// Package index owns the scope tree and file table built from a parsed
// SystemVerilog source tree: named declarations (Symbols), the lexical
// hierarchy that contains them (Scopes), and the per-file tables that
// back position-based lookup.
package index

import (
	"github.com/diplomat-hdl/diplomat/location"
	"github.com/google/uuid"
)

// SymbolRef is an opaque handle to a Symbol owned by a Core.
//
// SymbolRef is a value type safe to copy, compare, and use as a map key.
// The zero value is invalid; use IsZero to check.
type SymbolRef struct {
	id uuid.UUID
}

// IsZero reports whether r is the zero-value SymbolRef.
func (r SymbolRef) IsZero() bool {
	return r.id == uuid.Nil
}

// String returns r's underlying UUID, suitable for a stable external
// identifier (e.g. the "id" field of an index-dump symbol entry).
func (r SymbolRef) String() string {
	return r.id.String()
}

// Symbol is a named declaration discovered during indexing.
//
// A Symbol's reference set grows monotonically as the Reference Resolver
// discovers uses of the declared name; it is never pruned within the
// lifetime of one Index build. Two distinct symbols may share a Name if
// they live in different Scopes.
type Symbol struct {
	ref SymbolRef

	name string

	// source is the declaration site in the original, pre-macro source.
	// Core.AddSymbol rejects a zero Range with ErrSymbolWithoutRange, so a
	// symbol created through the Core always has a non-zero source.
	source location.Range

	// references holds every Range referring to this symbol, including the
	// declaration site itself when source is non-zero.
	references []location.Range
}

func newSymbol(ref SymbolRef, name string, source location.Range) *Symbol {
	sym := &Symbol{ref: ref, name: name, source: source}
	if !source.IsZero() {
		sym.references = append(sym.references, source)
	}
	return sym
}

// Ref returns the symbol's handle.
func (s *Symbol) Ref() SymbolRef {
	return s.ref
}

// Name returns the symbol's declared name.
func (s *Symbol) Name() string {
	return s.name
}

// Source returns the declaration-site Range and whether one is recorded.
func (s *Symbol) Source() (location.Range, bool) {
	return s.source, !s.source.IsZero()
}

// References returns every Range known to refer to this symbol, in
// insertion order. The slice is a copy; callers may not mutate the
// symbol's internal state through it.
func (s *Symbol) References() []location.Range {
	out := make([]location.Range, len(s.references))
	copy(out, s.references)
	return out
}

// addReference records rng as a use of this symbol.
//
// Callers must hold the owning Core's write lock.
func (s *Symbol) addReference(rng location.Range) {
	s.references = append(s.references, rng)
}

// SymbolInfo is a read-only snapshot of a symbol's attributes, returned by
// Core's query methods so callers never hold a pointer into state the
// Core's writer may still be mutating.
type SymbolInfo struct {
	Ref        SymbolRef
	Name       string
	Source     location.Range
	HasSource  bool
	References []location.Range
}

func (s *Symbol) snapshot() SymbolInfo {
	return SymbolInfo{
		Ref:        s.ref,
		Name:       s.name,
		Source:     s.source,
		HasSource:  !s.source.IsZero(),
		References: s.References(),
	}
}

// setSource records rng as this symbol's declaration site, adding it to
// the reference set if it is not already present.
//
// Callers must hold the owning Core's write lock.
func (s *Symbol) setSource(rng location.Range) {
	s.source = rng
	for _, r := range s.references {
		if r == rng {
			return
		}
	}
	s.references = append(s.references, rng)
}
