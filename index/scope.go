package index

import (
	"fmt"
	"hash/fnv"

	"github.com/diplomat-hdl/diplomat/location"
	"github.com/google/uuid"
)

// ScopeRef is an opaque handle to a Scope owned by a Core.
//
// ScopeRef is a value type safe to copy, compare, and use as a map key.
// The zero value is invalid; use IsZero to check.
type ScopeRef struct {
	id uuid.UUID
}

// IsZero reports whether r is the zero-value ScopeRef.
func (r ScopeRef) IsZero() bool {
	return r.id == uuid.Nil
}

// scope is a named node in the Index's scope forest.
//
// Children are never shared across parents: each scope is reachable from
// exactly one parent, giving the forest strict tree ownership. A virtual
// scope (compilation unit, package, generate block, procedural block,
// nested statement block, subroutine body) forwards non-strict lookups to
// its parent; a non-virtual scope (instance body) does not.
type scope struct {
	ref    ScopeRef
	name   string
	parent ScopeRef // zero for the root

	// childOrder preserves insertion order for deterministic traversal;
	// children maps a name (or alias) to the owning child's ref.
	childOrder []string
	children   map[string]ScopeRef

	// childAliases maps an alternate name to an existing child's ref. Aliases
	// never appear in childOrder; they are pure alternate lookup keys.
	childAliases map[string]ScopeRef

	source location.Range

	// content maps a locally declared name to the symbol it denotes.
	content map[string]SymbolRef

	virtual   bool
	anonymous bool

	// unnamedCount numbers this scope's own anonymous children.
	unnamedCount int

	hash uint64
}

func newScope(ref ScopeRef, name string, parent ScopeRef, virtual, anonymous bool) *scope {
	return &scope{
		ref:          ref,
		name:         name,
		parent:       parent,
		children:     make(map[string]ScopeRef),
		childAliases: make(map[string]ScopeRef),
		content:      make(map[string]SymbolRef),
		virtual:      virtual,
		anonymous:    anonymous,
	}
}

// nextAnonymousName returns the name to give this scope's Nth unnamed
// child, then advances the counter.
func (s *scope) nextAnonymousName() string {
	name := fmt.Sprintf("unnamed%d", s.unnamedCount)
	s.unnamedCount++
	return name
}

// computeHash derives a stable hash from the scope's fully-qualified path
// (the sequence of ancestor names from root to this scope), so that two
// scopes occupying the same tree position across rebuilds hash identically.
func computeHash(path []string) uint64 {
	h := fnv.New64a()
	for _, seg := range path {
		h.Write([]byte(seg))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// ScopeInfo is a read-only snapshot of a scope's attributes, returned by
// Core's query methods. Mutating methods always take a ScopeRef instead,
// since the live scope is owned and lock-guarded by the Core.
type ScopeInfo struct {
	Ref       ScopeRef
	Name      string
	Parent    ScopeRef
	Source    location.Range
	Virtual   bool
	Anonymous bool
	Hash      uint64
}
