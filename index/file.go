package index

import (
	"sort"

	"github.com/diplomat-hdl/diplomat/location"
)

// refEntry is one entry in a file's reference table: the Range found and the
// Symbol it denotes, ordered by the Range's start Position.
type refEntry struct {
	start location.Position
	rng   location.Range
	sym   SymbolRef
}

// file is the per-path record backing position queries: which scopes live in
// this file, which declaration Range maps to which symbol, and an
// order-by-start table of every reference Range found in the file.
type file struct {
	path string

	scopes map[ScopeRef]struct{}

	// declarations maps an exact declaration Range to the symbol it declares.
	declarations map[location.Range]SymbolRef

	// refs is kept sorted by start Position so lookup_symbol_at can binary
	// search for the entry whose start is <= the query location (the
	// "upper_bound - 1" step from the distilled spec), then confirm
	// containment.
	refs []refEntry
}

func newFile(path string) *file {
	return &file{
		path:         path,
		scopes:       make(map[ScopeRef]struct{}),
		declarations: make(map[location.Range]SymbolRef),
	}
}

func (f *file) addScope(ref ScopeRef) {
	f.scopes[ref] = struct{}{}
}

func (f *file) addDeclaration(rng location.Range, sym SymbolRef) {
	f.declarations[rng] = sym
}

// addReference inserts rng into the sorted reference table, keyed by its
// start Position. Insertion is O(n); builds are append-heavy but not
// performance critical for the sizes this front end targets.
func (f *file) addReference(rng location.Range, sym SymbolRef) {
	entry := refEntry{start: rng.Start, rng: rng, sym: sym}
	i := sort.Search(len(f.refs), func(i int) bool {
		return positionAtLeast(f.refs[i].start, entry.start)
	})
	f.refs = append(f.refs, refEntry{})
	copy(f.refs[i+1:], f.refs[i:])
	f.refs[i] = entry
}

// lookupAt finds the reference whose Range contains loc, if any: it locates
// the last entry whose start is <= loc (the "upper_bound - 1" step), then
// confirms the Range actually contains loc — the reference immediately
// before loc may belong to an earlier, already-closed Range.
func (f *file) lookupAt(loc location.Position) (SymbolRef, location.Range, bool) {
	i := sort.Search(len(f.refs), func(i int) bool {
		return positionAtLeast(f.refs[i].start, loc)
	})
	// i is now the first entry with start >= loc; step back one for the
	// candidate whose start is <= loc.
	if i < len(f.refs) && f.refs[i].start == loc {
		if f.refs[i].rng.Contains(loc) {
			return f.refs[i].sym, f.refs[i].rng, true
		}
	}
	i--
	if i < 0 {
		return SymbolRef{}, location.Range{}, false
	}
	entry := f.refs[i]
	if entry.rng.Contains(loc) {
		return entry.sym, entry.rng, true
	}
	return SymbolRef{}, location.Range{}, false
}

// positionAtLeast reports whether a >= b using line/column ordering.
func positionAtLeast(a, b location.Position) bool {
	if a == b {
		return true
	}
	return b.Before(a)
}
