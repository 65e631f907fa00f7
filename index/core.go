package index

import (
	"errors"
	"fmt"
	"sync"

	"github.com/diplomat-hdl/diplomat/location"
	"github.com/google/uuid"
)

// Sentinel errors for programmatic error handling with errors.Is.
//
// These cover the small, fixed set of structural failures a caller can
// recover from. Anything that crosses into user-facing territory (a
// malformed source file, an unresolved reference) is reported as a
// diag.Issue instead; these sentinels are for Core-API misuse.
var (
	// ErrUnknownScope is returned when a ScopeRef does not belong to the Core.
	ErrUnknownScope = errors.New("index: unknown scope")

	// ErrUnknownFile is returned when a FileRef does not belong to the Core.
	ErrUnknownFile = errors.New("index: unknown file")

	// ErrDuplicateChild is returned by AddChildAlias when the alias name
	// already names a distinct child of the same scope.
	ErrDuplicateChild = errors.New("index: child name already in use")

	// ErrSymbolWithoutRange is returned by AddSymbol when source_range is
	// the zero Range; every symbol must have a file-owning declaration Range.
	ErrSymbolWithoutRange = errors.New("index: symbol declared without a source range")
)

// FileRef is an opaque handle to a canonicalized file path tracked by a
// Core. FileRef is a value type safe to copy and compare.
type FileRef struct {
	path string
}

// Path returns the canonical path this FileRef identifies.
func (r FileRef) Path() string {
	return r.path
}

// Core owns the scope forest and the file table built from one parse of a
// workspace. It exposes symbol insertion, reference insertion, and
// position-based lookup.
//
// Core is safe for concurrent use from multiple goroutines: the workspace
// worker is the single writer during a build, while other goroutines (a
// test issuing lookups, the indexer CLI reporting stats) may read
// concurrently. All registry maps are guarded by a single sync.RWMutex.
// Grounded on the teacher's graph.Graph and schema.Registry mutex-guarded
// map pattern.
//
// Recompilation builds a fresh Core and swaps it in atomically; a Core
// itself is never reset in place, so readers holding a reference to a
// previous Core continue to see a consistent, if stale, view.
type Core struct {
	mu sync.RWMutex

	root ScopeRef

	scopes map[ScopeRef]*scope
	files  map[string]*file
	syms   map[SymbolRef]*Symbol
}

// NewCore creates an empty Core with no root scope, no files, and no
// symbols.
func NewCore() *Core {
	return &Core{
		scopes: make(map[ScopeRef]*scope),
		files:  make(map[string]*file),
		syms:   make(map[SymbolRef]*Symbol),
	}
}

// SetRoot creates (or replaces) the Core's root scope, named name.
//
// SetRoot is idempotent per build: calling it again discards the previous
// scope tree entirely, since a rebuild starts from a fresh Core rather than
// mutating one in place — this method exists for the rare case a single
// Core is reused across builds in tests.
func (c *Core) SetRoot(name string) ScopeRef {
	c.mu.Lock()
	defer c.mu.Unlock()

	ref := ScopeRef{id: uuid.New()}
	c.scopes = make(map[ScopeRef]*scope)
	root := newScope(ref, name, ScopeRef{}, true, false)
	root.hash = computeHash([]string{name})
	c.scopes[ref] = root
	c.root = ref
	return ref
}

// pathLocked returns the sequence of ancestor names from root to scope,
// scope exclusive. Callers must hold c.mu.
func (c *Core) pathLocked(scope ScopeRef) []string {
	var segs []string
	for cur := scope; !cur.IsZero(); {
		s, ok := c.scopes[cur]
		if !ok {
			break
		}
		segs = append([]string{s.name}, segs...)
		if s.parent.IsZero() {
			break
		}
		cur = s.parent
	}
	return segs
}

// Root returns the Core's root scope.
func (c *Core) Root() ScopeRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.root
}

// GetOrCreateFile canonicalizes path and returns its FileRef, creating a
// new empty File Record on first use. GetOrCreateFile never returns an
// invalid FileRef.
func (c *Core) GetOrCreateFile(path string) (FileRef, error) {
	cp, err := location.NewCanonicalPath(path)
	if err != nil {
		return FileRef{}, fmt.Errorf("index: canonicalize %q: %w", path, err)
	}
	key := cp.String()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.files[key]; !ok {
		c.files[key] = newFile(key)
	}
	return FileRef{path: key}, nil
}

// AddChild adds a new child scope named name under parent, returning the
// new scope's ref. An empty name yields an anonymous "unnamedN" child,
// numbered per-parent.
//
// virtual marks whether the child forwards non-strict lookups to parent;
// see the scope type's doc for the fixed virtual/non-virtual scope-kind list.
func (c *Core) AddChild(parent ScopeRef, name string, virtual bool) (ScopeRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.scopes[parent]
	if !ok {
		return ScopeRef{}, fmt.Errorf("%w: %v", ErrUnknownScope, parent)
	}

	anonymous := name == ""
	if anonymous {
		name = p.nextAnonymousName()
	}

	ref := ScopeRef{id: uuid.New()}
	child := newScope(ref, name, parent, virtual, anonymous)
	child.hash = computeHash(append(c.pathLocked(parent), name))
	c.scopes[ref] = child

	if _, exists := p.children[name]; !exists {
		p.childOrder = append(p.childOrder, name)
	}
	p.children[name] = ref

	return ref, nil
}

// AddChildAlias adds alias as an alternate lookup name for an existing
// child of parent. Fails if child is not already a child of parent, or if
// alias already names a distinct child.
func (c *Core) AddChildAlias(parent ScopeRef, child ScopeRef, alias string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.scopes[parent]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownScope, parent)
	}
	if _, ok := c.scopes[child]; !ok {
		return fmt.Errorf("%w: %v", ErrUnknownScope, child)
	}
	if existing, exists := p.children[alias]; exists && existing != child {
		return fmt.Errorf("%w: %q", ErrDuplicateChild, alias)
	}
	if existing, exists := p.childAliases[alias]; exists && existing != child {
		return fmt.Errorf("%w: %q", ErrDuplicateChild, alias)
	}
	p.childAliases[alias] = child
	return nil
}

// SetScopeSource records rng as the textual extent of scope, registering it
// with the File Record owning rng's source so the file's scope set and
// position queries can find it.
func (c *Core) SetScopeSource(scope ScopeRef, file FileRef, rng location.Range) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.scopes[scope]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownScope, scope)
	}
	f, ok := c.files[file.path]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownFile, file)
	}
	s.source = rng
	f.addScope(scope)
	return nil
}

// LookupSymbol looks up name as a direct member of scope. If not found and
// strict is false and scope is virtual, the lookup recurses to scope's
// parent; a non-virtual scope never forwards regardless of strict.
func (c *Core) LookupSymbol(scope ScopeRef, name string, strict bool) (SymbolRef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookupSymbolLocked(scope, name, strict)
}

func (c *Core) lookupSymbolLocked(scope ScopeRef, name string, strict bool) (SymbolRef, bool) {
	for cur := scope; ; {
		s, ok := c.scopes[cur]
		if !ok {
			return SymbolRef{}, false
		}
		if ref, ok := s.content[name]; ok {
			return ref, true
		}
		if strict || !s.virtual || s.parent.IsZero() {
			return SymbolRef{}, false
		}
		cur = s.parent
	}
}

// ResolveSymbol descends scope via child lookup for every segment of path
// except the last, which is looked up strictly (strict=true) in the final
// scope reached. Returns false if any segment fails to resolve.
func (c *Core) ResolveSymbol(scope ScopeRef, path []string) (SymbolRef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(path) == 0 {
		return SymbolRef{}, false
	}
	cur := scope
	for _, seg := range path[:len(path)-1] {
		s, ok := c.scopes[cur]
		if !ok {
			return SymbolRef{}, false
		}
		next, ok := s.children[seg]
		if !ok {
			next, ok = s.childAliases[seg]
			if !ok {
				return SymbolRef{}, false
			}
		}
		cur = next
	}
	return c.lookupSymbolLocked(cur, path[len(path)-1], true)
}

// ResolveScope descends scope via child lookup for every segment of path,
// returning the final scope reached.
func (c *Core) ResolveScope(scope ScopeRef, path []string) (ScopeRef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cur := scope
	for _, seg := range path {
		s, ok := c.scopes[cur]
		if !ok {
			return ScopeRef{}, false
		}
		next, ok := s.children[seg]
		if !ok {
			next, ok = s.childAliases[seg]
			if !ok {
				return ScopeRef{}, false
			}
		}
		cur = next
	}
	return cur, true
}

// GetChildByExactRange returns the direct child of scope whose source Range
// equals rng exactly, used to deduplicate identical textual scopes reached
// by two different paths (e.g. re-entering a module body after a forward
// reference).
func (c *Core) GetChildByExactRange(scope ScopeRef, rng location.Range) (ScopeRef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.scopes[scope]
	if !ok {
		return ScopeRef{}, false
	}
	for _, name := range s.childOrder {
		childRef := s.children[name]
		child, ok := c.scopes[childRef]
		if ok && child.source == rng {
			return childRef, true
		}
	}
	return ScopeRef{}, false
}

// GetConcreteChildren performs a depth-first traversal from scope, yielding
// the first non-virtual descendant reachable along each path without
// entering another non-virtual scope first.
func (c *Core) GetConcreteChildren(scope ScopeRef) []ScopeRef {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []ScopeRef
	var walk func(ref ScopeRef)
	walk = func(ref ScopeRef) {
		s, ok := c.scopes[ref]
		if !ok {
			return
		}
		for _, name := range s.childOrder {
			childRef := s.children[name]
			child, ok := c.scopes[childRef]
			if !ok {
				continue
			}
			if !child.virtual {
				out = append(out, childRef)
				continue
			}
			walk(childRef)
		}
	}
	walk(scope)
	return out
}

// Scope returns a read-only snapshot of scope's attributes.
func (c *Core) Scope(scope ScopeRef) (ScopeInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scopes[scope]
	if !ok {
		return ScopeInfo{}, false
	}
	return ScopeInfo{
		Ref:       s.ref,
		Name:      s.name,
		Parent:    s.parent,
		Source:    s.source,
		Virtual:   s.virtual,
		Anonymous: s.anonymous,
		Hash:      s.hash,
	}, true
}

// ScopeChildren returns scope's direct children in insertion order
// (aliases excluded).
func (c *Core) ScopeChildren(scope ScopeRef) []ScopeRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scopes[scope]
	if !ok {
		return nil
	}
	out := make([]ScopeRef, 0, len(s.childOrder))
	for _, name := range s.childOrder {
		out = append(out, s.children[name])
	}
	return out
}

// ScopeSymbols returns every symbol declared directly in scope (not its
// descendants). Order is unspecified; callers needing declaration order
// should sort by each symbol's Source range.
func (c *Core) ScopeSymbols(scope ScopeRef) []SymbolRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scopes[scope]
	if !ok {
		return nil
	}
	out := make([]SymbolRef, 0, len(s.content))
	for _, ref := range s.content {
		out = append(out, ref)
	}
	return out
}

// Files returns every file registered via GetOrCreateFile, in no particular
// order.
func (c *Core) Files() []FileRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]FileRef, 0, len(c.files))
	for path := range c.files {
		out = append(out, FileRef{path: path})
	}
	return out
}

// FileScopes returns every scope whose declaration Range lies in file (via
// SetScopeSource), in no particular order.
func (c *Core) FileScopes(file FileRef) []ScopeRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.files[file.path]
	if !ok {
		return nil
	}
	out := make([]ScopeRef, 0, len(f.scopes))
	for ref := range f.scopes {
		out = append(out, ref)
	}
	return out
}

// FileSymbols returns every symbol declared in file, in no particular order.
func (c *Core) FileSymbols(file FileRef) []SymbolRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.files[file.path]
	if !ok {
		return nil
	}
	out := make([]SymbolRef, 0, len(f.declarations))
	for _, ref := range f.declarations {
		out = append(out, ref)
	}
	return out
}

// FullPath returns scope's fully-qualified dotted path, starting with the
// root scope's own name, e.g. "$root.top.gen_loop[0].counter".
func (c *Core) FullPath(scope ScopeRef) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.scopes[scope]; !ok {
		return "", false
	}
	segs := c.pathLocked(scope)
	out := ""
	for i, seg := range segs {
		if i > 0 {
			out += "."
		}
		out += seg
	}
	return out, true
}

// AddSymbol inserts a new symbol named name, declared at sourceRange, as
// content of scope. sourceRange's file must already exist via
// GetOrCreateFile. If a symbol with the same declaration Range already
// exists in that file, AddSymbol is idempotent and returns the existing
// symbol.
func (c *Core) AddSymbol(scope ScopeRef, file FileRef, name string, sourceRange location.Range) (SymbolRef, error) {
	if sourceRange.IsZero() {
		return SymbolRef{}, ErrSymbolWithoutRange
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.scopes[scope]
	if !ok {
		return SymbolRef{}, fmt.Errorf("%w: %v", ErrUnknownScope, scope)
	}
	f, ok := c.files[file.path]
	if !ok {
		return SymbolRef{}, fmt.Errorf("%w: %v", ErrUnknownFile, file)
	}

	if existing, ok := f.declarations[sourceRange]; ok {
		return existing, nil
	}

	ref := SymbolRef{id: uuid.New()}
	sym := newSymbol(ref, name, sourceRange)
	c.syms[ref] = sym
	f.addDeclaration(sourceRange, ref)
	f.addReference(sourceRange, ref)
	s.content[name] = ref

	return ref, nil
}

// AddReference grows sym's reference set with rng and registers rng in the
// File Record owning it, so later lookup_symbol_at calls can find sym from
// any position inside rng.
func (c *Core) AddReference(file FileRef, sym SymbolRef, rng location.Range) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.syms[sym]
	if !ok {
		return fmt.Errorf("index: unknown symbol %v", sym)
	}
	f, ok := c.files[file.path]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownFile, file)
	}
	s.addReference(rng)
	f.addReference(rng, sym)
	return nil
}

// Symbol returns a read-only snapshot of sym's attributes.
func (c *Core) Symbol(sym SymbolRef) (SymbolInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.syms[sym]
	if !ok {
		return SymbolInfo{}, false
	}
	return s.snapshot(), true
}

// LookupSymbolAt finds the symbol referenced at loc within file, if any.
func (c *Core) LookupSymbolAt(file FileRef, loc location.Position) (SymbolRef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.files[file.path]
	if !ok {
		return SymbolRef{}, false
	}
	ref, _, ok := f.lookupAt(loc)
	return ref, ok
}

// LookupScopeAt returns the most specific scope in file whose source Range
// contains loc.
func (c *Core) LookupScopeAt(file FileRef, loc location.Position) (ScopeRef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.files[file.path]
	if !ok {
		return ScopeRef{}, false
	}
	var best ScopeRef
	var bestSize = -1
	for ref := range f.scopes {
		s, ok := c.scopes[ref]
		if !ok || s.source.IsZero() || !s.source.Contains(loc) {
			continue
		}
		size := rangeSpan(s.source)
		if bestSize == -1 || size < bestSize {
			best = ref
			bestSize = size
		}
	}
	return best, bestSize != -1
}

// LookupScopeCovering returns the most specific scope in file whose source
// Range fully contains rng.
func (c *Core) LookupScopeCovering(file FileRef, rng location.Range) (ScopeRef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.files[file.path]
	if !ok {
		return ScopeRef{}, false
	}
	var best ScopeRef
	var bestSize = -1
	for ref := range f.scopes {
		s, ok := c.scopes[ref]
		if !ok || s.source.IsZero() || !s.source.ContainsRange(rng) {
			continue
		}
		size := rangeSpan(s.source)
		if bestSize == -1 || size < bestSize {
			best = ref
			bestSize = size
		}
	}
	return best, bestSize != -1
}

// rangeSpan gives a coarse line-granularity size for comparing which of two
// containing ranges is more specific; ties are broken arbitrarily since the
// scope tree never has two distinct scopes with the same source Range in
// the same file (enforced by GetChildByExactRange dedup during build).
func rangeSpan(r location.Range) int {
	return (r.End.Line-r.Start.Line)*100000 + (r.End.Column - r.Start.Column)
}
