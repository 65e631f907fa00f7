// Package resolve implements the Reference Resolver: a second walk of a
// parsed compilation unit, run after the Index Build Visitor has populated
// an index.Core with scopes and symbols, that binds every name use back to
// the symbol it denotes.
//
// Grounded on SPEC_FULL.md §4.E and on the teacher's schema/expr +
// instance/eval "resolve a name against a scope, falling back outward"
// pattern, with the instance-boundary special cases (module-type token in
// global scope, connection name in the instantiated body, connection value
// in the calling scope) grounded on visitor_index.cpp's RefVisitor.
package resolve

import (
	"github.com/diplomat-hdl/diplomat/diag"
	"github.com/diplomat-hdl/diplomat/index"
	"github.com/diplomat-hdl/diplomat/sv/ast"
)

// Resolver drives one walk of a parsed compilation unit, binding every
// ScopedName it finds to a symbol already recorded in core.
type Resolver struct {
	core      *index.Core
	file      index.FileRef
	collector *diag.Collector

	unresolved int
}

// New creates a Resolver over core's file. The Index Build Visitor must
// have already walked this same tree into core.
func New(core *index.Core, file index.FileRef, collector *diag.Collector) *Resolver {
	return &Resolver{core: core, file: file, collector: collector}
}

// Walk performs the full reference-resolution pass over root, the same
// parsed compilation unit node the Index Build Visitor consumed.
func (r *Resolver) Walk(root ast.Node) {
	r.visit(root)
}

// Unresolved returns the count of name uses that could not be bound to any
// symbol. A positive count does not fail the build (§4.E step 5).
func (r *Resolver) Unresolved() int {
	return r.unresolved
}

func (r *Resolver) visit(n ast.Node) {
	if n == nil {
		return
	}

	switch n.Kind() {
	case ast.KindScopedName:
		r.resolveScopedName(n.(*ast.ScopedName))
		return
	case ast.KindModuleInstantiation:
		r.visitModuleInstantiation(n.(*ast.ModuleInstantiation))
		return
	case ast.KindMacroUse:
		// Macro invocations surface only their argument tokens for
		// resolution; the macro identifier itself is never a name use.
		for _, c := range n.Children() {
			r.visit(c)
		}
		return
	}

	for _, c := range n.Children() {
		r.visit(c)
	}
}

// resolveScopedName binds a (possibly hierarchical) name reference: the
// covering scope is found from the reference's own Range, a single-segment
// name is resolved with non-strict forwarding through virtual ancestors, and
// a multi-segment name descends child-by-child before a strict lookup on
// its last segment (index.Core.ResolveSymbol already implements exactly
// this rule).
func (r *Resolver) resolveScopedName(n *ast.ScopedName) {
	scope, ok := r.core.LookupScopeCovering(r.file, n.Range())
	if !ok {
		r.countUnresolved(n)
		r.visitSegmentIndexes(n)
		return
	}

	var sym index.SymbolRef
	if len(n.Segments) == 1 {
		sym, ok = r.core.LookupSymbol(scope, n.Segments[0].NameToken.Text, false)
	} else {
		path := make([]string, len(n.Segments))
		for i, seg := range n.Segments {
			path[i] = seg.NameToken.Text
		}
		sym, ok = r.core.ResolveSymbol(scope, path)
	}

	if ok {
		_ = r.core.AddReference(r.file, sym, n.Range())
	} else {
		r.countUnresolved(n)
	}

	r.visitSegmentIndexes(n)
}

// visitSegmentIndexes descends into any `[i]` index expressions attached to
// a scoped name's segments, which may themselves contain name references.
func (r *Resolver) visitSegmentIndexes(n *ast.ScopedName) {
	for _, seg := range n.Segments {
		if seg.Index != nil {
			r.visit(seg.Index)
		}
	}
}

// visitModuleInstantiation implements the instance-boundary special cases:
// the module-type token is resolved in the global (root) scope rather than
// the calling scope, each connection's name is resolved in the instantiated
// module's own body scope, and each connection's value expression is
// resolved in the calling scope — the scope the instantiation itself lives
// in.
func (r *Resolver) visitModuleInstantiation(n *ast.ModuleInstantiation) {
	moduleSym, moduleFound := r.core.LookupSymbol(r.core.Root(), n.ModuleType.Text, false)
	if moduleFound {
		_ = r.core.AddReference(r.file, moduleSym, n.ModuleType.Range)
	} else {
		r.countUnresolved(n)
	}

	moduleScope, hasModuleScope := r.core.ResolveScope(r.core.Root(), []string{n.ModuleType.Text})

	for _, param := range n.Params {
		r.resolveConnection(param, moduleScope, hasModuleScope)
	}
	for _, inst := range n.Instances {
		for _, port := range inst.Ports {
			r.resolveConnection(port, moduleScope, hasModuleScope)
		}
	}
}

// resolveConnection binds a connection's own name in the instantiated
// module's body scope. Its value expression is resolved by the generic
// visit, which derives the calling scope afresh from the expression's own
// Range — that Range sits in the caller's file, so LookupScopeCovering
// naturally lands on the calling scope without it being threaded through.
func (r *Resolver) resolveConnection(conn *ast.NamedConnection, moduleScope index.ScopeRef, hasModuleScope bool) {
	if hasModuleScope {
		if sym, ok := r.core.LookupSymbol(moduleScope, conn.NameToken.Text, false); ok {
			_ = r.core.AddReference(r.file, sym, conn.NameToken.Range)
		} else {
			r.countUnresolved(conn)
		}
	} else {
		r.countUnresolved(conn)
	}

	if conn.Value != nil {
		r.visit(conn.Value)
	}
}

func (r *Resolver) countUnresolved(n ast.Node) {
	r.unresolved++
	if r.collector == nil {
		return
	}
	r.collector.Collect(diag.NewIssue(diag.Info, diag.E_UNRESOLVED_REFERENCE, "unresolved reference").
		WithRange(n.Range()).
		WithDetails(diag.SymbolInScope(n.Name(), n.Kind().String())...).
		Build())
}
