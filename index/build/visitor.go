// Package build implements the Index Build Visitor: a single walk of a
// parsed compilation unit that populates an [index.Core] with scopes and
// symbols.
//
// Grounded on SPEC_FULL.md §4.D's state machine and on the teacher's
// schema/build walk-and-register visitor shape (one Builder, one walk,
// errors surfaced through the same diag.Collector the walk was given).
package build

import (
	"fmt"

	"github.com/diplomat-hdl/diplomat/diag"
	"github.com/diplomat-hdl/diplomat/index"
	"github.com/diplomat-hdl/diplomat/sv/ast"
)

// declaringKinds are non-scope productions that introduce a symbol in the
// scope currently open when they are visited.
var declaringKinds = map[ast.Kind]bool{
	ast.KindDeclarator: true,
	ast.KindAnsiPort:   true,
	ast.KindParamDecl:  true,
}

// namedScopeKinds are ScopeKinds whose own name is additionally registered
// as a symbol in the *parent* scope, so the declaration (module, package,
// interface, subroutine) is itself resolvable by name from outside — e.g.
// for the Reference Resolver's "module type token resolved in the global
// scope" rule (§4.E). Unnamed scope-openers (generate blocks, procedural
// blocks, statement blocks, the compilation unit) carry no such symbol.
var namedScopeKinds = map[ast.Kind]bool{
	ast.KindModuleDecl:     true,
	ast.KindInterfaceDecl:  true,
	ast.KindPackageDecl:    true,
	ast.KindSubroutineDecl: true,
}

// Visitor drives one walk of a parsed compilation unit, inserting scopes
// and symbols into an [index.Core].
type Visitor struct {
	core      *index.Core
	file      index.FileRef
	collector *diag.Collector

	stack []index.ScopeRef
}

// New creates a Visitor that populates core's file FileRef, starting from
// core's current root scope. Callers must call core.SetRoot before the
// first build.
func New(core *index.Core, file index.FileRef, collector *diag.Collector) *Visitor {
	return &Visitor{
		core:      core,
		file:      file,
		collector: collector,
		stack:     []index.ScopeRef{core.Root()},
	}
}

// Walk performs the full build-visitor pass over root, which must be the
// parsed compilation unit node.
func (v *Visitor) Walk(root ast.Node) {
	v.visit(root)
}

func (v *Visitor) top() index.ScopeRef {
	return v.stack[len(v.stack)-1]
}

func (v *Visitor) push(s index.ScopeRef) {
	v.stack = append(v.stack, s)
}

func (v *Visitor) pop() {
	v.stack = v.stack[:len(v.stack)-1]
}

func (v *Visitor) visit(n ast.Node) {
	if n == nil {
		return
	}

	switch n.Kind() {
	case ast.KindCompilationUnit:
		// Record the root on the file without opening a new scope; the walk
		// visits contained declarations directly in the existing root scope.
		if err := v.core.SetScopeSource(v.top(), v.file, n.Range()); err != nil {
			v.reportInternal(n, err)
		}
		for _, c := range n.Children() {
			v.visit(c)
		}
		return

	case ast.KindModuleInstantiation:
		v.visitModuleInstantiation(n.(*ast.ModuleInstantiation))
		return
	}

	if ast.ScopeKinds[n.Kind()] {
		v.visitScope(n)
		return
	}

	if declaringKinds[n.Kind()] && n.Name() != "" {
		v.declareSymbol(n)
	}

	for _, c := range n.Children() {
		v.visit(c)
	}
}

// visitScope opens (or reopens, on an exact source-range match) a scope for
// n, descends into its children, then closes it. Scope-openers whose kind
// is in namedScopeKinds additionally register a symbol for n's name in the
// parent scope.
func (v *Visitor) visitScope(n ast.Node) {
	parent := v.top()

	if namedScopeKinds[n.Kind()] && n.Name() != "" {
		if _, err := v.core.AddSymbol(parent, v.file, n.Name(), n.Range()); err != nil {
			v.reportInternal(n, err)
		}
	}

	child, actualName, err := v.openScope(parent, n)
	if err != nil {
		v.reportInternal(n, err)
		return
	}

	v.push(child)
	for _, c := range n.Children() {
		v.visit(c)
	}
	v.closeScope(n, actualName)
}

// openScope reuses an existing child of parent whose source Range exactly
// matches n's (a textual duplicate reached via re-elaboration), or creates
// a fresh one. Every ScopeKind is virtual except the instance body, which
// visitModuleInstantiation opens directly via the Core rather than through
// this path.
func (v *Visitor) openScope(parent index.ScopeRef, n ast.Node) (index.ScopeRef, string, error) {
	if existing, ok := v.core.GetChildByExactRange(parent, n.Range()); ok {
		info, ok := v.core.Scope(existing)
		if !ok {
			return index.ScopeRef{}, "", fmt.Errorf("index/build: reopened scope vanished")
		}
		return existing, info.Name, nil
	}

	child, err := v.core.AddChild(parent, n.Name(), true)
	if err != nil {
		return index.ScopeRef{}, "", err
	}
	if err := v.core.SetScopeSource(child, v.file, n.Range()); err != nil {
		return index.ScopeRef{}, "", err
	}
	info, _ := v.core.Scope(child)
	return child, info.Name, nil
}

// closeScope verifies that the scope on top of the stack is the one the
// open step returned (expectedName), then pops it. A mismatch is a
// programming error in the walk's push/pop discipline; it is reported as
// E_SCOPE_CLOSE_MISMATCH rather than panicking so one bad subtree does not
// abort the rest of the build.
func (v *Visitor) closeScope(n ast.Node, expectedName string) {
	top := v.top()
	info, ok := v.core.Scope(top)
	if !ok || info.Name != expectedName {
		got := "<unknown>"
		if ok {
			got = info.Name
		}
		v.collector.Collect(diag.NewIssue(diag.Error, diag.E_SCOPE_CLOSE_MISMATCH,
			fmt.Sprintf("scope close mismatch: expected %q, got %q", expectedName, got)).
			WithRange(n.Range()).
			WithDetails(diag.SymbolInScope(expectedName, n.Kind().String())...).
			Build())
	}
	v.pop()
}

// visitModuleInstantiation implements the instance two-scope rule: each
// Instance under the same module-type node declares a symbol for its own
// name (the instantiation itself), then opens a non-virtual scope for the
// instance body — the one ScopeKind exception that does not forward
// non-strict lookups to its parent.
//
// This front end's elaboration is shallow (§4.B): the body scope is opened
// so resolve_symbol's fall-through behavior at instance boundaries is
// exercised, but is not populated by cloning the instantiated module's
// members — no such elaboration is performed.
func (v *Visitor) visitModuleInstantiation(n *ast.ModuleInstantiation) {
	parent := v.top()

	// Parameter connections are shared across every instance of this type
	// and resolved in the calling scope, so they are walked once here.
	for _, param := range n.Params {
		v.visit(param)
	}

	for _, inst := range n.Instances {
		if _, err := v.core.AddSymbol(parent, v.file, inst.Name(), inst.Range()); err != nil {
			v.reportInternal(inst, err)
			continue
		}

		body, ok := v.core.GetChildByExactRange(parent, inst.Range())
		if !ok {
			var err error
			body, err = v.core.AddChild(parent, inst.Name(), false)
			if err != nil {
				v.reportInternal(inst, err)
				continue
			}
			if err := v.core.SetScopeSource(body, v.file, inst.Range()); err != nil {
				v.reportInternal(inst, err)
			}
		}

		for _, port := range inst.Ports {
			v.visit(port)
		}
	}
}

// declareSymbol records n as a symbol in the currently open scope, using
// n's Range as both the declaration site and the key in the file's
// declarations table.
func (v *Visitor) declareSymbol(n ast.Node) {
	if _, err := v.core.AddSymbol(v.top(), v.file, n.Name(), n.Range()); err != nil {
		v.reportInternal(n, err)
	}
}

func (v *Visitor) reportInternal(n ast.Node, err error) {
	if v.collector == nil {
		return
	}
	v.collector.Collect(diag.NewIssue(diag.Error, diag.E_INTERNAL, err.Error()).
		WithRange(n.Range()).
		Build())
}
