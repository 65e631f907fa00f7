package align

import (
	"github.com/diplomat-hdl/diplomat/spacing"
	"github.com/diplomat-hdl/diplomat/sv/ast"
)

// Options configures a formatting pass, mirroring the workspace settings
// §4.H's textDocument/formatting handler reads (tab width, tabs-vs-spaces).
type Options struct {
	SpacePerLevel int
	UseTabs       bool
}

// Format rewrites root's trivia for column-aligned output, recursing into
// every nested scope (module/interface bodies, generate blocks, module
// instantiations) this engine knows how to align. Nodes of a kind this
// engine does not dispatch on (continuous assigns, procedural blocks,
// subroutine bodies, param declarations, ...) pass through unchanged —
// §4.G's stated failure semantics: unknown syntax is never an error, it is
// simply left alone.
func Format(root ast.Node, opts Options) ast.Node {
	engine := spacing.NewEngine(optsSpacePerLevel(opts), opts.UseTabs)
	return formatNode(engine, root)
}

func optsSpacePerLevel(opts Options) int {
	if opts.SpacePerLevel <= 0 {
		return 2
	}
	return opts.SpacePerLevel
}

func formatNode(engine *spacing.Engine, n ast.Node) ast.Node {
	switch v := n.(type) {
	case *ast.ModuleDecl:
		guard := spacing.NewIndentGuard(engine, 1)
		ports := FormatSiblings(engine, v.Ports)
		body := FormatSiblings(engine, v.Body)
		guard.Release()
		return ast.NewModuleDecl(v.Kind(), v.Range(), v.Name(), v.Params, ports, body, v.Tokens())
	case *ast.ModuleInstantiation:
		return EmitInstantiation(engine, v, MeasureInstantiation(v))
	}

	switch n.Kind() {
	case ast.KindCompilationUnit:
		children := FormatSiblings(engine, n.Children())
		return ast.NewNode(n.Kind(), n.Range(), n.Name(), children, n.Tokens())
	case ast.KindPackageDecl, ast.KindGenerateBlock, ast.KindGenerateIf, ast.KindGenerateFor:
		guard := spacing.NewIndentGuard(engine, 1)
		children := FormatSiblings(engine, n.Children())
		guard.Release()
		return ast.NewNode(n.Kind(), n.Range(), n.Name(), children, n.Tokens())
	default:
		return n
	}
}

// FormatSiblings splits a sequence of sibling nodes into alignment blocks
// (SplitBlocks) and, for each block, either runs Measure+Emit (an alignable
// run of DataDecl/ansi-port members) or recurses structurally into the lone
// node (anything else — a nested scope, an instantiation, or a node this
// engine does not align at all).
func FormatSiblings(engine *spacing.Engine, nodes []ast.Node) []ast.Node {
	var out []ast.Node
	for _, block := range SplitBlocks(nodes) {
		if members, ok := asMembers(block); ok {
			sizes := Measure(members)
			emitted, _ := Emit(engine, members, sizes)
			out = append(out, emitted...)
			continue
		}
		for _, n := range block {
			out = append(out, formatNode(engine, n))
		}
	}
	return out
}

func asMembers(block []ast.Node) ([]member, bool) {
	members := make([]member, len(block))
	for i, n := range block {
		m, ok := AsMember(n)
		if !ok {
			return nil, false
		}
		members[i] = m
	}
	return members, true
}
