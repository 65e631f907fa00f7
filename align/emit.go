package align

import (
	"github.com/diplomat-hdl/diplomat/spacing"
	"github.com/diplomat-hdl/diplomat/sv/ast"
	"github.com/diplomat-hdl/diplomat/sv/token"
)

// Emit runs Pass 2 over a measured block, returning one rewritten node per
// member in the same order. Grounded on
// DataDeclarationSyntaxVisitor::_format(DataDeclarationSyntax) /
// _format(ImplicitAnsiPortSyntax) / _format_data_type_syntax, collapsed into
// one function since this front end's DataDecl and ansi-port members share
// the same modifier/type/declarator/dimension shape (see member.go) — the
// original's NamedType branch has no counterpart here, since this front
// end's data types are always the LogicType-shaped keyword set.
// Alongside the nodes it returns one trailing residual per member — the
// leftover column budget after the declarator and its unpacked dimensions
// (the original's _remaining_alignment). Format discards the residuals.
func Emit(engine *spacing.Engine, members []member, sizes Sizes) ([]ast.Node, []int) {
	nodes := make([]ast.Node, len(members))
	trailing := make([]int, len(members))
	for i, m := range members {
		nodes[i], trailing[i] = emitMember(engine, m, sizes)
	}
	return nodes, trailing
}

func emitMember(engine *spacing.Engine, m member, sizes Sizes) (ast.Node, int) {
	modifiers, budget, firstIsTypeKeyword := emitModifiers(engine, m.Modifiers(), sizes.ModifierSizes)
	typeTokens, packedBudget := emitTypeTokens(engine, m.TypeTokens(), budget, firstIsTypeKeyword, sizes)

	packed, residual := engine.AlignDimension(m.PackedDims(), sizes.TypeSizes, packedBudget)
	if residual == 0 {
		residual = 1
	}
	if len(sizes.TypeSizes) != 0 && len(packed) == 0 {
		residual++
	}

	name := engine.ReplaceSpacing(m.DeclName(), residual)

	unpackedBudget := sizes.VarNameSize - len(m.DeclName().RawText()) + 1
	unpacked, trailing := engine.AlignDimension(m.UnpackedDims(), sizes.ArraySizes, unpackedBudget)

	return rebuild(m, modifiers, typeTokens, packed, name, unpacked, trailing, engine), trailing
}

// emitModifiers rewrites a member's prefix keywords (direction, var/const,
// net type, ...) in place: the first token is indented to the member's
// line, each following token is column-aligned to modifierSizes[i-1]. When
// this member has fewer modifiers than the widest sibling, the unused
// columns' budget (plus one separating space per missing modifier) carries
// into the type column, exactly like _format's modifier_id < _modifier_sizes.size() branch.
func emitModifiers(engine *spacing.Engine, modifiers []token.Token, modifierSizes []int) ([]token.Token, int, bool) {
	out := make([]token.Token, len(modifiers))
	budget := 0
	for i, tok := range modifiers {
		if i == 0 {
			out[i] = engine.Indent(tok, 0)
		} else {
			out[i] = engine.ReplaceSpacing(tok, budget)
		}
		budget = modifierSizes[i] + 1 - len(tok.RawText())
	}

	if len(modifiers) < len(modifierSizes) {
		missing := modifierSizes[len(modifiers):]
		for _, w := range missing {
			budget += w
		}
		budget += len(missing)
	}
	if len(modifiers) != 0 && budget == 0 {
		budget = 1
	}
	return out, budget, len(modifiers) == 0
}

// emitTypeTokens rewrites the type keyword (and optional signing token),
// returning the remaining budget that align_dimension applies to the packed
// dimensions. indentFirst is true when there were no modifiers, so the type
// keyword itself is the line's first (indented) token.
func emitTypeTokens(engine *spacing.Engine, typeTokens []token.Token, budget int, indentFirst bool, sizes Sizes) ([]token.Token, int) {
	if len(typeTokens) == 0 {
		return nil, budget
	}
	out := make([]token.Token, len(typeTokens))

	keyword := typeTokens[0]
	if indentFirst {
		out[0] = engine.Indent(keyword, budget)
	} else {
		out[0] = engine.ReplaceSpacing(keyword, budget)
	}
	next := sizes.TypeNameSize - len(keyword.RawText())

	if len(typeTokens) > 1 {
		signing := typeTokens[1]
		out[1] = engine.ReplaceSpacing(signing, 1)
		next -= 1 + len(signing.RawText())
	}

	return out, next
}

// rebuild reassembles the member's concrete node type with the rewritten
// tokens, preserving Range and any un-rewritten declarators (this front end,
// like the original, only column-aligns the first declarator of a
// comma-separated DataDecl).
func rebuild(m member, modifiers, typeTokens []token.Token, packed []*ast.VariableDim, name token.Token, unpacked []*ast.VariableDim, trailing int, engine *spacing.Engine) ast.Node {
	switch v := m.(type) {
	case dataDeclMember:
		decl := v.decl
		first := ast.NewDeclarator(decl.Declarators[0].Range(), name, unpacked)
		decls := make([]*ast.Declarator, len(decl.Declarators))
		decls[0] = first
		copy(decls[1:], decl.Declarators[1:])
		terminator := engine.ReplaceSpacing(decl.Terminator, trailing)
		return ast.NewDataDecl(decl.Range(), modifiers, typeTokens, packed, decls, terminator)
	case ansiPortMember:
		newDecl := ast.NewDeclarator(v.decl.Range(), name, unpacked)
		var children []ast.Node
		for _, d := range packed {
			children = append(children, d)
		}
		children = append(children, newDecl)
		toks := append(append([]token.Token{}, modifiers...), typeTokens...)
		return ast.NewNode(ast.KindAnsiPort, v.node.Range(), name.Text, children, toks)
	default:
		return m.Node()
	}
}
