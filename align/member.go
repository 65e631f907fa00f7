package align

import (
	"github.com/diplomat-hdl/diplomat/sv/ast"
	"github.com/diplomat-hdl/diplomat/sv/token"
)

// member is the uniform shape Measure/Emit need from an alignable
// declaration: a run of prefix modifiers, a data type (with optional packed
// dimensions), a declarator name, and its unpacked dimensions. DataDecl
// already has this shape natively; an ansi port (built by the parser as a
// generic ast.Node, not a dedicated struct) is adapted to it below.
type member interface {
	Node() ast.Node
	Modifiers() []token.Token
	TypeTokens() []token.Token
	PackedDims() []*ast.VariableDim
	DeclName() token.Token
	UnpackedDims() []*ast.VariableDim
}

// AsMember adapts n to member if n is a kind the Alignment Formatter knows
// how to align (KindDataDecl or KindAnsiPort, one declarator each — this
// front end never parses multi-declarator ansi ports). Returns false for any
// other kind, so callers can treat it as an unalignable pass-through node.
func AsMember(n ast.Node) (member, bool) {
	if decl, ok := n.(*ast.DataDecl); ok {
		if len(decl.Declarators) == 0 {
			return nil, false
		}
		return dataDeclMember{decl}, true
	}
	if n.Kind() == ast.KindAnsiPort {
		return newAnsiPortMember(n)
	}
	return nil, false
}

type dataDeclMember struct{ decl *ast.DataDecl }

func (m dataDeclMember) Node() ast.Node              { return m.decl }
func (m dataDeclMember) Modifiers() []token.Token    { return m.decl.Modifiers }
func (m dataDeclMember) TypeTokens() []token.Token   { return m.decl.TypeTokens }
func (m dataDeclMember) PackedDims() []*ast.VariableDim { return m.decl.PackedDims }
func (m dataDeclMember) DeclName() token.Token {
	return m.decl.Declarators[0].NameToken
}
func (m dataDeclMember) UnpackedDims() []*ast.VariableDim {
	return m.decl.Declarators[0].UnpackedDims
}

// ansiPortMember decomposes a generic KindAnsiPort node. The parser packs an
// ansi port's modifiers and type tokens into Tokens() (in that order, with no
// marker between them) and its packed dimensions plus its single Declarator
// into Children() (declarator last) — see sv/parse.parseAnsiPort. The
// keyword set below is exactly the set parseAnsiPort recognizes.
type ansiPortMember struct {
	node       ast.Node
	modifiers  []token.Token
	typeTokens []token.Token
	packedDims []*ast.VariableDim
	decl       *ast.Declarator
}

func newAnsiPortMember(n ast.Node) (member, bool) {
	children := n.Children()
	if len(children) == 0 {
		return nil, false
	}
	decl, ok := children[len(children)-1].(*ast.Declarator)
	if !ok {
		return nil, false
	}
	var packed []*ast.VariableDim
	for _, c := range children[:len(children)-1] {
		dim, ok := c.(*ast.VariableDim)
		if !ok {
			return nil, false
		}
		packed = append(packed, dim)
	}

	var modifiers, typeTokens []token.Token
	for _, t := range n.Tokens() {
		if isPortModifierKeyword(t.Kind) {
			modifiers = append(modifiers, t)
		} else {
			typeTokens = append(typeTokens, t)
		}
	}

	return ansiPortMember{
		node:       n,
		modifiers:  modifiers,
		typeTokens: typeTokens,
		packedDims: packed,
		decl:       decl,
	}, true
}

func isPortModifierKeyword(k token.Kind) bool {
	switch k {
	case token.KwInput, token.KwOutput, token.KwInout:
		return true
	default:
		return false
	}
}

func (m ansiPortMember) Node() ast.Node                  { return m.node }
func (m ansiPortMember) Modifiers() []token.Token         { return m.modifiers }
func (m ansiPortMember) TypeTokens() []token.Token        { return m.typeTokens }
func (m ansiPortMember) PackedDims() []*ast.VariableDim   { return m.packedDims }
func (m ansiPortMember) DeclName() token.Token            { return m.decl.NameToken }
func (m ansiPortMember) UnpackedDims() []*ast.VariableDim { return m.decl.UnpackedDims }
