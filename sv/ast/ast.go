// Package ast defines the CST node variant this front end produces: a
// tagged union with one Kind per syntactic production, each carrying its
// own payload and the tokens/children needed to reconstruct source text.
//
// The design follows §9's "dynamic dispatch over CST nodes" note: a single
// Node interface, a central Kind-based dispatch, and kind-specific payload
// structs rather than a deep interface hierarchy per node type.
package ast

import (
	"github.com/diplomat-hdl/diplomat/location"
	"github.com/diplomat-hdl/diplomat/sv/token"
)

// Kind tags the syntactic production a Node represents.
type Kind int

const (
	KindInvalid Kind = iota
	KindCompilationUnit
	KindModuleDecl
	KindPackageDecl
	KindInterfaceDecl
	KindParamPortList
	KindParamDecl
	KindAnsiPortList
	KindAnsiPort
	KindDataDecl
	KindVariableDim
	KindDeclarator
	KindModuleInstantiation
	KindInstance
	KindNamedConnection
	KindOrderedConnection
	KindContinuousAssign
	KindGenerateBlock
	KindGenerateIf
	KindGenerateFor
	KindProceduralBlock
	KindStatementBlock
	KindSubroutineDecl
	KindScopedName
	KindIndexedName
	KindDottedName
	KindSimpleName
	KindExpr
	KindMacroUse
)

var kindNames = map[Kind]string{
	KindInvalid:             "invalid",
	KindCompilationUnit:     "compilation-unit",
	KindModuleDecl:          "module-decl",
	KindPackageDecl:         "package-decl",
	KindInterfaceDecl:       "interface-decl",
	KindParamPortList:       "param-port-list",
	KindParamDecl:           "param-decl",
	KindAnsiPortList:        "ansi-port-list",
	KindAnsiPort:            "ansi-port",
	KindDataDecl:            "data-decl",
	KindVariableDim:         "variable-dim",
	KindDeclarator:          "declarator",
	KindModuleInstantiation: "module-instantiation",
	KindInstance:            "instance",
	KindNamedConnection:     "named-connection",
	KindOrderedConnection:   "ordered-connection",
	KindContinuousAssign:    "continuous-assign",
	KindGenerateBlock:       "generate-block",
	KindGenerateIf:          "generate-if",
	KindGenerateFor:         "generate-for",
	KindProceduralBlock:     "procedural-block",
	KindStatementBlock:      "statement-block",
	KindSubroutineDecl:      "subroutine-decl",
	KindScopedName:          "scoped-name",
	KindIndexedName:         "indexed-name",
	KindDottedName:          "dotted-name",
	KindSimpleName:          "simple-name",
	KindExpr:                "expr",
	KindMacroUse:            "macro-use",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ScopeKinds are the node Kinds the Index Build Visitor opens a scope for.
// Per SPEC_FULL.md §4.D, every one of these is virtual except KindInstance's
// body (modeled as the enclosing KindModuleInstantiation opening a second,
// non-virtual scope for the instantiated body — see index/build).
var ScopeKinds = map[Kind]bool{
	KindCompilationUnit: true,
	KindPackageDecl:     true,
	KindGenerateBlock:   true,
	KindGenerateIf:      true,
	KindGenerateFor:     true,
	KindProceduralBlock: true,
	KindStatementBlock:  true,
	KindSubroutineDecl:  true,
	KindModuleDecl:      true,
	KindInterfaceDecl:   true,
}

// Node is a CST node: every production implements the same small surface so
// callers (Index Build Visitor, Reference Resolver, Alignment Formatter) can
// walk the tree with one dispatch convention regardless of concrete kind.
type Node interface {
	Kind() Kind
	Range() location.Range
	Children() []Node
	Tokens() []token.Token
	Name() string
}

// base is embedded by every concrete node to supply Range/Name bookkeeping.
type base struct {
	kind      Kind
	rng       location.Range
	name      string
	children  []Node
	tokens    []token.Token
}

func (b *base) Kind() Kind              { return b.kind }
func (b *base) Range() location.Range   { return b.rng }
func (b *base) Children() []Node        { return b.children }
func (b *base) Tokens() []token.Token   { return b.tokens }
func (b *base) Name() string            { return b.name }

// NewNode constructs a generic Node for kinds whose payload is fully
// described by children, tokens, a name and a range (the common case for
// leaf-ish productions). Structured kinds with extra payload (see below)
// wrap a *base and add fields of their own.
func NewNode(kind Kind, rng location.Range, name string, children []Node, tokens []token.Token) Node {
	return &base{kind: kind, rng: rng, name: name, children: children, tokens: tokens}
}

// ModuleDecl is a module (or interface) declaration: its name, parameter
// port list, ANSI port list, and body items.
type ModuleDecl struct {
	base
	Params []Node
	Ports  []Node
	Body   []Node
}

// NewModuleDecl constructs a ModuleDecl node of the given kind (KindModuleDecl
// or KindInterfaceDecl; both share this payload shape).
func NewModuleDecl(kind Kind, rng location.Range, name string, params, ports, body []Node, tokens []token.Token) *ModuleDecl {
	all := append(append(append([]Node{}, params...), ports...), body...)
	return &ModuleDecl{
		base:   base{kind: kind, rng: rng, name: name, children: all, tokens: tokens},
		Params: params,
		Ports:  ports,
		Body:   body,
	}
}

// DataDecl is a variable/net declaration block member: modifiers, a data
// type (with optional packed dimensions), and one or more declarators.
// This is the node the Alignment Formatter's Measure/Emit passes operate on.
type DataDecl struct {
	base
	Modifiers    []token.Token
	TypeTokens   []token.Token // type keyword (+ signed/unsigned)
	PackedDims   []*VariableDim
	Declarators  []*Declarator
	Terminator   token.Token
}

// NewDataDecl constructs a DataDecl node.
func NewDataDecl(rng location.Range, modifiers, typeTokens []token.Token, packed []*VariableDim, decls []*Declarator, terminator token.Token) *DataDecl {
	var children []Node
	for _, d := range packed {
		children = append(children, d)
	}
	for _, d := range decls {
		children = append(children, d)
	}
	var toks []token.Token
	toks = append(toks, modifiers...)
	toks = append(toks, typeTokens...)
	return &DataDecl{
		base:        base{kind: KindDataDecl, rng: rng, children: children, tokens: toks},
		Modifiers:   modifiers,
		TypeTokens:  typeTokens,
		PackedDims:  packed,
		Declarators: decls,
		Terminator:  terminator,
	}
}

// VariableDim is a single `[hi:lo]` or `[n]` dimension.
type VariableDim struct {
	base
	OpenBracket  token.Token
	High         []token.Token
	Colon        *token.Token // nil for a single-index select
	Low          []token.Token
	CloseBracket token.Token
}

// NewVariableDim constructs a VariableDim node.
func NewVariableDim(rng location.Range, open token.Token, high []token.Token, colon *token.Token, low []token.Token, close token.Token) *VariableDim {
	return &VariableDim{
		base:         base{kind: KindVariableDim, rng: rng},
		OpenBracket:  open,
		High:         high,
		Colon:        colon,
		Low:          low,
		CloseBracket: close,
	}
}

// IsRange reports whether this dimension is a `[hi:lo]` range select as
// opposed to a single-index bit select `[i]`.
func (v *VariableDim) IsRange() bool { return v.Colon != nil }

// Declarator is one `name [unpacked_dims]` inside a DataDecl.
type Declarator struct {
	base
	NameToken    token.Token
	UnpackedDims []*VariableDim
}

// NewDeclarator constructs a Declarator node.
func NewDeclarator(rng location.Range, nameTok token.Token, unpacked []*VariableDim) *Declarator {
	var children []Node
	for _, d := range unpacked {
		children = append(children, d)
	}
	return &Declarator{
		base:         base{kind: KindDeclarator, rng: rng, name: nameTok.Text, children: children, tokens: []token.Token{nameTok}},
		NameToken:    nameTok,
		UnpackedDims: unpacked,
	}
}

// ModuleInstantiation is `module_type #(params) instance_name(ports);` and
// may instantiate several instance names sharing one module type.
type ModuleInstantiation struct {
	base
	ModuleType token.Token
	Params     []*NamedConnection
	Instances  []*Instance
}

// NewModuleInstantiation constructs a ModuleInstantiation node.
func NewModuleInstantiation(rng location.Range, moduleType token.Token, params []*NamedConnection, instances []*Instance) *ModuleInstantiation {
	var children []Node
	for _, p := range params {
		children = append(children, p)
	}
	for _, inst := range instances {
		children = append(children, inst)
	}
	return &ModuleInstantiation{
		base:       base{kind: KindModuleInstantiation, rng: rng, children: children, tokens: []token.Token{moduleType}},
		ModuleType: moduleType,
		Params:     params,
		Instances:  instances,
	}
}

// Instance is one `instance_name(port connections...)` inside a
// ModuleInstantiation.
type Instance struct {
	base
	NameToken token.Token
	Ports     []*NamedConnection
}

// NewInstance constructs an Instance node.
func NewInstance(rng location.Range, nameTok token.Token, ports []*NamedConnection) *Instance {
	var children []Node
	for _, p := range ports {
		children = append(children, p)
	}
	return &Instance{
		base:      base{kind: KindInstance, rng: rng, name: nameTok.Text, children: children, tokens: []token.Token{nameTok}},
		NameToken: nameTok,
		Ports:     ports,
	}
}

// NamedConnection is `.name(expr)` inside a parameter or port connection list.
type NamedConnection struct {
	base
	Dot       token.Token
	NameToken token.Token
	Value     Node
}

// NewNamedConnection constructs a NamedConnection node. dot is the `.` token
// leading the connection — kept so the Alignment Formatter has a real token
// to indent onto its own line; nameTok immediately follows it with no
// whitespace of its own to rewrite.
func NewNamedConnection(rng location.Range, dot, nameTok token.Token, value Node) *NamedConnection {
	var children []Node
	if value != nil {
		children = []Node{value}
	}
	return &NamedConnection{
		base:      base{kind: KindNamedConnection, rng: rng, name: nameTok.Text, children: children, tokens: []token.Token{dot, nameTok}},
		Dot:       dot,
		NameToken: nameTok,
		Value:     value,
	}
}

// ScopedName is `a::b` or `a.b[i]` — a hierarchical/scoped identifier
// reference, resolved segment by segment by the Reference Resolver (§4.E).
type ScopedName struct {
	base
	Segments []NameSegment
}

// NameSegment is one dotted/scoped/indexed piece of a ScopedName.
type NameSegment struct {
	NameToken token.Token
	// Scoped is true when this segment was reached via `::` (package/class
	// scope resolution) rather than `.` (hierarchical/member access).
	Scoped bool
	Index  Node // non-nil for a `[i]` applied to this segment
}

// NewScopedName constructs a ScopedName node.
func NewScopedName(rng location.Range, segments []NameSegment) *ScopedName {
	var toks []token.Token
	for _, s := range segments {
		toks = append(toks, s.NameToken)
	}
	last := segments[len(segments)-1]
	return &ScopedName{
		base:     base{kind: KindScopedName, rng: rng, name: last.NameToken.Text, tokens: toks},
		Segments: segments,
	}
}
