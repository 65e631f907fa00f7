// Package parse implements a recursive-descent parser over an sv/lex token
// stream, producing an sv/ast CST for the SystemVerilog subset described by
// SPEC_FULL.md §4.B: module declarations with parameter/ANSI port lists,
// variable/net data declarations with packed/unpacked dimensions, module
// instantiation with named connections, continuous assignment, generate
// blocks, procedural blocks and subroutines treated as opaque statement
// scopes, packages, and scoped/dotted/indexed name expressions.
//
// The parser is a hand-rolled recursive-descent parser that keeps
// expressions as flat token runs rather than parsing them by precedence: an
// explicit token cursor, one-token lookahead, and diag.Collector-reported
// syntax errors rather than panics, so a single malformed declaration does
// not abort parsing of the rest of the file (§7: parse errors are surfaced
// as diagnostics, the build still commits a partial AST).
package parse

import (
	"fmt"

	"github.com/diplomat-hdl/diplomat/diag"
	"github.com/diplomat-hdl/diplomat/location"
	"github.com/diplomat-hdl/diplomat/sv/ast"
	"github.com/diplomat-hdl/diplomat/sv/lex"
	"github.com/diplomat-hdl/diplomat/sv/token"
)

// Parser consumes a pre-lexed token stream and builds an sv/ast tree.
type Parser struct {
	source    location.SourceID
	toks      []token.Token
	pos       int
	collector *diag.Collector
}

// New creates a Parser over src, tokenized freshly via sv/lex.
func New(source location.SourceID, src string, collector *diag.Collector) *Parser {
	toks := lex.New(source, src).Tokens()
	return &Parser{source: source, toks: toks, collector: collector}
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) at(k token.Kind) bool {
	return p.cur().Kind == k
}

func (p *Parser) atEOF() bool {
	return p.cur().Kind == token.EOF
}

// expect consumes a token of kind k or reports a syntax-error diagnostic and
// returns the current token unconsumed (error recovery by the caller).
func (p *Parser) expect(k token.Kind) token.Token {
	if p.at(k) {
		return p.advance()
	}
	p.errorf("expected %s, found %q", k, p.cur().Text)
	return p.cur()
}

func (p *Parser) errorf(format string, args ...any) {
	if p.collector == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	p.collector.Collect(diag.NewIssue(diag.Error, diag.E_SYNTAX, msg).
		WithRange(p.cur().Range).Build())
}

// mergeR merges two ranges, falling back to whichever operand is non-zero
// when the ranges come from different sources (should not happen in
// practice, since a Parser's tokens always share one source).
func mergeR(a, b location.Range) location.Range {
	if r, ok := location.MergeRangesSafe(a, b); ok {
		return r
	}
	if !a.IsZero() {
		return a
	}
	return b
}

// skipTo advances past tokens until one of the given kinds (or EOF), used to
// resynchronize after an unexpected token inside a declaration.
func (p *Parser) skipTo(kinds ...token.Kind) {
	for !p.atEOF() {
		for _, k := range kinds {
			if p.at(k) {
				return
			}
		}
		p.advance()
	}
}

// ParseFile parses a full compilation unit: a sequence of module, package,
// and interface declarations.
func (p *Parser) ParseFile() *ast.Node {
	start := p.cur().Range
	var items []ast.Node
	for !p.atEOF() {
		item := p.parseTopLevelItem()
		if item != nil {
			items = append(items, item)
		}
	}
	end := start
	if len(p.toks) > 0 {
		end = p.toks[len(p.toks)-1].Range
	}
	rng := mergeR(start, end)
	n := ast.NewNode(ast.KindCompilationUnit, rng, "$unit", items, nil)
	return &n
}

func (p *Parser) parseTopLevelItem() ast.Node {
	switch p.cur().Kind {
	case token.KwModule, token.KwInterface:
		return p.parseModuleDecl()
	case token.KwPackage:
		return p.parsePackageDecl()
	default:
		p.errorf("expected module, interface, or package declaration, found %q", p.cur().Text)
		p.skipTo(token.KwModule, token.KwInterface, token.KwPackage, token.EOF)
		return nil
	}
}

func (p *Parser) parsePackageDecl() ast.Node {
	start := p.advance() // 'package'
	nameTok := p.expect(token.Identifier)
	p.expect(token.Semicolon)

	var items []ast.Node
	for !p.at(token.KwEndpackage) && !p.atEOF() {
		item := p.parseBodyItem()
		if item != nil {
			items = append(items, item)
		}
	}
	end := p.expect(token.KwEndpackage)
	rng := mergeR(start.Range, end.Range)
	n := ast.NewNode(ast.KindPackageDecl, rng, nameTok.Text, items, []token.Token{start, nameTok, end})
	return n
}

func (p *Parser) parseModuleDecl() ast.Node {
	kw := p.advance() // 'module' | 'interface'
	isInterface := kw.Kind == token.KwInterface
	nameTok := p.expect(token.Identifier)

	var params []ast.Node
	if p.at(token.Hash) {
		params = p.parseParamPortList()
	}

	var ports []ast.Node
	if p.at(token.LParen) {
		ports = p.parseAnsiPortList()
	}
	p.expect(token.Semicolon)

	endKind := token.KwEndmodule
	if isInterface {
		endKind = token.KwEndinterface
	}

	var body []ast.Node
	for !p.at(endKind) && !p.atEOF() {
		item := p.parseBodyItem()
		if item != nil {
			body = append(body, item)
		}
	}
	end := p.expect(endKind)
	rng := mergeR(kw.Range, end.Range)

	kind := ast.KindModuleDecl
	if isInterface {
		kind = ast.KindInterfaceDecl
	}
	decl := ast.NewModuleDecl(kind, rng, nameTok.Text, params, ports, body, []token.Token{kw, nameTok, end})
	var n ast.Node = decl
	return n
}

func (p *Parser) parseParamPortList() []ast.Node {
	p.expect(token.Hash)
	p.expect(token.LParen)
	var params []ast.Node
	for !p.at(token.RParen) && !p.atEOF() {
		params = append(params, p.parseParamDecl())
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RParen)
	return params
}

func (p *Parser) parseParamDecl() ast.Node {
	start := p.cur().Range
	if p.at(token.KwParameter) || p.at(token.KwLocalparam) {
		p.advance()
	}
	p.consumeOptionalType()
	for p.at(token.LBracket) {
		p.parseVariableDim()
	}
	nameTok := p.expect(token.Identifier)
	var value ast.Node
	if p.at(token.Assign) {
		p.advance()
		value = p.parseSimpleExpr()
	}
	end := nameTok.Range
	if value != nil {
		end = value.Range()
	}
	rng := mergeR(start, end)
	var children []ast.Node
	if value != nil {
		children = []ast.Node{value}
	}
	return ast.NewNode(ast.KindParamDecl, rng, nameTok.Text, children, []token.Token{nameTok})
}

func (p *Parser) consumeOptionalType() {
	switch p.cur().Kind {
	case token.KwLogic, token.KwWire, token.KwReg, token.KwBit, token.KwInt, token.KwSigned, token.KwUnsigned:
		p.advance()
	}
}

func (p *Parser) parseAnsiPortList() []ast.Node {
	p.expect(token.LParen)
	var ports []ast.Node
	for !p.at(token.RParen) && !p.atEOF() {
		ports = append(ports, p.parseAnsiPort())
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RParen)
	return ports
}

func (p *Parser) parseAnsiPort() ast.Node {
	start := p.cur().Range
	var modifiers []token.Token
	for p.at(token.KwInput) || p.at(token.KwOutput) || p.at(token.KwInout) {
		modifiers = append(modifiers, p.advance())
	}
	var typeToks []token.Token
	for p.at(token.KwLogic) || p.at(token.KwWire) || p.at(token.KwReg) || p.at(token.KwSigned) || p.at(token.KwUnsigned) {
		typeToks = append(typeToks, p.advance())
	}
	var packed []*ast.VariableDim
	for p.at(token.LBracket) {
		packed = append(packed, p.parseVariableDim())
	}
	nameTok := p.expect(token.Identifier)
	var unpacked []*ast.VariableDim
	for p.at(token.LBracket) {
		unpacked = append(unpacked, p.parseVariableDim())
	}
	end := nameTok.Range
	if len(unpacked) > 0 {
		end = unpacked[len(unpacked)-1].Range()
	}
	rng := mergeR(start, end)
	decl := ast.NewDeclarator(nameTok.Range, nameTok, unpacked)
	var children []ast.Node
	for _, d := range packed {
		children = append(children, d)
	}
	children = append(children, decl)
	toks := append(append([]token.Token{}, modifiers...), typeToks...)
	return ast.NewNode(ast.KindAnsiPort, rng, nameTok.Text, children, toks)
}

func (p *Parser) parseVariableDim() *ast.VariableDim {
	open := p.expect(token.LBracket)
	high := p.parseExprTokens()
	var colon *token.Token
	var low []token.Token
	if p.at(token.Colon) {
		c := p.advance()
		colon = &c
		low = p.parseExprTokens()
	}
	close := p.expect(token.RBracket)
	rng := mergeR(open.Range, close.Range)
	return ast.NewVariableDim(rng, open, high, colon, low, close)
}

// parseExprTokens collects the raw tokens of a simple expression (bounded at
// nesting depth zero by `:`, `,`, `;`, or an unmatched `]` or `)`) without building a full expression tree; the front end does
// not evaluate expressions, it only needs their text/Range for alignment and
// for reference resolution inside them.
func (p *Parser) parseExprTokens() []token.Token {
	var toks []token.Token
	depth := 0
	for !p.atEOF() {
		switch p.cur().Kind {
		case token.LBracket, token.LParen:
			depth++
		case token.RBracket:
			if depth == 0 {
				return toks
			}
			depth--
		case token.RParen:
			if depth == 0 {
				return toks
			}
			depth--
		case token.Colon:
			if depth == 0 {
				return toks
			}
		case token.Comma, token.Semicolon:
			if depth == 0 {
				return toks
			}
		}
		toks = append(toks, p.advance())
	}
	return toks
}

func (p *Parser) parseSimpleExpr() ast.Node {
	start := p.cur().Range
	toks := p.parseExprTokens()
	end := start
	if len(toks) > 0 {
		end = toks[len(toks)-1].Range
	}
	rng := mergeR(start, end)
	return ast.NewNode(ast.KindExpr, rng, "", nil, toks)
}

func (p *Parser) parseBodyItem() ast.Node {
	switch p.cur().Kind {
	case token.KwLogic, token.KwWire, token.KwReg, token.KwBit, token.KwInt,
		token.KwStatic, token.KwConst, token.KwVar:
		return p.parseDataDecl()
	case token.KwParameter, token.KwLocalparam:
		start := p.cur().Range
		decl := p.parseParamDecl()
		term := p.expect(token.Semicolon)
		rng := mergeR(start, term.Range)
		return ast.NewNode(decl.Kind(), rng, decl.Name(), decl.Children(), decl.Tokens())
	case token.KwAssign:
		return p.parseContinuousAssign()
	case token.KwGenerate:
		return p.parseGenerateRegion()
	case token.KwIf:
		return p.parseGenerateIf()
	case token.KwFor:
		return p.parseGenerateFor()
	case token.KwAlwaysComb, token.KwAlwaysFF, token.KwAlways:
		return p.parseProceduralBlock()
	case token.KwFunction:
		return p.parseSubroutine(token.KwFunction, token.KwEndfunction)
	case token.KwTask:
		return p.parseSubroutine(token.KwTask, token.KwEndtask)
	case token.Identifier:
		return p.parseInstantiationOrAssign()
	default:
		p.errorf("unexpected token %q in module body", p.cur().Text)
		p.advance()
		return nil
	}
}

func (p *Parser) parseDataDecl() ast.Node {
	start := p.cur().Range
	var modifiers []token.Token
	for p.at(token.KwStatic) || p.at(token.KwConst) || p.at(token.KwVar) {
		modifiers = append(modifiers, p.advance())
	}
	var typeToks []token.Token
	switch p.cur().Kind {
	case token.KwLogic, token.KwWire, token.KwReg, token.KwBit, token.KwInt:
		typeToks = append(typeToks, p.advance())
	default:
		p.errorf("expected a data type, found %q", p.cur().Text)
	}
	for p.at(token.KwSigned) || p.at(token.KwUnsigned) {
		typeToks = append(typeToks, p.advance())
	}
	var packed []*ast.VariableDim
	for p.at(token.LBracket) {
		packed = append(packed, p.parseVariableDim())
	}

	var decls []*ast.Declarator
	for {
		nameTok := p.expect(token.Identifier)
		var unpacked []*ast.VariableDim
		for p.at(token.LBracket) {
			unpacked = append(unpacked, p.parseVariableDim())
		}
		end := nameTok.Range
		if len(unpacked) > 0 {
			end = unpacked[len(unpacked)-1].Range()
		}
		decls = append(decls, ast.NewDeclarator(mergeR(nameTok.Range, end), nameTok, unpacked))
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	term := p.expect(token.Semicolon)
	rng := mergeR(start, term.Range)
	return ast.NewDataDecl(rng, modifiers, typeToks, packed, decls, term)
}

func (p *Parser) parseContinuousAssign() ast.Node {
	start := p.advance() // 'assign'
	lhs := p.parseScopedName()
	p.expect(token.Assign)
	rhs := p.parseSimpleExpr()
	term := p.expect(token.Semicolon)
	rng := mergeR(start.Range, term.Range)
	return ast.NewNode(ast.KindContinuousAssign, rng, "", []ast.Node{lhs, rhs}, []token.Token{start, term})
}

// parseInstantiationOrAssign disambiguates `identifier identifier (...)`
// (module instantiation) from `identifier = expr;` (a continuous-assign-less
// procedural-looking statement, treated as an opaque expr statement here
// since full statement parsing is out of scope per SPEC_FULL.md §4.B).
func (p *Parser) parseInstantiationOrAssign() ast.Node {
	if p.peekAt(1).Kind == token.Identifier || (p.peekAt(1).Kind == token.Hash) {
		return p.parseModuleInstantiation()
	}
	// Fallback: treat as an opaque expression statement and resynchronize to ';'.
	start := p.cur().Range
	toks := p.parseExprTokens()
	term := p.expect(token.Semicolon)
	end := term.Range
	rng := mergeR(start, end)
	return ast.NewNode(ast.KindExpr, rng, "", nil, append(toks, term))
}

func (p *Parser) parseModuleInstantiation() ast.Node {
	moduleType := p.advance()
	var params []*ast.NamedConnection
	if p.at(token.Hash) {
		p.advance()
		p.expect(token.LParen)
		params = p.parseNamedConnectionList()
		p.expect(token.RParen)
	}

	var instances []*ast.Instance
	for {
		nameTok := p.expect(token.Identifier)
		p.expect(token.LParen)
		ports := p.parseNamedConnectionList()
		close := p.expect(token.RParen)
		rng := mergeR(nameTok.Range, close.Range)
		instances = append(instances, ast.NewInstance(rng, nameTok, ports))
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	term := p.expect(token.Semicolon)
	rng := mergeR(moduleType.Range, term.Range)
	return ast.NewModuleInstantiation(rng, moduleType, params, instances)
}

func (p *Parser) parseNamedConnectionList() []*ast.NamedConnection {
	var out []*ast.NamedConnection
	for !p.at(token.RParen) && !p.atEOF() {
		start := p.expect(token.Dot)
		nameTok := p.expect(token.Identifier)
		var value ast.Node
		if p.at(token.LParen) {
			p.advance()
			if !p.at(token.RParen) {
				value = p.parseScopedNameOrExpr()
			}
			p.expect(token.RParen)
		}
		end := nameTok.Range
		if value != nil {
			end = value.Range()
		}
		rng := mergeR(start.Range, end)
		out = append(out, ast.NewNamedConnection(rng, start, nameTok, value))
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	return out
}

func (p *Parser) parseScopedNameOrExpr() ast.Node {
	if p.cur().Kind == token.Identifier {
		return p.parseScopedName()
	}
	return p.parseSimpleExpr()
}

// parseScopedName parses `a::b.c[i]` style hierarchical/scoped names,
// accumulating segments for the Reference Resolver's left-to-right
// scope-then-name resolution (§4.E).
func (p *Parser) parseScopedName() ast.Node {
	start := p.cur().Range
	var segments []ast.NameSegment
	first := p.expect(token.Identifier)
	segments = append(segments, ast.NameSegment{NameToken: first})

	for {
		if p.at(token.DoubleColon) {
			p.advance()
			nameTok := p.expect(token.Identifier)
			segments = append(segments, ast.NameSegment{NameToken: nameTok, Scoped: true})
			continue
		}
		if p.at(token.Dot) {
			p.advance()
			nameTok := p.expect(token.Identifier)
			segments = append(segments, ast.NameSegment{NameToken: nameTok})
			continue
		}
		if p.at(token.LBracket) {
			idx := p.parseVariableDim()
			segments[len(segments)-1].Index = idx
			continue
		}
		break
	}
	end := segments[len(segments)-1].NameToken.Range
	if idx := segments[len(segments)-1].Index; idx != nil {
		end = idx.Range()
	}
	rng := mergeR(start, end)
	return ast.NewScopedName(rng, segments)
}

func (p *Parser) parseGenerateRegion() ast.Node {
	start := p.advance() // 'generate'
	var items []ast.Node
	for !p.at(token.KwEndgenerate) && !p.atEOF() {
		item := p.parseBodyItem()
		if item != nil {
			items = append(items, item)
		}
	}
	end := p.expect(token.KwEndgenerate)
	rng := mergeR(start.Range, end.Range)
	return ast.NewNode(ast.KindGenerateBlock, rng, "", items, []token.Token{start, end})
}

func (p *Parser) parseGenerateIf() ast.Node {
	start := p.advance() // 'if'
	p.expect(token.LParen)
	cond := p.parseSimpleExpr()
	p.expect(token.RParen)
	thenBlock := p.parseGenerateBody()
	var elseBlock []ast.Node
	if p.at(token.KwElse) {
		p.advance()
		elseBlock = p.parseGenerateBody()
	}
	var children []ast.Node
	children = append(children, cond)
	children = append(children, thenBlock...)
	children = append(children, elseBlock...)
	end := start.Range
	if len(children) > 0 {
		end = children[len(children)-1].Range()
	}
	rng := mergeR(start.Range, end)
	return ast.NewNode(ast.KindGenerateIf, rng, "", children, []token.Token{start})
}

func (p *Parser) parseGenerateFor() ast.Node {
	start := p.advance() // 'for'
	p.expect(token.LParen)
	// init; cond; step — collected as opaque tokens, this front end does not
	// evaluate generate-loop bounds (out of scope: no elaboration/unrolling).
	var headerToks []token.Token
	depth := 0
	for !p.atEOF() {
		if p.at(token.RParen) && depth == 0 {
			break
		}
		if p.at(token.LParen) {
			depth++
		}
		if p.at(token.RParen) {
			depth--
		}
		headerToks = append(headerToks, p.advance())
	}
	p.expect(token.RParen)
	body := p.parseGenerateBody()
	end := start.Range
	if len(body) > 0 {
		end = body[len(body)-1].Range()
	}
	rng := mergeR(start.Range, end)
	return ast.NewNode(ast.KindGenerateFor, rng, "", body, append([]token.Token{start}, headerToks...))
}

func (p *Parser) parseGenerateBody() []ast.Node {
	if p.at(token.KwBegin) {
		p.advance()
		var items []ast.Node
		for !p.at(token.KwEnd) && !p.atEOF() {
			item := p.parseBodyItem()
			if item != nil {
				items = append(items, item)
			}
		}
		p.expect(token.KwEnd)
		return items
	}
	item := p.parseBodyItem()
	if item == nil {
		return nil
	}
	return []ast.Node{item}
}

// parseProceduralBlock parses an always/always_comb/always_ff block as an
// opaque statement scope (§4.B: "procedural blocks treated as opaque
// statement scopes"); its internal statements are not individually parsed,
// only bracketed as a single KindProceduralBlock for scope-opening purposes.
func (p *Parser) parseProceduralBlock() ast.Node {
	start := p.advance() // always*
	if p.at(token.At) {
		p.skipSensitivityList()
	}
	end := start
	if p.at(token.KwBegin) {
		end = p.skipBalancedBeginEnd()
	} else {
		end = p.skipToSemicolon()
	}
	rng := mergeR(start.Range, end.Range)
	return ast.NewNode(ast.KindProceduralBlock, rng, "", nil, []token.Token{start})
}

func (p *Parser) skipSensitivityList() {
	p.expect(token.At)
	if p.at(token.Star) {
		p.advance()
		return
	}
	if p.at(token.LParen) {
		depth := 0
		for !p.atEOF() {
			if p.at(token.LParen) {
				depth++
			}
			if p.at(token.RParen) {
				depth--
				if depth == 0 {
					p.advance()
					return
				}
			}
			p.advance()
		}
	}
}

func (p *Parser) skipBalancedBeginEnd() token.Token {
	depth := 0
	var last token.Token
	for !p.atEOF() {
		if p.at(token.KwBegin) {
			depth++
		}
		if p.at(token.KwEnd) {
			depth--
			last = p.advance()
			if depth == 0 {
				return last
			}
			continue
		}
		last = p.advance()
	}
	return last
}

func (p *Parser) skipToSemicolon() token.Token {
	for !p.atEOF() && !p.at(token.Semicolon) {
		p.advance()
	}
	return p.expect(token.Semicolon)
}

// parseSubroutine parses a function/task declaration as an opaque
// statement-scope body, matching §4.D's "subroutine (function/task) body"
// scope kind without modeling argument/return-type semantics.
func (p *Parser) parseSubroutine(openKind, closeKind token.Kind) ast.Node {
	start := p.advance()
	p.consumeOptionalType()
	nameTok := p.expect(token.Identifier)
	if p.at(token.LParen) {
		depth := 0
		for !p.atEOF() {
			if p.at(token.LParen) {
				depth++
			}
			if p.at(token.RParen) {
				depth--
				p.advance()
				if depth == 0 {
					break
				}
				continue
			}
			p.advance()
		}
	}
	p.expect(token.Semicolon)
	var items []ast.Node
	for !p.at(closeKind) && !p.atEOF() {
		item := p.parseBodyItem()
		if item != nil {
			items = append(items, item)
		}
	}
	end := p.expect(closeKind)
	rng := mergeR(start.Range, end.Range)
	return ast.NewNode(ast.KindSubroutineDecl, rng, nameTok.Text, items, []token.Token{start, nameTok, end})
}
