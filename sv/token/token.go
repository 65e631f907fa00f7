// Package token defines the lexical vocabulary of the SystemVerilog subset
// this repository's front end parses: token kinds, trivia kinds, and the
// Token value type that carries a leading trivia slice.
package token

import "github.com/diplomat-hdl/diplomat/location"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	Invalid Kind = iota
	EOF

	Identifier
	IntLiteral
	StringLiteral
	TimeLiteral

	// Keywords.
	KwModule
	KwEndmodule
	KwPackage
	KwEndpackage
	KwInput
	KwOutput
	KwInout
	KwLogic
	KwWire
	KwReg
	KwBit
	KwInt
	KwParameter
	KwLocalparam
	KwGenerate
	KwEndgenerate
	KwGenvar
	KwFunction
	KwEndfunction
	KwTask
	KwEndtask
	KwBegin
	KwEnd
	KwAssign
	KwAlwaysComb
	KwAlwaysFF
	KwAlways
	KwIf
	KwElse
	KwFor
	KwSigned
	KwUnsigned
	KwStatic
	KwConst
	KwVar
	KwInterface
	KwEndinterface
	KwModport

	// Punctuation and operators.
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Semicolon
	Comma
	Dot
	DoubleColon
	Colon
	Hash
	Dot3 // ...
	Assign
	Equal
	NotEqual
	Plus
	Minus
	Star
	Slash
	Percent
	Amp
	Pipe
	Caret
	Tilde
	Bang
	Lt
	Gt
	Le
	Ge
	Question
	At
	Dollar
	Backtick // macro invocation marker

	Other
)

var kindNames = map[Kind]string{
	Invalid:        "invalid",
	EOF:            "eof",
	Identifier:     "identifier",
	IntLiteral:     "int-literal",
	StringLiteral:  "string-literal",
	TimeLiteral:    "time-literal",
	KwModule:       "module",
	KwEndmodule:    "endmodule",
	KwPackage:      "package",
	KwEndpackage:   "endpackage",
	KwInput:        "input",
	KwOutput:       "output",
	KwInout:        "inout",
	KwLogic:        "logic",
	KwWire:         "wire",
	KwReg:          "reg",
	KwBit:          "bit",
	KwInt:          "int",
	KwParameter:    "parameter",
	KwLocalparam:   "localparam",
	KwGenerate:     "generate",
	KwEndgenerate:  "endgenerate",
	KwGenvar:       "genvar",
	KwFunction:     "function",
	KwEndfunction:  "endfunction",
	KwTask:         "task",
	KwEndtask:      "endtask",
	KwBegin:        "begin",
	KwEnd:          "end",
	KwAssign:       "assign",
	KwAlwaysComb:   "always_comb",
	KwAlwaysFF:     "always_ff",
	KwAlways:       "always",
	KwIf:           "if",
	KwElse:         "else",
	KwFor:          "for",
	KwSigned:       "signed",
	KwUnsigned:     "unsigned",
	KwStatic:       "static",
	KwConst:        "const",
	KwVar:          "var",
	KwInterface:    "interface",
	KwEndinterface: "endinterface",
	KwModport:      "modport",
}

// String renders the kind for diagnostics and tests.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "other"
}

// Keywords maps reserved words to their Kind. Identifiers not present here
// lex as Identifier.
var Keywords = map[string]Kind{
	"module":      KwModule,
	"endmodule":   KwEndmodule,
	"package":     KwPackage,
	"endpackage":  KwEndpackage,
	"input":       KwInput,
	"output":      KwOutput,
	"inout":       KwInout,
	"logic":       KwLogic,
	"wire":        KwWire,
	"reg":         KwReg,
	"bit":         KwBit,
	"int":         KwInt,
	"parameter":   KwParameter,
	"localparam":  KwLocalparam,
	"generate":    KwGenerate,
	"endgenerate": KwEndgenerate,
	"genvar":      KwGenvar,
	"function":    KwFunction,
	"endfunction": KwEndfunction,
	"task":        KwTask,
	"endtask":     KwEndtask,
	"begin":       KwBegin,
	"end":         KwEnd,
	"assign":      KwAssign,
	"always_comb": KwAlwaysComb,
	"always_ff":   KwAlwaysFF,
	"always":      KwAlways,
	"if":          KwIf,
	"else":        KwElse,
	"for":         KwFor,
	"signed":      KwSigned,
	"unsigned":    KwUnsigned,
	"static":      KwStatic,
	"const":       KwConst,
	"var":         KwVar,
	"interface":   KwInterface,
	"endinterface": KwEndinterface,
	"modport":     KwModport,
}

// TriviaKind distinguishes the trivia a Token carries ahead of its own text.
type TriviaKind int

const (
	Whitespace TriviaKind = iota
	Newline
	LineComment
	BlockComment
	MacroInvocation
)

// Trivia is a single piece of non-semantic text attached to a Token.
type Trivia struct {
	Kind TriviaKind
	Text string
}

// Token is one lexical unit: a kind, its exact source text, the Range it
// occupies, and the trivia immediately preceding it (never discarded).
//
// Token is a value type. Rewriting a token's spacing (see package spacing)
// produces a new Token value with a different Leading slice; Text and Kind
// are never altered by a rewrite.
type Token struct {
	Kind    Kind
	Text    string
	Range   location.Range
	Leading []Trivia
}

// IsKeyword reports whether the token's text matches a reserved word.
func (t Token) IsKeyword() bool {
	_, ok := Keywords[t.Text]
	return ok && t.Kind != Identifier
}

// HasNewline reports whether any leading trivium is a Newline, the signal
// the Spacing Engine and Alignment Formatter use to detect block boundaries.
func (t Token) HasNewline() bool {
	for _, tr := range t.Leading {
		if tr.Kind == Newline {
			return true
		}
	}
	return false
}

// NewlineCount returns how many Newline trivia prefix the token, used to
// detect the "two or more consecutive end-of-line trivia" block-split rule.
func (t Token) NewlineCount() int {
	n := 0
	for _, tr := range t.Leading {
		if tr.Kind == Newline {
			n++
		}
	}
	return n
}

// WithLeading returns a copy of t with its leading trivia replaced. This is
// the primitive every Spacing Engine operation builds on; it never mutates
// the receiver, matching the arena-allocated, single-owner rewrite model
// (§"Formatter model" / "Arena-backed CST rewriting").
func (t Token) WithLeading(trivia []Trivia) Token {
	t.Leading = trivia
	return t
}

// RawText returns the token's own text, excluding any trivia, matching the
// original implementation's "raw text" helper used to size columns.
func (t Token) RawText() string {
	return t.Text
}
