// Package align implements the Alignment Formatter: a two-pass CST rewriter
// that produces column-aligned output for runs of variable, port, and
// instance declarations, using the Spacing Engine to rewrite trivia only.
//
// Grounded on original_source/formatter/format_DataDeclaration.{hpp,cpp}'s
// DataDeclarationSyntaxVisitor: its accumulator fields become Sizes, its
// Pass-1 handle()/_store_format() become Measure, and its Pass-2 _format()
// methods become Emit.
package align

import (
	"github.com/diplomat-hdl/diplomat/spacing"
	"github.com/diplomat-hdl/diplomat/sv/ast"
	"github.com/diplomat-hdl/diplomat/sv/token"
)

// Sizes is the set of column widths measured across one block of adjacent
// declarations, mirroring DataDeclarationSyntaxVisitor's
// _modifier_sizes/_type_sizes/_type_name_size/_var_name_size/_array_sizes.
type Sizes struct {
	ModifierSizes []int
	TypeNameSize  int
	TypeSizes     []spacing.DimSize
	VarNameSize   int
	ArraySizes    []spacing.DimSize
}

// Measure runs Pass 1 over a block of declaration-like members, accumulating
// the column widths Emit needs to align them. Members of different shapes
// (DataDecl vs ansi port) share one Sizes accumulator the same way the
// original visitor shares _modifier_sizes/_type_sizes across both node kinds.
func Measure(members []member) Sizes {
	var s Sizes
	for _, m := range members {
		growInts(&s.ModifierSizes, tokenLengths(m.Modifiers()))
		s.TypeNameSize = max(s.TypeNameSize, typeNameLen(m.TypeTokens()))
		growDims(&s.TypeSizes, m.PackedDims())
		s.VarNameSize = max(s.VarNameSize, len(m.DeclName().RawText()))
		growDims(&s.ArraySizes, m.UnpackedDims())
	}
	return s
}

func tokenLengths(toks []token.Token) []int {
	out := make([]int, len(toks))
	for i, t := range toks {
		out[i] = len(t.RawText())
	}
	return out
}

func growInts(dst *[]int, lens []int) {
	if len(lens) > len(*dst) {
		grown := make([]int, len(lens))
		copy(grown, *dst)
		*dst = grown
	}
	for i, l := range lens {
		if l > (*dst)[i] {
			(*dst)[i] = l
		}
	}
}

// typeNameLen mirrors type_length: keyword length, plus signing length + 1
// for the separating space when a signing token is present.
func typeNameLen(typeToks []token.Token) int {
	if len(typeToks) == 0 {
		return 0
	}
	n := len(typeToks[0].RawText())
	for _, t := range typeToks[1:] {
		n += 1 + len(t.RawText())
	}
	return n
}

func growDims(dst *[]spacing.DimSize, dims []*ast.VariableDim) {
	if len(dims) > len(*dst) {
		grown := make([]spacing.DimSize, len(dims))
		copy(grown, *dst)
		*dst = grown
	}
	for i, d := range dims {
		hi, lo := dimHalfWidths(d)
		if hi > (*dst)[i].High {
			(*dst)[i].High = hi
		}
		if lo > (*dst)[i].Low {
			(*dst)[i].Low = lo
		}
	}
}

// dimHalfWidths measures a dimension's high/low half-widths. A single-index
// select (`[i]`) contributes half its width, rounded down, to each half
// (an odd width loses one column), after dimension_syntax_to_vector's
// BitSelect case.
func dimHalfWidths(d *ast.VariableDim) (hi, lo int) {
	if d.IsRange() {
		return spacing.TokenRunWidth(d.High), spacing.TokenRunWidth(d.Low)
	}
	w := spacing.TokenRunWidth(d.High)
	return w / 2, w / 2
}
