package spacing

import (
	"github.com/diplomat-hdl/diplomat/sv/ast"
	"github.com/diplomat-hdl/diplomat/sv/token"
)

// DimSize is the rendered width of a dimension's high/low (or single-index)
// expression, as measured by a prior pass over the declarations being
// aligned together.
type DimSize struct {
	High int
	Low  int
}

// AlignDimension right-aligns the first bracket of dims to firstAlignment
// columns, then pads each dimension's high/low expression to the
// corresponding entry in sizes so that a column of `[N:0]`-style
// declarators lines up across declarations.
//
// Returns a residual budget: when dims has fewer entries than sizes (this
// declarator has fewer packed dimensions than its widest sibling), the
// caller must reserve 1+3*missing columns (for the missing "[:]" brackets)
// plus the summed half-widths of the dimensions that were never consumed,
// so the next alignment group still lines up. Grounded on
// SpacingManager::align_dimension's `remaining_len` accumulation.
func (e *Engine) AlignDimension(dims []*ast.VariableDim, sizes []DimSize, firstAlignment int) ([]*ast.VariableDim, int) {
	if len(dims) == 0 {
		return dims, firstAlignment - 1 + budgetFor(sizes, 0)
	}

	out := make([]*ast.VariableDim, len(dims))
	for i, dim := range dims {
		var openBracket token.Token
		if i == 0 {
			openBracket = e.TokenAlignRight(dim.OpenBracket, firstAlignment+1, false)
		} else {
			openBracket = e.RemoveSpacing(dim.OpenBracket)
		}

		if i >= len(sizes) {
			out[i] = ast.NewVariableDim(dim.Range(), openBracket, dim.High, dim.Colon, dim.Low, dim.CloseBracket)
			continue
		}
		size := sizes[i]

		if dim.IsRange() {
			high := alignFirstToken(e, dim.High, size.High)
			low := alignFirstToken(e, dim.Low, size.Low)
			colon := dim.Colon
			closeBracket := e.RemoveSpacing(dim.CloseBracket)
			out[i] = ast.NewVariableDim(dim.Range(), openBracket, high, colon, low, closeBracket)
		} else {
			// Single-index select: pad the whole expression to the sum of
			// both half-widths plus the separator column a range would
			// have used, so single- and range-select columns still align.
			width := 1 + size.High + size.Low
			expr := alignFirstToken(e, dim.High, width)
			closeBracket := e.RemoveSpacing(dim.CloseBracket)
			out[i] = ast.NewVariableDim(dim.Range(), openBracket, expr, nil, nil, closeBracket)
		}
	}

	residual := 0
	if len(dims) < len(sizes) {
		residual = budgetFor(sizes, len(dims))
	}
	return out, residual
}

// alignFirstToken pads toks' leading token so the whole run renders at
// width columns, leaving every later token's own spacing untouched — the
// remaining tokens of a multi-token dimension expression keep whatever
// spacing they already carry.
func alignFirstToken(e *Engine, toks []token.Token, width int) []token.Token {
	if len(toks) == 0 {
		return toks
	}
	out := make([]token.Token, len(toks))
	copy(out, toks)
	tail := TokenRunWidth(out[1:])
	target := width - tail
	if target < len(out[0].RawText()) {
		target = len(out[0].RawText())
	}
	out[0] = e.TokenAlignRight(out[0], target, true)
	return out
}

// TokenRunWidth estimates the rendered width of a token run, collapsing any
// existing leading whitespace to a single column — the same normalization
// original_source's raw_text_from_syntax performs for alignment math. Exported
// so the Alignment Formatter can measure a dimension's half-width the same
// way before calling AlignDimension.
func TokenRunWidth(toks []token.Token) int {
	width := 0
	for i, t := range toks {
		if i > 0 && hasWhitespace(t) {
			width++
		}
		width += len(t.RawText())
	}
	return width
}

func hasWhitespace(t token.Token) bool {
	for _, tr := range t.Leading {
		if tr.Kind == token.Whitespace {
			return true
		}
	}
	return false
}

// budgetFor sums 1+3*missing (for the "[:]" punctuation the missing
// dimensions would have contributed) plus the half-widths of every entry in
// sizes from startIndex onward.
func budgetFor(sizes []DimSize, startIndex int) int {
	missing := len(sizes) - startIndex
	if missing <= 0 {
		return 0
	}
	total := 1 + 3*missing
	for _, s := range sizes[startIndex:] {
		total += s.High + s.Low
	}
	return total
}
