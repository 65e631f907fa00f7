package align

import (
	"sort"
	"strings"

	"github.com/diplomat-hdl/diplomat/location"
	"github.com/diplomat-hdl/diplomat/sv/ast"
	"github.com/diplomat-hdl/diplomat/sv/token"
)

// This front end's parser keeps enough of each declaration to align it (see
// collectTokens below) but discards the punctuation between sibling
// declarations entirely — commas in an ansi port list, the `#( ... )` and
// `( ... )` of a module instantiation, the `;` after a port list — those
// tokens are consumed by the parser's advance() calls and never attached to
// any node. A formatter that only ever reprints captured tokens would
// silently drop that punctuation.
//
// Render works around this by never reprinting from the tree alone: it
// splices each token's (possibly rewritten) leading trivia back into the
// ORIGINAL source at that token's own byte range, leaving every byte the
// formatting pass never touched — including the punctuation no node
// holds — exactly as it was. LeadingLengths records, for every kept token,
// how many bytes of original leading trivia preceded it, so Render can tell
// where a token's own trivia ends and an untouched predecessor's text
// (a comma, a paren, a semicolon) begins.

// LeadingLengths maps a token's Range.Start.Byte to the total byte length of
// the leading trivia the lexer originally attached to it. Callers build this
// once from the freshly parsed tree, before Format rewrites any trivia.
type LeadingLengths map[int]int

// CollectLeadingLengths walks root (as parsed, before any Format call) and
// records every reachable token's original leading-trivia length.
func CollectLeadingLengths(root ast.Node) LeadingLengths {
	lengths := make(LeadingLengths)
	for _, t := range collectTokens(root) {
		lengths[t.Range.Start.Byte] = leadingByteLen(t)
	}
	return lengths
}

func leadingByteLen(t token.Token) int {
	n := 0
	for _, tr := range t.Leading {
		n += len(tr.Text)
	}
	return n
}

// Render reassembles the full document text from source (the text root was
// parsed from) and root (root itself, or a Format-rewritten copy of it).
// Every byte source wasn't asked to change — including tokens this engine
// never reaches and punctuation no node captures — is copied through
// unmodified; only each rewritten token's own leading trivia differs from
// what source already had at that position.
func Render(source string, orig LeadingLengths, root ast.Node) string {
	toks := collectTokens(root)
	sort.SliceStable(toks, func(i, j int) bool {
		return location.CompareRanges(toks[i].Range, toks[j].Range) < 0
	})

	var b strings.Builder
	cursor := 0
	for _, t := range toks {
		start := t.Range.Start.Byte
		end := t.Range.End.Byte + 1
		if start < cursor || start > len(source) || end > len(source) {
			continue
		}

		gapEnd := start - orig[start]
		if gapEnd < cursor {
			gapEnd = cursor
		}
		b.WriteString(source[cursor:gapEnd])

		for _, tr := range t.Leading {
			b.WriteString(tr.Text)
		}
		b.WriteString(t.Text)
		cursor = end
	}
	if cursor < len(source) {
		b.WriteString(source[cursor:])
	}
	return b.String()
}

func collectTokens(n ast.Node) []token.Token {
	if n == nil {
		return nil
	}

	var out []token.Token
	switch v := n.(type) {
	case *ast.VariableDim:
		out = append(out, v.OpenBracket)
		out = append(out, v.High...)
		if v.Colon != nil {
			out = append(out, *v.Colon)
		}
		out = append(out, v.Low...)
		out = append(out, v.CloseBracket)
		return out
	case *ast.DataDecl:
		out = append(out, n.Tokens()...)
		for _, c := range n.Children() {
			out = append(out, collectTokens(c)...)
		}
		out = append(out, v.Terminator)
		return out
	case *ast.ScopedName:
		out = append(out, n.Tokens()...)
		for _, seg := range v.Segments {
			out = append(out, collectTokens(seg.Index)...)
		}
		return out
	}

	out = append(out, n.Tokens()...)
	for _, c := range n.Children() {
		out = append(out, collectTokens(c)...)
	}
	return out
}
