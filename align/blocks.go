package align

import "github.com/diplomat-hdl/diplomat/sv/ast"

// SplitBlocks groups a sequence of sibling nodes (a module body, an ansi port
// list) into runs the Alignment Formatter aligns together. A run ends before
// a node when that node's first token has two or more newlines in its
// leading trivia, or when its Kind differs from the run's — mirroring
// _switch_bloc_type's "force or kind change flushes pending formats" rule.
// Nodes this engine does not align (AsMember returns false) are returned as
// their own singleton, unaligned block.
func SplitBlocks(nodes []ast.Node) [][]ast.Node {
	var blocks [][]ast.Node
	var current []ast.Node
	var currentKind ast.Kind

	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, current)
			current = nil
		}
	}

	for _, n := range nodes {
		_, alignable := AsMember(n)
		if !alignable {
			flush()
			blocks = append(blocks, []ast.Node{n})
			continue
		}
		if len(current) > 0 && (blankLineBefore(n) || n.Kind() != currentKind) {
			flush()
		}
		if len(current) == 0 {
			currentKind = n.Kind()
		}
		current = append(current, n)
	}
	flush()
	return blocks
}

// blankLineBefore reports whether n's leading trivia contains two or more
// newline trivia, i.e. at least one fully blank line precedes it.
func blankLineBefore(n ast.Node) bool {
	toks := n.Tokens()
	if len(toks) == 0 {
		return false
	}
	return toks[0].NewlineCount() >= 2
}
