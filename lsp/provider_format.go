package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/diplomat-hdl/diplomat/align"
	"github.com/diplomat-hdl/diplomat/diag"
	"github.com/diplomat-hdl/diplomat/sv/parse"
)

// textDocumentFormatting handles textDocument/formatting requests. Formatting
// is column-aligned, not canonical: declarations keep their own layout except
// for the whitespace align.Format rewrites, per §4.G. A file with parse
// errors is never reformatted — rewriting trivia around a tree the parser
// gave up on risks corrupting text the author hasn't finished typing.
func (s *Server) textDocumentFormatting(_ *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	uri := params.TextDocument.URI

	doc := s.workspace.GetDocumentSnapshot(uri)
	if doc == nil {
		return nil, nil
	}

	collector := diag.NewCollectorUnlimited()
	p := parse.New(doc.SourceID, doc.Text, collector)
	root := p.ParseFile()
	if root == nil || hasParseErrors(collector.Result()) {
		s.logger.Debug("formatting skipped due to parse errors", "uri", uri)
		return []protocol.TextEdit{}, nil
	}

	opts := align.Options{
		SpacePerLevel: int(params.Options.TabSize),
		UseTabs:       !params.Options.InsertSpaces,
	}

	orig := align.CollectLeadingLengths(*root)
	formatted := align.Format(*root, opts)
	newText := align.Render(doc.Text, orig, formatted)

	if newText == doc.Text {
		return []protocol.TextEdit{}, nil
	}

	content := []byte(doc.Text)
	lines := strings.Split(doc.Text, "\n")
	lastLine := len(lines) - 1
	lastLineStart, _ := lineStartByte(content, lastLine+1)
	lastChar := ByteToUTF16Offset(content, lastLineStart, len(content))
	if s.workspace.PositionEncoding() == PositionEncodingUTF8 {
		lastChar = len(content) - lastLineStart
	}

	return []protocol.TextEdit{
		{
			Range: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End: protocol.Position{
					Line:      toUInteger(lastLine),
					Character: toUInteger(lastChar),
				},
			},
			NewText: newText,
		},
	}, nil
}

// hasParseErrors reports whether result carries any Error-or-worse issue
// from the lexer/parser. Resolution errors (unresolved references, etc.) do
// not block formatting — only a tree the parser itself gave up on does.
func hasParseErrors(result diag.Result) bool {
	for issue := range result.Issues() {
		if issue.Code().Category() == diag.CategoryParse &&
			issue.Severity().IsAtLeastAsSevereAs(diag.Error) {
			return true
		}
	}
	return false
}
