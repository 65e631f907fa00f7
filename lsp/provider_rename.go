package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentRename handles textDocument/rename: position → symbol → one
// TextEdit per recorded reference, each replacing exactly the old name's
// span with newName. Edits are grouped by the URI their Range belongs to,
// since a symbol's references may span multiple files.
func (s *Server) textDocumentRename(_ *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	sym, doc, ok := s.symbolAtPosition(params.TextDocument.URI, params.Position)
	if !ok {
		return nil, nil
	}

	changes := make(map[protocol.DocumentUri][]protocol.TextEdit)
	for _, rng := range sym.References {
		content := s.contentForSource(rng.Source, doc)
		if content == nil {
			continue
		}
		lspRange, ok := RangeToLSP(content, rng, s.workspace.PositionEncoding())
		if !ok {
			continue
		}
		uri := protocol.DocumentUri(s.uriForSource(rng.Source, doc))
		changes[uri] = append(changes[uri], protocol.TextEdit{
			Range:   lspRange,
			NewText: params.NewName,
		})
	}
	if len(changes) == 0 {
		return nil, nil
	}

	return &protocol.WorkspaceEdit{Changes: changes}, nil
}
