package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentReferences handles textDocument/references: position →
// lookup_symbol_at → every recorded Range referring to that symbol, each
// converted to a Location. IncludeDeclaration follows the request's Context:
// when false, the Range equal to the symbol's declaration site is left out.
func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	sym, doc, ok := s.symbolAtPosition(params.TextDocument.URI, params.Position)
	if !ok {
		return nil, nil
	}

	locations := make([]protocol.Location, 0, len(sym.References))
	for _, rng := range sym.References {
		if !params.Context.IncludeDeclaration && sym.HasSource && rng == sym.Source {
			continue
		}
		content := s.contentForSource(rng.Source, doc)
		if content == nil {
			continue
		}
		lspRange, ok := RangeToLSP(content, rng, s.workspace.PositionEncoding())
		if !ok {
			continue
		}
		locations = append(locations, protocol.Location{
			URI:   s.uriForSource(rng.Source, doc),
			Range: lspRange,
		})
	}
	return locations, nil
}
