package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/diplomat-hdl/diplomat/index"
	"github.com/diplomat-hdl/diplomat/location"
)

// textDocumentDefinition handles textDocument/definition requests: position
// → lookup_symbol_at → the symbol's source Range → Location.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	sym, doc, ok := s.symbolAtPosition(params.TextDocument.URI, params.Position)
	if !ok {
		return nil, nil
	}
	loc := s.symbolToLocation(sym, doc)
	if loc == nil {
		return nil, nil
	}
	return loc, nil
}

// symbolAtPosition resolves an LSP text position to the symbol declared or
// referenced there, via Core.LookupSymbolAt (§4.D/§4.E). Returns ok=false
// when the document isn't tracked, the position doesn't parse, or nothing
// resolves there.
func (s *Server) symbolAtPosition(uri string, pos protocol.Position) (index.SymbolInfo, *Document, bool) {
	doc := s.workspace.GetDocumentSnapshot(uri)
	if doc == nil {
		return index.SymbolInfo{}, nil, false
	}

	core := s.workspace.Core()
	path, err := URIToPath(uri)
	if err != nil {
		return index.SymbolInfo{}, nil, false
	}
	fileRef, err := core.GetOrCreateFile(path)
	if err != nil {
		return index.SymbolInfo{}, nil, false
	}

	content := []byte(doc.Text)
	internalPos, ok := PositionFromLSP(content, int(pos.Line), int(pos.Character), s.workspace.PositionEncoding())
	if !ok {
		return index.SymbolInfo{}, nil, false
	}

	symRef, ok := core.LookupSymbolAt(fileRef, internalPos)
	if !ok {
		return index.SymbolInfo{}, nil, false
	}
	info, ok := core.Symbol(symRef)
	if !ok {
		return index.SymbolInfo{}, nil, false
	}
	return info, doc, true
}

// symbolToLocation converts a symbol's declaration Range to an LSP Location.
// fromDoc supplies fallback content for computing the UTF-16 range when the
// declaring file isn't the one the request came from (e.g. a cross-file
// module-type reference): in that case the declaring file's own tracked
// content, if any, is used instead.
func (s *Server) symbolToLocation(sym index.SymbolInfo, fromDoc *Document) *protocol.Location {
	if !sym.HasSource {
		return nil
	}
	content := s.contentForSource(sym.Source.Source, fromDoc)
	if content == nil {
		return nil
	}
	rng, ok := RangeToLSP(content, sym.Source, s.workspace.PositionEncoding())
	if !ok {
		return nil
	}
	return &protocol.Location{
		URI:   s.uriForSource(sym.Source.Source, fromDoc),
		Range: rng,
	}
}

// contentForSource returns the raw text backing source, preferring an open
// document's live buffer over whatever Rebuild last read from disk.
func (s *Server) contentForSource(source location.SourceID, fromDoc *Document) []byte {
	if fromDoc != nil && fromDoc.SourceID == source {
		return []byte(fromDoc.Text)
	}
	if _, content, ok := s.workspace.Diagnostics(source); ok {
		return content
	}
	return nil
}

// uriForSource recovers the URI a source's content was read under.
func (s *Server) uriForSource(source location.SourceID, fromDoc *Document) string {
	if fromDoc != nil && fromDoc.SourceID == source {
		return fromDoc.URI
	}
	for uri := range s.workspace.AllDiagnostics() {
		if doc := s.workspace.GetDocumentSnapshot(uri); doc != nil && doc.SourceID == source {
			return uri
		}
	}
	if cp, ok := source.CanonicalPath(); ok {
		return PathToURI(cp.String())
	}
	return ""
}
