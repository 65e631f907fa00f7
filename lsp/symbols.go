package lsp

import (
	"sort"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/diplomat-hdl/diplomat/index"
	"github.com/diplomat-hdl/diplomat/location"
)

// textDocumentDocumentSymbol handles textDocument/documentSymbol by walking
// the Index's scope tree: every top-level scope whose declaration Range
// belongs to this file becomes a module-kind DocumentSymbol, its own
// children (ports, parameters, signals, nested instances and generate
// blocks) nested beneath it.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) ([]protocol.DocumentSymbol, error) {
	doc := s.workspace.GetDocumentSnapshot(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}

	core := s.workspace.Core()
	content := []byte(doc.Text)
	enc := s.workspace.PositionEncoding()

	var out []protocol.DocumentSymbol
	for _, child := range core.ScopeChildren(core.Root()) {
		if sym, ok := s.scopeDocumentSymbol(core, child, doc.SourceID, content, enc, true); ok {
			out = append(out, sym)
		}
	}
	return out, nil
}

// scopeDocumentSymbol builds a DocumentSymbol for scope if its declaration
// Range belongs to source, recursing into its nested scopes and listing its
// directly declared symbols as leaf children. topLevel controls whether the
// scope is reported as a module (true) or a nested construct (false, e.g. a
// generate block or instance body).
func (s *Server) scopeDocumentSymbol(core *index.Core, scope index.ScopeRef, source location.SourceID, content []byte, enc PositionEncoding, topLevel bool) (protocol.DocumentSymbol, bool) {
	info, ok := core.Scope(scope)
	if !ok || info.Source.IsZero() || info.Source.Source != source {
		return protocol.DocumentSymbol{}, false
	}

	rng, ok := RangeToLSP(content, info.Source, enc)
	if !ok {
		return protocol.DocumentSymbol{}, false
	}

	kind := protocol.SymbolKindNamespace
	if topLevel {
		kind = protocol.SymbolKindModule
	}

	var children []protocol.DocumentSymbol
	for _, sym := range core.ScopeSymbols(scope) {
		if leaf, ok := s.symbolDocumentSymbol(core, sym, source, content, enc); ok {
			children = append(children, leaf)
		}
	}
	for _, nested := range core.ScopeChildren(scope) {
		if child, ok := s.scopeDocumentSymbol(core, nested, source, content, enc, false); ok {
			children = append(children, child)
		}
	}
	sort.SliceStable(children, func(i, j int) bool {
		return location.CompareRanges(rangeOf(children[i]), rangeOf(children[j])) < 0
	})

	return protocol.DocumentSymbol{
		Name:           info.Name,
		Kind:           kind,
		Range:          rng,
		SelectionRange: rng,
		Children:       children,
	}, true
}

// symbolDocumentSymbol builds a leaf DocumentSymbol for a single declared
// symbol (a port, parameter, or signal), provided it has a declaration site
// in source.
func (s *Server) symbolDocumentSymbol(core *index.Core, sym index.SymbolRef, source location.SourceID, content []byte, enc PositionEncoding) (protocol.DocumentSymbol, bool) {
	info, ok := core.Symbol(sym)
	if !ok || !info.HasSource || info.Source.Source != source {
		return protocol.DocumentSymbol{}, false
	}
	rng, ok := RangeToLSP(content, info.Source, enc)
	if !ok {
		return protocol.DocumentSymbol{}, false
	}
	return protocol.DocumentSymbol{
		Name:           info.Name,
		Kind:           protocol.SymbolKindVariable,
		Range:          rng,
		SelectionRange: rng,
	}, true
}

// rangeOf recovers a DocumentSymbol's Range for sort ordering. LSP positions
// don't carry byte offsets, but line/character order alone is sufficient
// for a stable sort within one document.
func rangeOf(sym protocol.DocumentSymbol) location.Range {
	return location.Range{
		Start: location.Position{Line: int(sym.Range.Start.Line), Column: int(sym.Range.Start.Character)},
		End:   location.Position{Line: int(sym.Range.End.Line), Column: int(sym.Range.End.Character)},
	}
}
