package lsp

import (
	"github.com/diplomat-hdl/diplomat/diag"
	"github.com/diplomat-hdl/diplomat/location"
)

// docProvider implements diag.SourceProvider and diag.LineIndexProvider over
// a Workspace's most recent Rebuild snapshot, so a diag.Renderer can convert
// Issues into LSP diagnostics without a registry of its own — every file's
// content is already held by the snapshot that produced its diagnostics.
type docProvider struct {
	ws *Workspace
}

func newDocProvider(ws *Workspace) *docProvider {
	return &docProvider{ws: ws}
}

// Content implements diag.SourceProvider.
func (p *docProvider) Content(rng location.Range) ([]byte, bool) {
	_, content, ok := p.ws.Diagnostics(rng.Source)
	if !ok || content == nil {
		return nil, false
	}
	return content, true
}

// LineStartByte implements diag.LineIndexProvider.
func (p *docProvider) LineStartByte(source location.SourceID, line int) (int, bool) {
	_, content, ok := p.ws.Diagnostics(source)
	if !ok || content == nil {
		return 0, false
	}
	return lineStartByte(content, line)
}

// newRenderer builds a diag.Renderer wired to ws's current document content,
// suitable for converting a Result's Issues into protocol diagnostics.
func newRenderer(ws *Workspace) *diag.Renderer {
	return diag.NewRenderer(
		diag.WithSourceProvider(newDocProvider(ws)),
		diag.WithLSPByteFallback(diag.LSPByteFallbackApproximate),
	)
}
