package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestTextDocumentDocumentSymbol_TopLevelModule(t *testing.T) {
	t.Parallel()

	srv := NewServer(testLogger(), Config{})
	uri := PathToURI("/tmp/top.sv")
	require.NoError(t, srv.textDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Text: "module top;\n  logic clk;\n  logic [7:0] data;\nendmodule\n"},
	}))

	syms, err := srv.textDocumentDocumentSymbol(nil, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	require.Len(t, syms, 1)

	top := syms[0]
	assert.Equal(t, "top", top.Name)
	assert.Equal(t, protocol.SymbolKindModule, top.Kind)

	var names []string
	for _, c := range top.Children {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "clk")
	assert.Contains(t, names, "data")
}

func TestTextDocumentDocumentSymbol_NoDocument(t *testing.T) {
	t.Parallel()

	srv := NewServer(testLogger(), Config{})
	syms, err := srv.textDocumentDocumentSymbol(nil, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: PathToURI("/tmp/missing.sv")},
	})
	require.NoError(t, err)
	assert.Nil(t, syms)
}

func TestTextDocumentDocumentSymbol_NestedGenerateScope(t *testing.T) {
	t.Parallel()

	srv := NewServer(testLogger(), Config{})
	uri := PathToURI("/tmp/top.sv")
	require.NoError(t, srv.textDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Text: "module top;\n  if (1) begin\n    logic gated;\n  end\nendmodule\n"},
	}))

	syms, err := srv.textDocumentDocumentSymbol(nil, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	require.Len(t, syms, 1)
	require.Len(t, syms[0].Children, 1)
	assert.Equal(t, protocol.SymbolKindNamespace, syms[0].Children[0].Kind)
}
