// Package testutil provides integration testing utilities for the language server.
package testutil

import (
	"net/url"
	"path/filepath"
	"runtime"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// PathToURI converts a filesystem path to a file:// URI.
// This is a local copy to avoid import cycles with the lsp package.
// It matches the behavior of lsp.PathToURI including Windows support.
// Exported for equivalence testing with lsp.PathToURI.
func PathToURI(path string) string {
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err == nil {
			path = absPath
		}
	}

	uriPath := filepath.ToSlash(path)

	if runtime.GOOS == "windows" && len(uriPath) >= 2 && uriPath[1] == ':' && isWindowsDriveLetter(uriPath[0]) {
		uriPath = "/" + uriPath
	}

	u := url.URL{
		Scheme: "file",
		Path:   uriPath,
	}
	return u.String()
}

// isWindowsDriveLetter reports whether c is a valid Windows drive letter (A-Z or a-z).
func isWindowsDriveLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// Harness provides an in-process LSP server for integration testing.
// It sets up a full LSP server connected to an in-memory client transport.
type Harness struct {
	t       *testing.T
	handler *protocol.Handler

	// Root path for the test workspace
	Root string
}

// NewHarness creates a new test harness with the given handler.
func NewHarness(t *testing.T, handler *protocol.Handler, root string) *Harness {
	t.Helper()

	return &Harness{
		t:       t,
		handler: handler,
		Root:    root,
	}
}

// Initialize performs LSP initialization handshake with a single root.
func (h *Harness) Initialize() error {
	return h.InitializeWithFolders(nil)
}

// InitializeWithFolders performs LSP initialization handshake with multiple workspace folders.
// If folders is nil or empty, uses h.Root as the single workspace folder.
func (h *Harness) InitializeWithFolders(folders []string) error {
	h.t.Helper()

	if len(folders) == 0 {
		folders = []string{h.Root}
	}

	rootURI := PathToURI(folders[0])

	workspaceFolders := make([]protocol.WorkspaceFolder, len(folders))
	for i, folder := range folders {
		uri := PathToURI(folder)
		workspaceFolders[i] = protocol.WorkspaceFolder{
			URI:  uri,
			Name: filepath.Base(folder),
		}
	}

	params := &protocol.InitializeParams{
		RootURI:          &rootURI,
		WorkspaceFolders: workspaceFolders,
		Capabilities: protocol.ClientCapabilities{
			TextDocument: &protocol.TextDocumentClientCapabilities{
				Synchronization: &protocol.TextDocumentSyncClientCapabilities{},
				Definition:      &protocol.DefinitionClientCapabilities{},
				References:      &protocol.ReferencesClientCapabilities{},
				Rename:          &protocol.RenameClientCapabilities{},
				DocumentSymbol:  &protocol.DocumentSymbolClientCapabilities{},
				Formatting:      &protocol.DocumentFormattingClientCapabilities{},
			},
		},
	}

	_, err := h.handler.Initialize(nil, params)
	if err != nil {
		return err //nolint:wrapcheck // test utility
	}

	return h.handler.Initialized(nil, &protocol.InitializedParams{}) //nolint:wrapcheck // test utility
}

func (h *Harness) resolveURI(path string) string {
	absPath := path
	if !filepath.IsAbs(path) {
		absPath = filepath.Join(h.Root, path)
	}
	return PathToURI(absPath)
}

// OpenDocument opens a source document with the given content.
func (h *Harness) OpenDocument(path, content string) error {
	h.t.Helper()

	return h.handler.TextDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{ //nolint:wrapcheck // test utility
		TextDocument: protocol.TextDocumentItem{
			URI:        h.resolveURI(path),
			LanguageID: "systemverilog",
			Version:    1,
			Text:       content,
		},
	})
}

// ChangeDocument sends a document change notification.
func (h *Harness) ChangeDocument(path, content string, version int) error {
	h.t.Helper()

	return h.handler.TextDocumentDidChange(nil, &protocol.DidChangeTextDocumentParams{ //nolint:wrapcheck // test utility
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{
				URI: h.resolveURI(path),
			},
			Version: protocol.Integer(version), //nolint:gosec // test utility, version is always small
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{
				Text: content,
			},
		},
	})
}

// CloseDocument closes a document.
func (h *Harness) CloseDocument(path string) error {
	h.t.Helper()

	return h.handler.TextDocumentDidClose(nil, &protocol.DidCloseTextDocumentParams{ //nolint:wrapcheck // test utility
		TextDocument: protocol.TextDocumentIdentifier{URI: h.resolveURI(path)},
	})
}

// Definition requests go-to-definition at the given position.
func (h *Harness) Definition(path string, line, char int) (any, error) {
	h.t.Helper()

	return h.handler.TextDocumentDefinition(nil, &protocol.DefinitionParams{ //nolint:wrapcheck // test utility
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: h.resolveURI(path)},
			Position: protocol.Position{
				Line:      protocol.UInteger(line), //nolint:gosec // test utility, line is always small
				Character: protocol.UInteger(char), //nolint:gosec // test utility, char is always small
			},
		},
	})
}

// References requests reference locations at the given position.
func (h *Harness) References(path string, line, char int, includeDeclaration bool) (any, error) {
	h.t.Helper()

	return h.handler.TextDocumentReferences(nil, &protocol.ReferenceParams{ //nolint:wrapcheck // test utility
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: h.resolveURI(path)},
			Position: protocol.Position{
				Line:      protocol.UInteger(line), //nolint:gosec // test utility, line is always small
				Character: protocol.UInteger(char), //nolint:gosec // test utility, char is always small
			},
		},
		Context: protocol.ReferenceContext{IncludeDeclaration: includeDeclaration},
	})
}

// Rename requests a rename at the given position.
func (h *Harness) Rename(path string, line, char int, newName string) (*protocol.WorkspaceEdit, error) {
	h.t.Helper()

	return h.handler.TextDocumentRename(nil, &protocol.RenameParams{ //nolint:wrapcheck // test utility
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: h.resolveURI(path)},
			Position: protocol.Position{
				Line:      protocol.UInteger(line), //nolint:gosec // test utility, line is always small
				Character: protocol.UInteger(char), //nolint:gosec // test utility, char is always small
			},
		},
		NewName: newName,
	})
}

// DocumentSymbols requests document symbols.
func (h *Harness) DocumentSymbols(path string) (any, error) {
	h.t.Helper()

	return h.handler.TextDocumentDocumentSymbol(nil, &protocol.DocumentSymbolParams{ //nolint:wrapcheck // test utility
		TextDocument: protocol.TextDocumentIdentifier{URI: h.resolveURI(path)},
	})
}

// Formatting requests document formatting.
func (h *Harness) Formatting(path string) ([]protocol.TextEdit, error) {
	h.t.Helper()

	return h.handler.TextDocumentFormatting(nil, &protocol.DocumentFormattingParams{ //nolint:wrapcheck // test utility
		TextDocument: protocol.TextDocumentIdentifier{URI: h.resolveURI(path)},
		Options: protocol.FormattingOptions{
			"tabSize":      4,
			"insertSpaces": false,
		},
	})
}

// Handler returns the protocol handler for low-level test access.
func (h *Harness) Handler() *protocol.Handler {
	return h.handler
}

// Close shuts down the harness.
func (h *Harness) Close() {
	// No-op: the harness doesn't own any resources.
}
