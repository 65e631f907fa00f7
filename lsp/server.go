// Package lsp implements a Language Server Protocol server for SystemVerilog
// source files.
package lsp

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	// commonlog is a required dependency of github.com/tliron/glsp.
	// We silence it in NewServer() via commonlog.Configure(0, nil) because
	// this server uses slog for all logging. The blank import of the "simple"
	// backend is required by glsp at runtime.
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple" // required backend for glsp

	"github.com/diplomat-hdl/diplomat/diag"
)

const serverName = "diplomat-lsp"

// watchdogPollInterval is how often the client-PID watchdog checks whether
// the client process is still alive, per spec's "watchdog thread polling the
// client PID".
const watchdogPollInterval = 5 * time.Second

// Config holds server configuration supplied on the command line, ahead of
// anything negotiated over the protocol.
type Config struct {
	// Verbose records whether --verbose was given. The server only stores
	// it; the caller sets the logger's level before constructing the server.
	Verbose bool
}

// Server is the diplomat language server.
type Server struct {
	logger    *slog.Logger
	config    Config
	handler   protocol.Handler
	server    *server.Server
	workspace *Workspace

	shutdownCalled bool

	watchdogStop chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewServer creates a new diplomat language server. If logger is nil,
// slog.Default() is used.
func NewServer(logger *slog.Logger, cfg Config) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger:    logger.With(slog.String("component", "server")),
		config:    cfg,
		workspace: NewWorkspace(logger),
	}

	// Silence commonlog - glsp uses it internally but we use slog for all logging.
	commonlog.Configure(0, nil)

	s.handler = protocol.Handler{
		Initialize:    s.initialize,
		Initialized:   s.initialized,
		Shutdown:      s.shutdown,
		Exit:          s.exit,
		SetTrace:      s.setTrace,
		CancelRequest: s.cancelRequest,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentDefinition:     s.textDocumentDefinition,
		TextDocumentReferences:     s.textDocumentReferences,
		TextDocumentRename:         s.textDocumentRename,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
		TextDocumentFormatting:     s.textDocumentFormatting,

		WorkspaceDidChangeWatchedFiles:     s.workspaceDidChangeWatchedFiles,
		WorkspaceDidChangeWorkspaceFolders: s.workspaceDidChangeWorkspaceFolders,
	}

	s.server = server.NewServer(&customMethodHandler{inner: &s.handler, server: s}, serverName, false)

	return s
}

// Handler returns the protocol handler for testing purposes.
func (s *Server) Handler() *protocol.Handler {
	return &s.handler
}

// Workspace returns the server's workspace, so a caller can apply decoded
// settings (top-level module, includes, ignored paths) before the first
// build.
func (s *Server) Workspace() *Workspace {
	return s.workspace
}

// RunStdio runs the server using stdio transport.
func (s *Server) RunStdio() error {
	if err := s.server.RunStdio(); err != nil {
		return fmt.Errorf("run stdio: %w", err)
	}
	return nil
}

// RunTCP runs the server listening on address, per the --tcp/--port CLI flags.
func (s *Server) RunTCP(address string) error {
	if err := s.server.RunTCP(address); err != nil {
		return fmt.Errorf("run tcp: %w", err)
	}
	return nil
}

// Shutdown stops the client-PID watchdog, if running.
func (s *Server) Shutdown() {
	s.logger.Info("initiating shutdown")
	s.stopWatchdog()
}

// Close closes the JSON-RPC connection, causing RunStdio to return.
//
// Close is idempotent: multiple calls return the same result and do not
// panic. It is safe to call before RunStdio (returns nil if connection not
// initialized).
func (s *Server) Close() error {
	conn := s.server.GetStdio()
	if conn == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		if err := conn.Close(); err != nil {
			s.closeErr = fmt.Errorf("close connection: %w", err)
		}
	})
	return s.closeErr
}

// customMethodHandler wraps protocol.Handler so diplomat-server.* requests
// and notifications are intercepted before falling through to glsp's own
// method table: glsp.Context.Method carries the raw JSON-RPC method name for
// every request, including ones protocol.Handler has no named field for.
type customMethodHandler struct {
	inner  *protocol.Handler
	server *Server
}

// Handle implements the interface server.NewServer dispatches through.
func (h *customMethodHandler) Handle(context *glsp.Context) (r any, validMethod bool, validParams bool, err error) {
	if strings.HasPrefix(context.Method, customMethodPrefix) {
		result, handled, err := h.server.handleCustomMethod(context.Method, context.Params)
		if handled {
			return result, true, true, err
		}
	}
	return h.inner.Handle(context)
}

// initialize handles the initialize request.
func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.logger.Info("initialize request received",
		slog.String("client_name", s.clientName(params)),
		slog.String("root_uri", s.rootURI(params)),
	)

	s.logClientCapabilities(params.Capabilities)

	switch {
	case params.WorkspaceFolders != nil:
		for _, folder := range params.WorkspaceFolders {
			s.workspace.AddRoot(folder.URI)
			s.logger.Debug("workspace folder", slog.String("uri", folder.URI))
		}
	case params.RootURI != nil:
		s.workspace.AddRoot(*params.RootURI)
	case params.RootPath != nil:
		s.workspace.AddRoot(PathToURI(*params.RootPath))
	}

	// Position encoding negotiation requires LSP 3.17; glsp only speaks 3.16,
	// so UTF-16 (the LSP default) is used unconditionally.
	posEncoding := PositionEncodingUTF16
	s.workspace.SetPositionEncoding(posEncoding)
	s.logger.Info("using position encoding", slog.String("encoding", string(posEncoding)))

	if params.ProcessID != nil {
		s.startWatchdog(int(*params.ProcessID))
	}

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindFull
	if syncOpts, ok := capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions); ok {
		syncOpts.Change = &syncKind
	}

	version := "dev"
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

// startWatchdog launches a goroutine polling pid's liveness, per spec's
// "watchdog thread polling the client PID may request abort". Signal(0) on a
// live process returns nil (or a permission error, which still proves it's
// alive); os.FindProcess itself never fails to find a PID on Unix, so the
// signal probe is the actual liveness check.
func (s *Server) startWatchdog(pid int) {
	s.watchdogStop = make(chan struct{})
	stop := s.watchdogStop
	go func() {
		ticker := time.NewTicker(watchdogPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				proc, err := os.FindProcess(pid)
				if err != nil {
					continue
				}
				if proc.Signal(syscall.Signal(0)) != nil {
					s.logger.Warn("client process no longer reachable, shutting down", slog.Int("pid", pid))
					_ = s.Close()
					return
				}
			}
		}
	}()
}

func (s *Server) stopWatchdog() {
	if s.watchdogStop != nil {
		close(s.watchdogStop)
		s.watchdogStop = nil
	}
}

// initialized handles the initialized notification.
func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	s.logger.Info("server initialized")
	return nil
}

// shutdown handles the shutdown request.
func (s *Server) shutdown(ctx *glsp.Context) error {
	s.logger.Info("shutdown request received")
	s.shutdownCalled = true
	s.stopWatchdog()
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

// exit handles the exit notification per LSP spec. Exit code is 0 if
// shutdown was called first, 1 otherwise.
func (s *Server) exit(_ *glsp.Context) error {
	exitCode := 0
	if !s.shutdownCalled {
		s.logger.Warn("exit called without shutdown")
		exitCode = 1
	}
	s.logger.Info("exit notification received", slog.Int("exit_code", exitCode))
	os.Exit(exitCode)
	return nil // unreachable
}

// setTrace handles the $/setTrace notification.
func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	s.logger.Debug("setTrace", slog.String("value", string(params.Value)))
	protocol.SetTraceValue(params.Value)
	return nil
}

// cancelRequest handles the $/cancelRequest notification. Per spec,
// individual requests are not cancellable mid-flight (build is CPU-bound and
// not preemptible), so this is a logging hook only.
func (s *Server) cancelRequest(ctx *glsp.Context, params *protocol.CancelParams) error {
	s.logger.Debug("cancelRequest", slog.Any("id", params.ID))
	return nil
}

// textDocumentDidOpen handles textDocument/didOpen: open the document, then
// rebuild and republish diagnostics for the whole workspace synchronously,
// per the single-workspace-worker model (§5).
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.logger.Debug("textDocument/didOpen",
		slog.String("uri", uri),
		slog.Int("version", int(params.TextDocument.Version)),
	)

	if !isSourceURI(uri) {
		s.logger.Debug("ignoring didOpen for unsupported file type", slog.String("uri", uri))
		return nil
	}

	s.workspace.DocumentOpened(uri, int(params.TextDocument.Version), params.TextDocument.Text)
	s.rebuildAndPublish(ctx)
	return nil
}

// textDocumentDidChange handles textDocument/didChange. Full-text sync is
// advertised (see initialize), so the normal path replaces the whole
// document; a misbehaving client sending incremental changes anyway is
// tolerated via applyIncrementalChanges.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.logger.Debug("textDocument/didChange",
		slog.String("uri", uri),
		slog.Int("version", int(params.TextDocument.Version)),
	)

	if !isSourceURI(uri) {
		s.logger.Debug("ignoring didChange for unsupported file type", slog.String("uri", uri))
		return nil
	}

	if len(params.ContentChanges) > 0 {
		var lastFullChange *protocol.TextDocumentContentChangeEventWhole
		for _, rawChange := range params.ContentChanges {
			if change, ok := rawChange.(protocol.TextDocumentContentChangeEventWhole); ok {
				lastFullChange = &change
			}
		}

		if lastFullChange != nil {
			s.workspace.DocumentChanged(uri, int(params.TextDocument.Version), lastFullChange.Text)
		} else if _, ok := params.ContentChanges[0].(protocol.TextDocumentContentChangeEvent); ok {
			s.logger.Warn("received incremental change but server advertises full sync",
				slog.String("uri", uri), slog.Int("version", int(params.TextDocument.Version)))
			s.applyIncrementalChanges(params)
		}
	}

	s.rebuildAndPublish(ctx)
	return nil
}

// applyIncrementalChanges applies incremental text changes to a document.
// This handles misbehaving clients that send incremental changes despite
// the server advertising full sync mode.
func (s *Server) applyIncrementalChanges(params *protocol.DidChangeTextDocumentParams) {
	doc := s.workspace.GetDocumentSnapshot(params.TextDocument.URI)
	if doc == nil {
		s.logger.Warn("incremental change for unknown document",
			slog.String("uri", params.TextDocument.URI),
		)
		return
	}

	text := mergeIncrementalChanges(doc.Text, s.workspace.PositionEncoding(), params.ContentChanges, s.logger)

	s.workspace.DocumentChanged(
		params.TextDocument.URI,
		int(params.TextDocument.Version),
		text,
	)
}

// mergeIncrementalChanges applies incremental content changes to currentText
// and returns the merged result. It is a pure function with no side effects.
func mergeIncrementalChanges(currentText string, enc PositionEncoding, changes []any, logger *slog.Logger) string {
	text := normalizeLineEndings(currentText)

	for _, rawChange := range changes {
		change, ok := rawChange.(protocol.TextDocumentContentChangeEvent)
		if !ok {
			continue
		}
		if change.Range == nil {
			text = normalizeLineEndings(change.Text)
			continue
		}

		lines := strings.Split(text, "\n")
		startOffset := rangeToByteOffset(lines, int(change.Range.Start.Line), int(change.Range.Start.Character), enc)
		endOffset := rangeToByteOffset(lines, int(change.Range.End.Line), int(change.Range.End.Character), enc)

		if startOffset <= len(text) && endOffset <= len(text) && startOffset <= endOffset {
			text = text[:startOffset] + normalizeLineEndings(change.Text) + text[endOffset:]
		} else {
			if logger != nil {
				logger.Warn("incremental change has invalid range, using full-text fallback",
					slog.Int("start_offset", startOffset),
					slog.Int("end_offset", endOffset),
					slog.Int("text_len", len(text)),
				)
			}
			text = normalizeLineEndings(change.Text)
		}
	}
	return text
}

// rangeToByteOffset converts an LSP position to a byte offset in the document.
func rangeToByteOffset(lines []string, line, char int, enc PositionEncoding) int {
	offset := 0
	for i := 0; i < line && i < len(lines); i++ {
		offset += len(lines[i]) + 1
	}
	if line < len(lines) {
		lineContent := []byte(lines[line])
		var charOffset int
		switch enc {
		case PositionEncodingUTF8:
			charOffset = min(char, len(lineContent))
		default:
			charOffset = utf16CharToByteOffset(lineContent, 0, char)
		}
		offset += charOffset
	}
	return offset
}

// normalizeLineEndings converts CRLF and CR line endings to LF, so
// downstream byte-offset math stays consistent across client platforms.
func normalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text
}

// textDocumentDidClose handles textDocument/didClose. The file's on-disk
// content, if any, remains part of the next rebuild.
func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.logger.Debug("textDocument/didClose", slog.String("uri", uri))

	if !isSourceURI(uri) {
		s.logger.Debug("ignoring didClose for unsupported file type", slog.String("uri", uri))
		return nil
	}

	s.workspace.DocumentClosed(uri)
	s.rebuildAndPublish(ctx)
	return nil
}

// rebuildAndPublish reindexes the workspace and republishes diagnostics for
// every tracked file. didSave (per spec's watched-files handler below)
// triggers the same rebuild without preempting one already in flight, since
// Rebuild runs synchronously on the calling goroutine (§5's single-worker
// model).
func (s *Server) rebuildAndPublish(ctx *glsp.Context) {
	s.workspace.Rebuild()
	if ctx == nil {
		return
	}
	renderer := newRenderer(s.workspace)
	for uri, result := range s.workspace.AllDiagnostics() {
		ctx.Notify("textDocument/publishDiagnostics", publishDiagnosticsParams{
			URI:         uri,
			Diagnostics: renderer.LSPDiagnostics(result),
		})
	}
}

// publishDiagnosticsParams mirrors protocol.PublishDiagnosticsParams'
// wire shape; diag.LSPDiagnostic already carries matching json tags
// (range/severity/code/source/message/relatedInformation), so Renderer's
// output serializes directly without an intermediate protocol.Diagnostic
// conversion step.
type publishDiagnosticsParams struct {
	URI         string               `json:"uri"`
	Diagnostics []diag.LSPDiagnostic `json:"diagnostics"`
}

// workspaceDidChangeWatchedFiles handles workspace/didChangeWatchedFiles —
// a saved file on disk (not necessarily open in the editor) triggers the
// same synchronous rebuild as didOpen/didChange.
func (s *Server) workspaceDidChangeWatchedFiles(ctx *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	for _, change := range params.Changes {
		s.logger.Debug("watched file changed",
			slog.String("uri", change.URI),
			slog.Int("type", int(change.Type)),
		)
	}
	if len(params.Changes) > 0 {
		s.rebuildAndPublish(ctx)
	}
	return nil
}

// workspaceDidChangeWorkspaceFolders handles workspace/didChangeWorkspaceFolders.
func (s *Server) workspaceDidChangeWorkspaceFolders(ctx *glsp.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	for _, folder := range params.Event.Removed {
		s.logger.Debug("workspace folder removed", slog.String("uri", folder.URI))
		s.workspace.RemoveRoot(folder.URI)
	}
	for _, folder := range params.Event.Added {
		s.logger.Debug("workspace folder added", slog.String("uri", folder.URI))
		s.workspace.AddRoot(folder.URI)
	}
	s.rebuildAndPublish(ctx)
	return nil
}

// Helper functions

func (s *Server) clientName(params *protocol.InitializeParams) string {
	if params.ClientInfo != nil {
		if params.ClientInfo.Version != nil {
			return params.ClientInfo.Name + " " + *params.ClientInfo.Version
		}
		return params.ClientInfo.Name
	}
	return "unknown"
}

func (s *Server) rootURI(params *protocol.InitializeParams) string {
	if params.RootURI != nil {
		return *params.RootURI
	}
	return ""
}

func (s *Server) logClientCapabilities(caps protocol.ClientCapabilities) {
	var features []string

	if caps.TextDocument != nil {
		if caps.TextDocument.Definition != nil {
			features = append(features, "definition")
		}
		if caps.TextDocument.References != nil {
			features = append(features, "references")
		}
		if caps.TextDocument.Rename != nil {
			features = append(features, "rename")
		}
		if caps.TextDocument.DocumentSymbol != nil {
			features = append(features, "document-symbol")
		}
		if caps.TextDocument.Formatting != nil {
			features = append(features, "formatting")
		}
	}

	s.logger.Info("client capabilities", slog.Any("features", features))
}
