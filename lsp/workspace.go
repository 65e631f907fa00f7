package lsp

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/diplomat-hdl/diplomat/diag"
	"github.com/diplomat-hdl/diplomat/index"
	"github.com/diplomat-hdl/diplomat/index/build"
	"github.com/diplomat-hdl/diplomat/index/resolve"
	"github.com/diplomat-hdl/diplomat/location"
	"github.com/diplomat-hdl/diplomat/sv/ast"
	"github.com/diplomat-hdl/diplomat/sv/parse"
)

// Document represents an open document in the workspace.
type Document struct {
	URI      string
	SourceID location.SourceID
	Version  int
	Text     string
}

// fileDiagnostics pairs a file's diagnostics with the content they were
// computed against, so a docProvider can answer UTF-16 offset questions
// about either an open buffer or an on-disk file.
type fileDiagnostics struct {
	uri     string
	content []byte
	result  diag.Result
}

// snapshot is the product of one Rebuild: a fully resolved Index plus the
// per-file diagnostics gathered along the way. Swapped in under the
// workspace mutex once the build is complete, so readers never observe a
// partially built Index. Every Rebuild swaps in its snapshot, including one
// whose files had parse or build errors; the previous snapshot is not kept.
type snapshot struct {
	core        *index.Core
	diagnostics map[location.SourceID]*fileDiagnostics
}

// Workspace owns the single live Index for this server instance. Per
// SPEC_FULL.md §5 there is exactly one workspace-worker: builds run
// sequentially and synchronously, triggered by document and workspace
// notifications, and every rebuild replaces the snapshot wholesale. This is the simple end of the teacher's workspace: no debounce
// timer, no per-document dependency graph, no background analysis pool —
// SPEC_FULL.md's concurrency model doesn't need any of that, so Rebuild runs
// synchronously on the request-handling goroutine under one mutex, which is
// this server's entire approximation of "a single worker".
type Workspace struct {
	logger *slog.Logger

	mu          sync.RWMutex
	roots       []string // filesystem paths, not URIs
	includes    []string // extra search roots, per diplomat-server.add-include
	topLevel    string   // preferred hierarchy root, per diplomat-server.set-top
	docs        map[string]*Document
	ignored     map[string]bool
	posEncoding PositionEncoding
	snap        *snapshot
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	core := index.NewCore()
	core.SetRoot("$root")
	return &Workspace{
		logger:      logger.With(slog.String("component", "workspace")),
		docs:        make(map[string]*Document),
		ignored:     make(map[string]bool),
		posEncoding: PositionEncodingUTF16,
		snap:        &snapshot{core: core, diagnostics: make(map[location.SourceID]*fileDiagnostics)},
	}
}

// AddRoot registers a workspace folder by URI.
func (w *Workspace) AddRoot(uri string) {
	path, err := URIToPath(uri)
	if err != nil {
		w.logger.Warn("ignoring workspace root with unparseable URI", slog.String("uri", uri))
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range w.roots {
		if r == path {
			return
		}
	}
	w.roots = append(w.roots, path)
}

// RemoveRoot unregisters a workspace folder by URI.
func (w *Workspace) RemoveRoot(uri string) {
	path, err := URIToPath(uri)
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	filtered := w.roots[:0]
	for _, r := range w.roots {
		if r != path {
			filtered = append(filtered, r)
		}
	}
	w.roots = filtered
}

// SetPositionEncoding sets the negotiated LSP position encoding.
func (w *Workspace) SetPositionEncoding(enc PositionEncoding) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.posEncoding = enc
}

// PositionEncoding returns the negotiated position encoding.
func (w *Workspace) PositionEncoding() PositionEncoding {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.posEncoding
}

// SetTopLevel sets the preferred hierarchy root, per diplomat-server.set-top.
// An empty module leaves Core.Root as the default.
func (w *Workspace) SetTopLevel(module string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.topLevel = module
}

// TopLevel returns the hierarchy root set via SetTopLevel, or "" if none was
// set.
func (w *Workspace) TopLevel() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.topLevel
}

// AddInclude registers an extra search root, per diplomat-server.add-include.
// Files under it are collected on the next Rebuild exactly like a workspace
// root, so module types declared outside the open folders still resolve.
func (w *Workspace) AddInclude(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	clean := filepath.Clean(path)
	for _, r := range w.includes {
		if r == clean {
			return
		}
	}
	w.includes = append(w.includes, clean)
}

// Ignore excludes paths from future builds, per diplomat-server.ignore.
func (w *Workspace) Ignore(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range paths {
		w.ignored[filepath.Clean(p)] = true
	}
}

// documentSourceID derives the stable SourceID a document's path maps to.
// Uses filesystem-independent canonicalization (no symlink resolution, no
// existence check) so an unsaved buffer and its eventual on-disk file agree.
func documentSourceID(path string) location.SourceID {
	sid, err := location.SourceIDFromAbsolutePath(path)
	if err != nil {
		return location.MustNewSourceID("unreadable://" + path)
	}
	return sid
}

// DocumentOpened records a newly opened document.
func (w *Workspace) DocumentOpened(uri string, version int, text string) {
	path, err := URIToPath(uri)
	if err != nil {
		w.logger.Warn("didOpen with unparseable URI", slog.String("uri", uri))
		return
	}
	doc := &Document{URI: uri, SourceID: documentSourceID(path), Version: version, Text: text}
	w.mu.Lock()
	w.docs[uri] = doc
	w.mu.Unlock()
}

// DocumentChanged updates an open document's text.
func (w *Workspace) DocumentChanged(uri string, version int, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.docs[uri]
	if !ok {
		path, err := URIToPath(uri)
		if err != nil {
			return
		}
		doc = &Document{URI: uri, SourceID: documentSourceID(path)}
		w.docs[uri] = doc
	}
	doc.Version = version
	doc.Text = text
}

// DocumentClosed drops an open document from the workspace. The file's
// on-disk content (if any) remains part of the next rebuild.
func (w *Workspace) DocumentClosed(uri string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.docs, uri)
}

// GetDocumentSnapshot returns a copy of an open document, or nil if it is
// not open.
func (w *Workspace) GetDocumentSnapshot(uri string) *Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	doc, ok := w.docs[uri]
	if !ok {
		return nil
	}
	cp := *doc
	return &cp
}

// Core returns the currently live Index, the product of the most recent
// successful Rebuild.
func (w *Workspace) Core() *index.Core {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snap.core
}

// Diagnostics returns the diagnostics computed for source during the most
// recent successful Rebuild, and the content they were computed against.
func (w *Workspace) Diagnostics(source location.SourceID) (diag.Result, []byte, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	fd, ok := w.snap.diagnostics[source]
	if !ok {
		return diag.OK(), nil, false
	}
	return fd.result, fd.content, true
}

// AllDiagnostics returns every file's diagnostics from the most recent
// successful Rebuild, keyed by URI.
func (w *Workspace) AllDiagnostics() map[string]diag.Result {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[string]diag.Result, len(w.snap.diagnostics))
	for _, fd := range w.snap.diagnostics {
		out[fd.uri] = fd.result
	}
	return out
}

// candidateFile is one file Rebuild will parse: either an open buffer or an
// on-disk file discovered by walking the workspace roots.
type candidateFile struct {
	uri     string
	path    string
	content []byte
}

// collectFiles gathers every file Rebuild should consider: all open
// documents, plus every on-disk source file under the workspace roots that
// isn't already open and isn't ignored.
func (w *Workspace) collectFiles() []candidateFile {
	w.mu.RLock()
	roots := append([]string{}, w.roots...)
	roots = append(roots, w.includes...)
	ignored := make(map[string]bool, len(w.ignored))
	for k, v := range w.ignored {
		ignored[k] = v
	}
	open := make(map[string]*Document, len(w.docs))
	for uri, doc := range w.docs {
		open[uri] = doc
	}
	w.mu.RUnlock()

	openPaths := make(map[string]bool, len(open))
	var files []candidateFile
	for uri, doc := range open {
		path, err := URIToPath(uri)
		if err != nil {
			continue
		}
		openPaths[path] = true
		files = append(files, candidateFile{uri: uri, path: path, content: []byte(doc.Text)})
	}

	for _, root := range roots {
		_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if ignored[filepath.Clean(path)] {
				return nil
			}
			if !sourceExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			if openPaths[path] {
				return nil
			}
			content, readErr := os.ReadFile(path)
			if readErr != nil {
				w.logger.Warn("skipping unreadable source file",
					slog.String("path", path), slog.String("error", readErr.Error()))
				return nil
			}
			files = append(files, candidateFile{uri: PathToURI(path), path: path, content: content})
			return nil
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files
}

// parsedUnit is one file's parse tree, carried from the parse phase into the
// build and resolve phases below.
type parsedUnit struct {
	source  location.SourceID
	fileRef index.FileRef
	root    ast.Node
}

// Rebuild reparses and reindexes every tracked file, then swaps the result
// in as the workspace's live snapshot. Called synchronously from the
// didOpen, didChange, didClose, watched-files and workspace-folders handlers
// and from the custom reindex requests — there is no debouncing and no
// concurrent rebuild; the caller's goroutine does the work directly.
func (w *Workspace) Rebuild() diag.Result {
	files := w.collectFiles()

	core := index.NewCore()
	core.SetRoot("$root")

	diagnostics := make(map[location.SourceID]*fileDiagnostics, len(files))
	overall := diag.NewCollectorUnlimited()

	var units []parsedUnit

	for _, f := range files {
		source := documentSourceID(f.path)
		collector := diag.NewCollectorUnlimited()

		fileRef, err := core.GetOrCreateFile(f.path)
		if err != nil {
			w.logger.Error("indexer could not register file",
				slog.String("path", f.path), slog.String("error", err.Error()))
			continue
		}

		p := parse.New(source, string(f.content), collector)
		root := p.ParseFile()

		diagnostics[source] = &fileDiagnostics{uri: f.uri, content: f.content, result: collector.Result()}
		overall.Merge(collector.Result())

		if root != nil {
			units = append(units, parsedUnit{source: source, fileRef: fileRef, root: *root})
		}
	}

	runPass := func(run func(collector *diag.Collector, u parsedUnit)) {
		for _, u := range units {
			collector := diag.NewCollectorUnlimited()
			run(collector, u)
			if fd, ok := diagnostics[u.source]; ok {
				merged := diag.NewCollectorUnlimited()
				merged.Merge(fd.result)
				merged.Merge(collector.Result())
				fd.result = merged.Result()
			}
			overall.Merge(collector.Result())
		}
	}

	runPass(func(collector *diag.Collector, u parsedUnit) {
		build.New(core, u.fileRef, collector).Walk(u.root)
	})
	runPass(func(collector *diag.Collector, u parsedUnit) {
		resolve.New(core, u.fileRef, collector).Walk(u.root)
	})

	w.mu.Lock()
	w.snap = &snapshot{core: core, diagnostics: diagnostics}
	w.mu.Unlock()

	return overall.Result()
}
