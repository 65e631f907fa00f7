package lsp

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/diplomat-hdl/diplomat/align"
	"github.com/diplomat-hdl/diplomat/diag"
	"github.com/diplomat-hdl/diplomat/index"
	"github.com/diplomat-hdl/diplomat/location"
	"github.com/diplomat-hdl/diplomat/sv/ast"
	"github.com/diplomat-hdl/diplomat/sv/parse"
)

// customMethodPrefix identifies a diplomat-server.* request or notification,
// dispatched outside the standard LSP method table.
const customMethodPrefix = "diplomat-server."

// handleCustomMethod dispatches a diplomat-server.* method by name, decoding
// rawParams (the request's raw JSON params) as needed. handled is false for
// any method this server doesn't recognize, so the caller can fall back to
// reporting MethodNotFound.
func (s *Server) handleCustomMethod(method string, rawParams []byte) (result any, handled bool, err error) {
	if !strings.HasPrefix(method, customMethodPrefix) {
		return nil, false, nil
	}

	switch strings.TrimPrefix(method, customMethodPrefix) {
	case "get-modules":
		r, e := s.diplomatGetModules()
		return r, true, e
	case "get-module-bbox":
		var p getModuleBboxParams
		if e := json.Unmarshal(rawParams, &p); e != nil {
			return nil, true, e
		}
		r, e := s.diplomatGetModuleBbox(p)
		return r, true, e
	case "index-dump":
		var p indexDumpParams
		_ = json.Unmarshal(rawParams, &p)
		return nil, true, s.diplomatIndexDump(p)
	case "ignore":
		var p ignoreParams
		if e := json.Unmarshal(rawParams, &p); e != nil {
			return nil, true, e
		}
		s.workspace.Ignore(p.Paths)
		return nil, true, nil
	case "full-index":
		r := s.diplomatFullIndex()
		return r, true, nil
	case "force-reindex":
		s.workspace.Rebuild()
		return nil, true, nil
	case "set-top":
		var p setTopParams
		if e := json.Unmarshal(rawParams, &p); e != nil {
			return nil, true, e
		}
		s.workspace.SetTopLevel(p.Module)
		return nil, true, nil
	case "add-include":
		var p addIncludeParams
		if e := json.Unmarshal(rawParams, &p); e != nil {
			return nil, true, e
		}
		s.workspace.AddInclude(p.Path)
		return nil, true, nil
	case "resolve-hier-path":
		var p resolveHierPathParams
		if e := json.Unmarshal(rawParams, &p); e != nil {
			return nil, true, e
		}
		r, e := s.diplomatResolveHierPath(p)
		return r, true, e
	case "get-hierarchy":
		var p getHierarchyParams
		_ = json.Unmarshal(rawParams, &p)
		r := s.diplomatGetHierarchy(p)
		return r, true, nil
	case "list-symbols":
		var p listSymbolsParams
		_ = json.Unmarshal(rawParams, &p)
		r := s.diplomatListSymbols(p)
		return r, true, nil
	default:
		return nil, false, nil
	}
}

// --- get-modules / get-module-bbox ---------------------------------------
//
// Both handlers answer from a bare parse of the relevant file(s), never the
// full Index: §4.H promises module names and parameter/port shapes "without
// running the full indexer", so these skip the build and resolve passes
// entirely.

type moduleEntry struct {
	Name string `json:"name"`
	File string `json:"file"`
}

func (s *Server) diplomatGetModules() ([]moduleEntry, error) {
	var out []moduleEntry
	for _, f := range s.workspace.collectFiles() {
		collector := diag.NewCollectorUnlimited()
		p := parse.New(documentSourceID(f.path), string(f.content), collector)
		root := p.ParseFile()
		if root == nil {
			continue
		}
		for _, m := range collectModules(*root) {
			out = append(out, moduleEntry{Name: m.Name(), File: f.path})
		}
	}
	return out, nil
}

type getModuleBboxParams struct {
	File string `json:"file"`
}

type paramEntry struct {
	Name    string `json:"name"`
	Default string `json:"default"`
	Type    string `json:"type"`
}

type portEntry struct {
	Name        string `json:"name"`
	Size        string `json:"size"`
	Type        string `json:"type"`
	Direction   string `json:"direction"`
	IsInterface bool   `json:"is_interface"`
	Modport     string `json:"modport"`
}

type moduleBbox struct {
	Module     string       `json:"module"`
	Parameters []paramEntry `json:"parameters"`
	Ports      []portEntry  `json:"ports"`
}

func (s *Server) diplomatGetModuleBbox(p getModuleBboxParams) (*moduleBbox, error) {
	content, err := os.ReadFile(p.File)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.File, err)
	}

	collector := diag.NewCollectorUnlimited()
	parser := parse.New(documentSourceID(p.File), string(content), collector)
	root := parser.ParseFile()
	if root == nil {
		return nil, fmt.Errorf("parse %s: no module found", p.File)
	}

	modules := collectModules(*root)
	if len(modules) == 0 {
		return nil, fmt.Errorf("no module declarations in %s", p.File)
	}
	mod := moduleForFile(modules, p.File)

	bbox := &moduleBbox{Module: mod.Name()}
	for _, n := range mod.Params {
		bbox.Parameters = append(bbox.Parameters, paramEntryFrom(n, content))
	}
	for _, n := range mod.Ports {
		bbox.Ports = append(bbox.Ports, portEntryFrom(n, content))
	}
	return bbox, nil
}

// collectModules walks root for every module/interface declaration,
// recursing into package bodies (the only construct that can contain one
// without being one itself).
func collectModules(root ast.Node) []*ast.ModuleDecl {
	var out []*ast.ModuleDecl
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		if n == nil {
			return
		}
		if m, ok := n.(*ast.ModuleDecl); ok {
			out = append(out, m)
			return
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(root)
	return out
}

// moduleForFile prefers the module whose name matches the file's base name
// (the common one-module-per-file convention), falling back to the first
// module declared.
func moduleForFile(modules []*ast.ModuleDecl, path string) *ast.ModuleDecl {
	base := strings.TrimSuffix(baseName(path), extOf(path))
	for _, m := range modules {
		if m.Name() == base {
			return m
		}
	}
	return modules[0]
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func extOf(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i:]
	}
	return ""
}

// paramEntryFrom builds a parameter entry from a KindParamDecl node. The
// parser's consumeOptionalType discards any type keyword on a param
// declaration (it never attaches it to the node), so Type is always empty —
// a limitation of the front end, not of this handler.
func paramEntryFrom(n ast.Node, content []byte) paramEntry {
	entry := paramEntry{Name: n.Name()}
	if children := n.Children(); len(children) > 0 {
		entry.Default = textOf(content, children[0].Range())
	}
	return entry
}

// portEntryFrom builds a port entry from a KindAnsiPort node via the same
// member decomposition the Alignment Formatter uses. This front end has no
// interface-port syntax, so IsInterface and Modport are always zero-valued.
func portEntryFrom(n ast.Node, content []byte) portEntry {
	entry := portEntry{Name: n.Name()}
	m, ok := align.AsMember(n)
	if !ok {
		return entry
	}
	for _, tok := range m.Modifiers() {
		entry.Direction = tok.Text
		break
	}
	var typeToks []string
	for _, tok := range m.TypeTokens() {
		typeToks = append(typeToks, tok.Text)
	}
	entry.Type = strings.Join(typeToks, " ")
	var dims []string
	for _, d := range m.PackedDims() {
		dims = append(dims, textOf(content, d.Range()))
	}
	entry.Size = strings.Join(dims, "")
	return entry
}

func textOf(content []byte, rng location.Range) string {
	if !rng.Start.HasByte() || !rng.End.HasByte() {
		return ""
	}
	start, end := rng.Start.Byte, rng.End.Byte+1
	if start < 0 || end > len(content) || start > end {
		return ""
	}
	return string(content[start:end])
}

// --- index-dump ------------------------------------------------------------

type indexDumpParams struct {
	Path string `json:"path"`
}

type dumpRange struct {
	Beg string `json:"beg"`
	End string `json:"end"`
}

type dumpSymbol struct {
	ID   string      `json:"id"`
	Loc  dumpRange   `json:"loc"`
	Refs []dumpRange `json:"refs"`
}

type dumpScope struct {
	Name     string                `json:"name"`
	Def      *dumpRange            `json:"def"`
	Virtual  bool                  `json:"virtual"`
	Children map[string]*dumpScope `json:"children"`
	Content  map[string]dumpSymbol `json:"content"`
}

type dumpFile struct {
	Path    string   `json:"path"`
	Scopes  []string `json:"scopes"`
	Symbols []string `json:"symbols"`
}

type indexDump struct {
	Hier  *dumpScope           `json:"hier"`
	Files map[string]*dumpFile `json:"files"`
}

func rangeToDump(rng location.Range) dumpRange {
	return dumpRange{
		Beg: fmt.Sprintf("%s:%d:%d", rng.Source.String(), rng.Start.Line, rng.Start.Column),
		End: fmt.Sprintf("%s:%d:%d", rng.Source.String(), rng.End.Line, rng.End.Column),
	}
}

// diplomatIndexDump serializes the live Index to JSON at p.Path (default
// "index-dump.json" in the working directory), per §6's dump format.
func (s *Server) diplomatIndexDump(p indexDumpParams) error {
	core := s.workspace.Core()
	dump := indexDump{
		Hier:  s.dumpScope(core, core.Root()),
		Files: make(map[string]*dumpFile),
	}
	for _, fileRef := range core.Files() {
		dump.Files[fileRef.Path()] = s.dumpFile(core, fileRef)
	}

	path := p.Path
	if path == "" {
		path = "index-dump.json"
	}
	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index dump: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write index dump: %w", err)
	}
	return nil
}

func (s *Server) dumpScope(core *index.Core, scope index.ScopeRef) *dumpScope {
	info, ok := core.Scope(scope)
	if !ok {
		return nil
	}
	out := &dumpScope{
		Name:     info.Name,
		Virtual:  info.Virtual,
		Children: make(map[string]*dumpScope),
		Content:  make(map[string]dumpSymbol),
	}
	if !info.Source.IsZero() {
		rng := rangeToDump(info.Source)
		out.Def = &rng
	}
	for _, child := range core.ScopeChildren(scope) {
		childInfo, ok := core.Scope(child)
		if !ok {
			continue
		}
		out.Children[childInfo.Name] = s.dumpScope(core, child)
	}
	for _, sym := range core.ScopeSymbols(scope) {
		symInfo, ok := core.Symbol(sym)
		if !ok {
			continue
		}
		refs := make([]dumpRange, 0, len(symInfo.References))
		for _, r := range symInfo.References {
			refs = append(refs, rangeToDump(r))
		}
		entry := dumpSymbol{ID: symInfo.Ref.String(), Refs: refs}
		if symInfo.HasSource {
			entry.Loc = rangeToDump(symInfo.Source)
		}
		out.Content[symInfo.Name] = entry
	}
	return out
}

// dumpFile builds a file's index-dump entry: the fully-qualified name of
// every scope declared in it, and the stable id of every symbol declared in
// it.
func (s *Server) dumpFile(core *index.Core, file index.FileRef) *dumpFile {
	out := &dumpFile{Path: file.Path()}
	for _, scope := range core.FileScopes(file) {
		if name, ok := core.FullPath(scope); ok {
			out.Scopes = append(out.Scopes, name)
		}
	}
	for _, sym := range core.FileSymbols(file) {
		if info, ok := core.Symbol(sym); ok {
			out.Symbols = append(out.Symbols, info.Ref.String())
		}
	}
	return out
}

// --- ignore / full-index / force-reindex / set-top / add-include ----------

type ignoreParams struct {
	Paths []string `json:"path"`
}

type fullIndexSummary struct {
	Files       int `json:"files"`
	Errors      int `json:"errors"`
	Warnings    int `json:"warnings"`
	Diagnostics int `json:"diagnostics"`
}

func (s *Server) diplomatFullIndex() fullIndexSummary {
	result := s.workspace.Rebuild()
	counts := result.SeverityCounts()
	return fullIndexSummary{
		Files:       len(s.workspace.AllDiagnostics()),
		Errors:      counts.Fatal + counts.Errors,
		Warnings:    counts.Warnings,
		Diagnostics: len(result.IssuesSlice()),
	}
}

type setTopParams struct {
	Module string `json:"module"`
}

type addIncludeParams struct {
	Path string `json:"path"`
}

// --- resolve-hier-path / get-hierarchy / list-symbols ----------------------

type resolveHierPathParams struct {
	Path string `json:"path"`
}

func (s *Server) diplomatResolveHierPath(p resolveHierPathParams) (*dumpRange, error) {
	core := s.workspace.Core()
	segments := strings.Split(p.Path, ".")

	if scope, ok := core.ResolveScope(core.Root(), segments); ok {
		if info, ok := core.Scope(scope); ok && !info.Source.IsZero() {
			rng := rangeToDump(info.Source)
			return &rng, nil
		}
	}
	if sym, ok := core.ResolveSymbol(core.Root(), segments); ok {
		if info, ok := core.Symbol(sym); ok && info.HasSource {
			rng := rangeToDump(info.Source)
			return &rng, nil
		}
	}
	return nil, fmt.Errorf("resolve-hier-path: %q not found", p.Path)
}

type getHierarchyParams struct {
	Top string `json:"top"`
}

type hierarchyNode struct {
	Name     string          `json:"name"`
	Children []hierarchyNode `json:"children,omitempty"`
}

func (s *Server) diplomatGetHierarchy(p getHierarchyParams) []hierarchyNode {
	core := s.workspace.Core()

	top := p.Top
	if top == "" {
		top = s.workspace.TopLevel()
	}

	root := core.Root()
	if top != "" {
		if scope, ok := core.ResolveScope(core.Root(), strings.Split(top, ".")); ok {
			root = scope
		}
	}

	var nodes []hierarchyNode
	for _, child := range core.ScopeChildren(root) {
		nodes = append(nodes, s.hierarchyNodeFor(core, child))
	}
	return nodes
}

func (s *Server) hierarchyNodeFor(core *index.Core, scope index.ScopeRef) hierarchyNode {
	info, ok := core.Scope(scope)
	if !ok {
		return hierarchyNode{}
	}
	node := hierarchyNode{Name: info.Name}
	for _, child := range core.ScopeChildren(scope) {
		node.Children = append(node.Children, s.hierarchyNodeFor(core, child))
	}
	return node
}

type listSymbolsParams struct {
	Scope string `json:"scope"`
}

type symbolEntry struct {
	Name  string `json:"name"`
	File  string `json:"file"`
	Range string `json:"range"`
}

func (s *Server) diplomatListSymbols(p listSymbolsParams) []symbolEntry {
	core := s.workspace.Core()

	root := core.Root()
	if p.Scope != "" {
		if scope, ok := core.ResolveScope(core.Root(), strings.Split(p.Scope, ".")); ok {
			root = scope
		}
	}

	var out []symbolEntry
	var walk func(scope index.ScopeRef)
	walk = func(scope index.ScopeRef) {
		for _, sym := range core.ScopeSymbols(scope) {
			info, ok := core.Symbol(sym)
			if !ok || !info.HasSource {
				continue
			}
			out = append(out, symbolEntry{
				Name:  info.Name,
				File:  info.Source.Source.String(),
				Range: fmt.Sprintf("%d:%d-%d:%d", info.Source.Start.Line, info.Source.Start.Column, info.Source.End.Line, info.Source.End.Column),
			})
		}
		for _, child := range core.ScopeChildren(scope) {
			walk(child)
		}
	}
	walk(root)
	return out
}
