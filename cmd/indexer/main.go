// Package main provides the standalone cross-reference indexer: it parses
// and builds an Index over a set of SystemVerilog files and emits the
// result as JSON, independent of the language server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/diplomat-hdl/diplomat/diag"
	"github.com/diplomat-hdl/diplomat/index"
	"github.com/diplomat-hdl/diplomat/index/build"
	"github.com/diplomat-hdl/diplomat/index/resolve"
	"github.com/diplomat-hdl/diplomat/location"
	"github.com/diplomat-hdl/diplomat/sv/ast"
	"github.com/diplomat-hdl/diplomat/sv/parse"
)

const (
	exitOK      = 0
	exitOption  = 2
	exitCompile = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("indexer", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		outPath = fs.String("o", "", "write Index JSON to this path instead of stdout")
		verbose = fs.Bool("verbose", false, "log build progress to stderr")
		trace   = fs.Bool("trace", false, "log per-file parse diagnostics to stderr")
		cstFile = fs.String("cst", "", "additionally dump the CST of this file to stderr")
	)

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: indexer [-o out.json] [--verbose] [--trace] [--cst <file>] <files...>\n\nOptions:\n")
		fs.SetOutput(stderr)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return exitOption
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitOption
	}

	level := slog.LevelWarn
	if *verbose || *trace {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	core := index.NewCore()
	core.SetRoot("$root")

	overall := diag.NewCollectorUnlimited()
	type unit struct {
		source  location.SourceID
		fileRef index.FileRef
		root    ast.Node
	}
	var units []unit

	for _, path := range fs.Args() {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stderr, "indexer: %v\n", err)
			return exitOption
		}

		source, err := location.SourceIDFromAbsolutePath(path)
		if err != nil {
			source = location.MustNewSourceID(path)
		}

		fileRef, err := core.GetOrCreateFile(path)
		if err != nil {
			fmt.Fprintf(stderr, "indexer: %s: %v\n", path, err)
			return exitOption
		}

		collector := diag.NewCollectorUnlimited()
		p := parse.New(source, string(content), collector)
		root := p.ParseFile()
		result := collector.Result()
		overall.CollectAll(result.IssuesSlice())

		if *trace {
			for _, msg := range result.Messages() {
				logger.Info("parse diagnostic", slog.String("file", path), slog.String("message", msg))
			}
		}
		if *verbose {
			logger.Info("parsed file", slog.String("path", path), slog.Int("diagnostics", result.Len()))
		}

		if root == nil {
			continue
		}
		units = append(units, unit{source: source, fileRef: fileRef, root: *root})

		if *cstFile != "" && path == *cstFile {
			dumpCST(stderr, *root, 0)
		}
	}

	for _, u := range units {
		collector := diag.NewCollectorUnlimited()
		build.New(core, u.fileRef, collector).Walk(u.root)
		overall.CollectAll(collector.Result().IssuesSlice())
	}
	for _, u := range units {
		collector := diag.NewCollectorUnlimited()
		resolve.New(core, u.fileRef, collector).Walk(u.root)
		overall.CollectAll(collector.Result().IssuesSlice())
	}

	result := overall.Result()
	if result.HasErrors() {
		fmt.Fprintf(stderr, "indexer: %d error(s) during build\n", result.SeverityCounts().Errors)
		return exitCompile
	}

	dump := buildDump(core)
	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "indexer: marshal index: %v\n", err)
		return exitCompile
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, data, 0o644); err != nil {
			fmt.Fprintf(stderr, "indexer: write %s: %v\n", *outPath, err)
			return exitCompile
		}
	} else {
		fmt.Fprintln(stdout, string(data))
	}
	return exitOK
}

func dumpCST(w io.Writer, n ast.Node, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	name := n.Name()
	if name != "" {
		fmt.Fprintf(w, "%s%s %q\n", indent, n.Kind(), name)
	} else {
		fmt.Fprintf(w, "%s%s\n", indent, n.Kind())
	}
	for _, c := range n.Children() {
		dumpCST(w, c, depth+1)
	}
}

// dumpRange, dumpSymbol, dumpScope, dumpFile and indexDump mirror the wire
// shape the language server's index-dump custom method emits, so either
// path can be diffed against the other.

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

func buildDump(core *index.Core) indexDump {
	dump := indexDump{
		Hier:  scopeDump(core, core.Root()),
		Files: make(map[string]*dumpFile),
	}
	for _, fileRef := range core.Files() {
		dump.Files[fileRef.Path()] = fileDump(core, fileRef)
	}
	return dump
}

func scopeDump(core *index.Core, scope index.ScopeRef) *dumpScope {
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
		out.Children[childInfo.Name] = scopeDump(core, child)
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

func fileDump(core *index.Core, file index.FileRef) *dumpFile {
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
