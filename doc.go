// Package diplomat is the root of a SystemVerilog tooling suite: a lexer,
// parser, and CST for SV source; a cross-reference indexer that resolves
// scopes, symbols, and references across a workspace; an aligning
// pretty-printer; and a Language Server Protocol front end tying them
// together.
//
// # Architecture Overview
//
// The module is organized into layers with strict dependency ordering:
//
//	Foundation tier (no internal dependencies):
//	  - location: Source positions, spans, and canonical paths
//	  - diag: Structured diagnostics with stable subsystem/code pairs
//
//	Front-end tier:
//	  - sv/token, sv/lex, sv/ast, sv/parse: lexing and CST construction
//
//	Indexing tier:
//	  - index, index/build, index/resolve: scope/symbol tables and
//	    cross-reference resolution over a built CST
//
//	Formatter tier:
//	  - spacing, align: column measurement and arena-backed CST rewriting
//
//	Front-end-consumer tier:
//	  - lsp: workspace state, document lifecycle, and the LSP/JSON-RPC
//	    surface
//
// # Entry Points
//
// Parsing a file into a CST:
//
//	import "github.com/diplomat-hdl/diplomat/sv/parse"
//
//	collector := diag.NewCollectorUnlimited()
//	root := parse.New(source, src, collector).ParseFile()
//
// Building an index over a parsed file:
//
//	import "github.com/diplomat-hdl/diplomat/index/build"
//
//	core := index.NewCore()
//	core.SetRoot("$root")
//	file, err := core.GetOrCreateFile(path)
//	build.New(core, file, collector).Walk(*root)
//
// Running the language server:
//
//	import "github.com/diplomat-hdl/diplomat/lsp"
//
//	srv := lsp.NewServer(logger, lsp.Config{})
//	err := srv.RunStdio()
package diplomat
