// Package main provides the standalone CST dumper: given one SystemVerilog
// file, it prints the parsed syntax tree to stdout for inspection.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/diplomat-hdl/diplomat/diag"
	"github.com/diplomat-hdl/diplomat/location"
	"github.com/diplomat-hdl/diplomat/sv/ast"
	"github.com/diplomat-hdl/diplomat/sv/parse"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ast-print", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ast-print <file>\n")
	}

	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 1
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}
	path := fs.Arg(0)

	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "ast-print: %v\n", err)
		return 1
	}

	source, err := location.SourceIDFromAbsolutePath(path)
	if err != nil {
		source = location.MustNewSourceID(path)
	}

	collector := diag.NewCollectorUnlimited()
	p := parse.New(source, string(content), collector)
	root := p.ParseFile()
	result := collector.Result()

	for _, msg := range result.Messages() {
		fmt.Fprintf(stderr, "ast-print: %s\n", msg)
	}

	if root == nil || result.HasErrors() {
		fmt.Fprintf(stderr, "ast-print: %s: parse failed\n", path)
		return 1
	}

	printNode(stdout, *root, 0)
	return 0
}

func printNode(w io.Writer, n ast.Node, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}

	rng := n.Range()
	loc := fmt.Sprintf("%d:%d-%d:%d", rng.Start.Line, rng.Start.Column, rng.End.Line, rng.End.Column)

	if name := n.Name(); name != "" {
		fmt.Fprintf(w, "%s%s %q [%s]\n", indent, n.Kind(), name, loc)
	} else {
		fmt.Fprintf(w, "%s%s [%s]\n", indent, n.Kind(), loc)
	}

	for _, tok := range n.Tokens() {
		fmt.Fprintf(w, "%s  token %q\n", indent, tok.Text)
	}
	for _, c := range n.Children() {
		printNode(w, c, depth+1)
	}
}
