// Package main provides the standalone aligning pretty-printer: given one
// SystemVerilog file, it emits the column-aligned formatted text to stdout.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/diplomat-hdl/diplomat/align"
	"github.com/diplomat-hdl/diplomat/diag"
	"github.com/diplomat-hdl/diplomat/location"
	"github.com/diplomat-hdl/diplomat/sv/parse"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("formatter", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		useTabs = fs.Bool("use-tabs", false, "indent with tabs instead of spaces")
		spacing = fs.Int("spacing", 2, "spaces per indent level")
		debug   = fs.Bool("debug", false, "log parse diagnostics to stderr")
	)

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: formatter [--use-tabs] [--spacing N] [--debug] <file>\n\nOptions:\n")
		fs.SetOutput(stderr)
		fs.PrintDefaults()
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
		fmt.Fprintf(stderr, "formatter: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	source, err := location.SourceIDFromAbsolutePath(path)
	if err != nil {
		source = location.MustNewSourceID(path)
	}

	collector := diag.NewCollectorUnlimited()
	p := parse.New(source, string(content), collector)
	root := p.ParseFile()
	result := collector.Result()

	if *debug {
		for _, msg := range result.Messages() {
			logger.Info("parse diagnostic", slog.String("message", msg))
		}
	}

	if root == nil || result.HasErrors() {
		fmt.Fprintf(stderr, "formatter: %s: parse failed (%d diagnostics)\n", path, result.Len())
		return 1
	}

	opts := align.Options{SpacePerLevel: *spacing, UseTabs: *useTabs}
	orig := align.CollectLeadingLengths(*root)
	formatted := align.Format(*root, opts)
	out := align.Render(string(content), orig, formatted)

	fmt.Fprint(stdout, out)
	return 0
}
