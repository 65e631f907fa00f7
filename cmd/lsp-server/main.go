// Package main provides the entry point for the diplomat SystemVerilog
// language server.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/diplomat-hdl/diplomat/config"
	"github.com/diplomat-hdl/diplomat/lsp"
)

var version = "dev"

// LevelTrace is a custom log level below debug for verbose tracing.
const LevelTrace = slog.Level(-8)

// isCleanShutdown checks if an error represents a normal client disconnect.
// LSP clients commonly close stdio on exit, which should not be reported as fatal.
func isCleanShutdown(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, os.ErrClosed) {
		return true
	}
	errStr := err.Error()
	if strings.Contains(errStr, "broken pipe") || strings.Contains(errStr, "EPIPE") {
		return true
	}
	return false
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "lsp-server: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("lsp-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		logLevel   = fs.String("log-level", "info", "log level: error|warn|info|debug|trace")
		logFile    = fs.String("log-file", "", "log file path (empty to log to stderr)")
		useTCP     = fs.Bool("tcp", false, "listen on TCP instead of stdio")
		port       = fs.Int("port", 0, "TCP port to listen on (with --tcp)")
		verbose    = fs.Bool("verbose", false, "shorthand for --log-level debug")
		showVer    = fs.Bool("version", false, "print version and exit")
		configPath = fs.String("config", "", "path to a workspace settings JSON(C) file")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lsp-server [--tcp] [--port N] [--verbose] [--config FILE]\n\n")
		fmt.Fprintf(os.Stderr, "SystemVerilog Language Server.\n\nOptions:\n")
		fs.SetOutput(os.Stderr)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		fs.Usage()
		return fmt.Errorf("parse flags: %w", err)
	}

	if *useTCP && *port == 0 {
		return errors.New("--tcp requires --port")
	}

	if *showVer {
		fmt.Printf("lsp-server %s\n", version)
		return nil
	}

	if *verbose {
		*logLevel = "debug"
	}

	logger, cleanup, err := setupLogger(*logLevel, *logFile)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer cleanup()

	logger.Info("starting lsp-server",
		slog.String("version", version),
		slog.String("log_level", *logLevel),
	)

	srv := lsp.NewServer(logger, lsp.Config{Verbose: *verbose})

	if *configPath != "" {
		if err := applySettings(srv, *configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	if *useTCP {
		addr := fmt.Sprintf("localhost:%d", *port)
		logger.Info("listening on tcp", slog.String("address", addr))
		go func() { errCh <- srv.RunTCP(addr) }()
	} else {
		logger.Info("running on stdio")
		go func() { errCh <- srv.RunStdio() }()
	}

	select {
	case err := <-errCh:
		if err != nil {
			if isCleanShutdown(err) {
				logger.Debug("client closed connection")
			} else {
				return fmt.Errorf("run server: %w", err)
			}
		}
		logger.Info("server shutdown complete")
		return nil
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", slog.String("signal", sig.String()))
		srv.Shutdown()
		if err := srv.Close(); err != nil {
			logger.Warn("error closing connection", slog.String("error", err.Error()))
		}

		if !*useTCP {
			// Close stdin to unblock RunStdio's read operation. When running
			// manually (not connected to an LSP client), Close() doesn't
			// close the underlying stdin, leaving RunStdio blocked on
			// os.Stdin.Read().
			if err := os.Stdin.Close(); err != nil {
				logger.Debug("error closing stdin", slog.String("error", err.Error()))
			}
		}

		select {
		case err := <-errCh:
			if err != nil {
				logger.Debug("server returned after close", slog.String("error", err.Error()))
			}
		case <-time.After(5 * time.Second):
			logger.Warn("shutdown timed out, forcing exit")
		}

		logger.Info("server shutdown complete")
		return nil
	}
}

// applySettings decodes a workspace settings document and applies its
// topLevel, includes, and excludedPaths to srv's workspace before the
// first build.
func applySettings(srv *lsp.Server, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	settings, err := config.Decode(data)
	if err != nil {
		return err
	}

	ws := srv.Workspace()
	if settings.TopLevel != nil {
		ws.SetTopLevel(*settings.TopLevel)
	}
	for _, inc := range settings.Includes.User {
		ws.AddInclude(inc)
	}
	for _, inc := range settings.Includes.System {
		ws.AddInclude(inc)
	}
	if len(settings.ExcludedPaths) > 0 {
		ws.Ignore(settings.ExcludedPaths)
	}
	return nil
}

func setupLogger(level, logFile string) (*slog.Logger, func(), error) {
	var slogLevel slog.Level
	switch level {
	case "error":
		slogLevel = slog.LevelError
	case "warn":
		slogLevel = slog.LevelWarn
	case "info":
		slogLevel = slog.LevelInfo
	case "debug":
		slogLevel = slog.LevelDebug
	case "trace":
		slogLevel = LevelTrace
	default:
		return nil, nil, fmt.Errorf("invalid log level: %q", level)
	}

	var w io.Writer
	var cleanup func()

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		cleanup = func() { _ = f.Close() }
	} else {
		w = os.Stderr
		cleanup = func() {}
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     slogLevel,
		AddSource: true,
	})

	return slog.New(handler), cleanup, nil
}
