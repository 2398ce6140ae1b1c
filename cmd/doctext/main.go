// Command doctext extracts text from local documents and prints the
// combined result to stdout.
//
// Usage:
//
//	doctext [-config file] [-log-level level] <path>...
//
// Every file gets a "=== Content from <name> ===" block. Files that yield
// no text are left out; diagnostics go to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/brunobiangulo/doctext"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("doctext", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file (YAML or JSON)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: doctext [-config file] [-log-level level] <path>...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg := doctext.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = doctext.LoadConfig(*configPath); err != nil {
			fmt.Fprintf(stderr, "doctext: %v\n", err)
			return 1
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(stderr, "doctext: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "doctext: %v\n", err)
		return 1
	}

	level, _ := doctext.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	paths := fs.Args()
	if len(paths) == 0 {
		logger.Warn("no files given")
		fmt.Fprintln(stdout)
		return 0
	}

	engine := doctext.New(cfg, logger)
	out, err := engine.Extract(ctx, paths)
	if err != nil {
		logger.Error("extraction interrupted", "error", err)
		return 1
	}
	for _, r := range out.Files {
		if r.Err != nil {
			logger.Debug("file not included", "path", r.Path, "outcome", r.Outcome, "error", r.Err)
		}
	}

	fmt.Fprintln(stdout, out.Text)
	return 0
}
