package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunPrintsAggregate(t *testing.T) {
	a := writeInput(t, "a.txt", "alpha")
	b := writeInput(t, "b.txt", "beta")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{a, b}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}
	want := "\n\n=== Content from a.txt ===\nalpha\n\n=== Content from b.txt ===\nbeta\n"
	if stdout.String() != want {
		t.Errorf("stdout = %q, want %q", stdout.String(), want)
	}
}

func TestRunNothingExtracted(t *testing.T) {
	tests := map[string][]string{
		"no args":     nil,
		"missing":     {"/nonexistent/report.pdf"},
		"unsupported": {writeInput(t, "sheet.xlsx", "cells")},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), args, &stdout, &stderr); code != 0 {
				t.Fatalf("exit code = %d, want 0", code)
			}
			if stdout.String() != "\n" {
				t.Errorf("stdout = %q, want a single newline", stdout.String())
			}
		})
	}
}

func TestRunLogsToStderr(t *testing.T) {
	path := writeInput(t, "a.txt", "alpha")
	var stdout, stderr bytes.Buffer
	run(context.Background(), []string{"-log-level", "debug", path}, &stdout, &stderr)
	if !strings.Contains(stderr.String(), "extraction finished") {
		t.Errorf("expected diagnostics on stderr, got %q", stderr.String())
	}
	if strings.Contains(stdout.String(), "level=") {
		t.Error("log lines leaked into stdout")
	}
}

func TestRunConfigErrors(t *testing.T) {
	bad := writeInput(t, "bad.yaml", "extract: [not a map")

	tests := map[string][]string{
		"unreadable config": {"-config", bad, "x.txt"},
		"missing config":    {"-config", "/nonexistent/doctext.yaml", "x.txt"},
		"bad log level":     {"-log-level", "loud", "x.txt"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), args, &stdout, &stderr); code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
			if stdout.Len() != 0 {
				t.Errorf("stdout = %q, want empty", stdout.String())
			}
		})
	}
}

func TestRunInterrupted(t *testing.T) {
	path := writeInput(t, "a.txt", "alpha")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	if code := run(ctx, []string{path}, &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}
