// Package doctext extracts plain text from uploaded documents (PDF, DOC,
// DOCX, PPT, PPTX, TXT) and joins the results into one labeled blob.
//
// Usage:
//
//	engine := doctext.New(doctext.DefaultConfig(), slog.Default())
//	out, err := engine.Extract(ctx, []string{"/tmp/a.pdf", "/tmp/b.docx"})
//	fmt.Print(out.Text)
package doctext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/brunobiangulo/doctext/parser"
)

// OutcomeSkipped marks a file that was never handed to an extractor.
const OutcomeSkipped = "skipped"

// FileResult reports how a single input path was handled.
type FileResult struct {
	Path     string
	Filename string
	Format   string
	Outcome  string // ok, unavailable, failed, skipped
	Method   string
	Units    int
	Chars    int
	Text     string
	Err      error
}

// Included reports whether the file contributes a content block.
func (r FileResult) Included() bool {
	return strings.TrimSpace(r.Text) != ""
}

// Output is the aggregate of one extraction request.
type Output struct {
	Text  string
	Files []FileResult
}

// Engine routes files to the per-format extractors and assembles the
// aggregate output. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	parsers *parser.Registry
	logger  *slog.Logger
}

// New creates an Engine. A nil logger means slog.Default().
func New(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		parsers: parser.NewRegistry(parser.Options{
			LegacyDOC: cfg.Extract.LegacyDOC,
			Logger:    logger,
		}),
		logger: logger,
	}
}

// Registry exposes the parser registry, e.g. to register extra formats.
func (e *Engine) Registry() *parser.Registry { return e.parsers }

// AllowedExtensions returns the dotted extensions the engine can extract.
func (e *Engine) AllowedExtensions() []string { return e.parsers.AllowedExtensions() }

// Extract processes paths in order. Per-file failures are logged and
// recorded in the returned results; the only error is a cancelled context.
func (e *Engine) Extract(ctx context.Context, paths []string) (*Output, error) {
	out := &Output{Files: make([]FileResult, 0, len(paths))}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out.Files = append(out.Files, e.extractFile(ctx, path))
	}

	var sb strings.Builder
	for _, r := range out.Files {
		if !r.Included() {
			continue
		}
		sb.WriteString("\n\n=== Content from ")
		sb.WriteString(r.Filename)
		sb.WriteString(" ===\n")
		sb.WriteString(r.Text)
	}
	out.Text = sb.String()

	e.logger.Info("extraction finished", "files", len(paths), "chars", len(out.Text))
	return out, nil
}

// ExtractText returns the aggregate text, or ErrNoTextExtracted when no
// file produced any.
func (e *Engine) ExtractText(ctx context.Context, paths []string) (string, error) {
	out, err := e.Extract(ctx, paths)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", ErrNoTextExtracted
	}
	return out.Text, nil
}

func (e *Engine) extractFile(ctx context.Context, path string) FileResult {
	r := FileResult{
		Path:     path,
		Filename: filepath.Base(path),
		Format:   parser.FormatOf(path),
	}
	log := e.logger.With("path", path)

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		r.Outcome = OutcomeSkipped
		r.Err = ErrFileNotFound
		log.Warn("file does not exist")
		return r
	}
	log.Debug("processing file", "size", info.Size(), "format", r.Format)

	p, err := e.parsers.Get(r.Format)
	if err != nil {
		r.Outcome = OutcomeSkipped
		r.Err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
		log.Warn("unsupported file type", "ext", filepath.Ext(path))
		return r
	}

	res := safeParse(ctx, p, path)
	r.Outcome = res.Outcome.String()
	r.Method = res.Method
	r.Units = res.Units
	r.Text = res.Text
	r.Chars = len(res.Text)
	r.Err = res.Err

	switch {
	case res.Err != nil && errors.Is(res.Err, parser.ErrUnavailable):
		log.Warn("extractor unavailable", "format", r.Format, "error", res.Err)
	case res.Err != nil:
		log.Error("extraction failed", "format", r.Format, "error", res.Err, "partial_chars", r.Chars)
	}
	if r.Included() {
		log.Info("added content", "filename", r.Filename, "chars", r.Chars, "method", r.Method)
	} else {
		log.Warn("no text extracted")
	}
	return r
}

// safeParse runs a parser, converting a panic inside a parsing library
// into a failed result.
func safeParse(ctx context.Context, p parser.Parser, path string) (res *parser.ParseResult) {
	defer func() {
		if v := recover(); v != nil {
			res = &parser.ParseResult{
				Outcome: parser.OutcomeFailed,
				Err:     fmt.Errorf("%w: panic: %v", parser.ErrParse, v),
			}
		}
	}()
	res = p.Parse(ctx, path)
	if res == nil {
		res = &parser.ParseResult{Outcome: parser.OutcomeFailed, Err: fmt.Errorf("%w: no result", parser.ErrParse)}
	}
	return res
}
