package parser

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
)

// Options configures the built-in parsers.
type Options struct {
	// LegacyDOC enables the native Word 97-2003 reader. When false, .doc
	// files are read as plain text.
	LegacyDOC bool

	Logger *slog.Logger
}

type Registry struct {
	parsers map[string]Parser
}

func NewRegistry(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{parsers: make(map[string]Parser)}
	// Register built-in parsers
	text := &TextParser{}
	pdf := &PDFParser{Logger: logger}
	docx := &DOCXParser{}
	doc := &DOCParser{Enabled: opts.LegacyDOC, Fallback: text, Logger: logger}
	pptx := &PPTXParser{Logger: logger}

	for _, p := range []Parser{text, pdf, docx, doc, pptx} {
		for _, f := range p.SupportedFormats() {
			r.parsers[f] = p
		}
	}
	return r
}

func (r *Registry) Get(format string) (Parser, error) {
	p, ok := r.parsers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoParser, format)
	}
	return p, nil
}

func (r *Registry) Register(format string, p Parser) {
	r.parsers[format] = p
}

// AllowedExtensions returns the dotted, sorted extensions the registry
// can handle.
func (r *Registry) AllowedExtensions() []string {
	exts := make([]string, 0, len(r.parsers))
	for f := range r.parsers {
		exts = append(exts, "."+f)
	}
	sort.Strings(exts)
	return exts
}

// FormatOf returns the lowercase extension of path without the dot.
func FormatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
