package parser

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is reported when a parsing capability is not present
	// or has been switched off.
	ErrUnavailable = errors.New("parser: capability unavailable")

	// ErrParse is reported when a file cannot be decoded (corrupt file,
	// unsupported internal structure).
	ErrParse = errors.New("parser: parse failed")

	// ErrNoParser is returned by Registry.Get for an unknown format.
	ErrNoParser = errors.New("parser: no parser for format")
)

// Outcome classifies how a single extraction ended.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeUnavailable
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ParseResult is what a parser produces from a document file.
// Text may be non-empty on OutcomeFailed when a multi-unit format
// (pages, slides) failed part way through.
type ParseResult struct {
	Text    string
	Outcome Outcome
	Err     error
	Units   int    // pages, paragraphs or slides visited
	Method  string // "native", "text-fallback"
}

// Parser extracts plain text from a specific document format.
// Parse never returns nil and never aborts the caller: failures are
// reported through the result outcome.
type Parser interface {
	Parse(ctx context.Context, path string) *ParseResult
	SupportedFormats() []string
}

func ok(text string, units int) *ParseResult {
	return &ParseResult{Text: text, Outcome: OutcomeOK, Units: units, Method: "native"}
}

func failed(partial string, units int, err error) *ParseResult {
	return &ParseResult{
		Text:    partial,
		Outcome: OutcomeFailed,
		Err:     fmt.Errorf("%w: %w", ErrParse, err),
		Units:   units,
		Method:  "native",
	}
}

func unavailable(what string) *ParseResult {
	return &ParseResult{
		Outcome: OutcomeUnavailable,
		Err:     fmt.Errorf("%w: %s", ErrUnavailable, what),
	}
}
