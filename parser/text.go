package parser

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// TextParser handles plain text (.txt) files.
type TextParser struct{}

func (p *TextParser) SupportedFormats() []string { return []string{"txt"} }

func (p *TextParser) Parse(ctx context.Context, path string) *ParseResult {
	text, err := readText(path)
	if err != nil {
		return failed("", 0, err)
	}
	return ok(text, 1)
}

// readText decodes a file as UTF-8, honouring a UTF-8 or UTF-16 BOM.
// Invalid byte sequences become U+FFFD instead of failing the read.
func readText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}
	defer f.Close()

	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(f, dec))
	if err != nil {
		return "", fmt.Errorf("decoding text file: %w", err)
	}
	return string(data), nil
}
