package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

type PDFParser struct {
	Logger *slog.Logger
}

func (p *PDFParser) SupportedFormats() []string { return []string{"pdf"} }

func (p *PDFParser) Parse(ctx context.Context, path string) (res *ParseResult) {
	// The pdf package panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			res = failed("", 0, fmt.Errorf("opening PDF: %v", r))
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return failed("", 0, fmt.Errorf("opening PDF: %w", err))
	}
	defer f.Close()

	totalPages := reader.NumPage()
	p.logger().Debug("pdf: opened", "path", path, "pages", totalPages)

	parts := make([]string, 0, totalPages)
	for i := 1; i <= totalPages; i++ {
		text, err := pageText(reader, i)
		if err != nil {
			p.logger().Warn("pdf: skipping page", "path", path, "page", i, "error", err)
			continue
		}
		p.logger().Debug("pdf: page extracted", "page", i, "chars", len(text))
		parts = append(parts, text)
	}

	return ok(strings.Join(parts, "\n"), totalPages)
}

// pageText extracts one page, converting a library panic into an error so
// the remaining pages still contribute.
func pageText(reader *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", num, r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (p *PDFParser) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
