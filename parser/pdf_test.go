package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// buildPDF writes an uncompressed PDF with one Helvetica text line per page
// and a correct cross-reference table.
func buildPDF(pages []string) []byte {
	n := len(pages)
	fontObj := 3 + 2*n
	objs := make([]string, 0, fontObj)

	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	objs = append(objs, "<< /Type /Catalog /Pages 2 0 R >>")
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objs = append(objs, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontObj, 4+2*i))
		objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}
	objs = append(objs, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestPDFParserPages(t *testing.T) {
	path := writeFile(t, "doc.pdf", buildPDF([]string{"First page", "Second page"}))

	res := (&PDFParser{}).Parse(context.Background(), path)
	if res.Outcome != OutcomeOK {
		t.Fatalf("Outcome = %s, err = %v", res.Outcome, res.Err)
	}
	if res.Units != 2 {
		t.Errorf("Units = %d, want 2", res.Units)
	}
	first := strings.Index(res.Text, "First page")
	second := strings.Index(res.Text, "Second page")
	if first < 0 || second < 0 || first > second {
		t.Errorf("pages missing or out of order in %q", res.Text)
	}
}

func TestPDFParserCorrupt(t *testing.T) {
	tests := map[string][]byte{
		"not a pdf": []byte("hello, this is not a PDF"),
		"truncated": buildPDF([]string{"x"})[:40],
		"empty":     nil,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			res := (&PDFParser{}).Parse(context.Background(), writeFile(t, "bad.pdf", data))
			if res.Outcome != OutcomeFailed {
				t.Fatalf("Outcome = %s, want failed", res.Outcome)
			}
			if !errors.Is(res.Err, ErrParse) {
				t.Errorf("Err = %v, want wrapped ErrParse", res.Err)
			}
		})
	}
}
