package parser

import (
	"context"
	"errors"
	"testing"
)

func docxDocument(body string) map[string]string {
	return map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
            xmlns:wps="http://schemas.microsoft.com/office/word/2010/wordprocessingShape">
  <w:body>` + body + `</w:body>
</w:document>`,
	}
}

func TestDOCXParagraphs(t *testing.T) {
	body := `
    <w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Chapter One</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Hello </w:t></w:r><w:r><w:t>world.</w:t></w:r></w:p>
    <w:p><w:r><w:t>   </w:t></w:r></w:p>
    <w:p/>
    <w:p><w:r><w:t>Name</w:t><w:tab/><w:t>Value</w:t></w:r></w:p>
    <w:p><w:r><w:t>first</w:t><w:br/><w:t>second</w:t></w:r></w:p>
    <w:p><w:hyperlink><w:r><w:t>linked</w:t></w:r></w:hyperlink></w:p>
    <w:sectPr/>`

	res := (&DOCXParser{}).Parse(context.Background(), writeZip(t, "doc.docx", docxDocument(body)))
	if res.Outcome != OutcomeOK {
		t.Fatalf("Outcome = %s, err = %v", res.Outcome, res.Err)
	}
	want := "Chapter One\nHello world.\nName\tValue\nfirst\nsecond\nlinked"
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
	if res.Units != 7 {
		t.Errorf("Units = %d, want 7 body paragraphs", res.Units)
	}
}

func TestDOCXSkipsNestedContent(t *testing.T) {
	body := `
    <w:p><w:r><w:t>before</w:t></w:r></w:p>
    <w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
    <w:p><w:r><w:t>anchor</w:t></w:r><w:r><w:drawing><wps:txbx><w:txbxContent>
      <w:p><w:r><w:t>boxed</w:t></w:r></w:p>
    </w:txbxContent></wps:txbx></w:drawing></w:r></w:p>
    <w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:t>after</w:t></w:r></w:p>`

	res := (&DOCXParser{}).Parse(context.Background(), writeZip(t, "doc.docx", docxDocument(body)))
	want := "before\nanchor\nafter"
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
}

func TestDOCXFailures(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"not a zip", func(t *testing.T) string { return writeFile(t, "bad.docx", []byte("plain text")) }},
		{"missing document part", func(t *testing.T) string {
			return writeZip(t, "empty.docx", map[string]string{"word/styles.xml": "<w:styles/>"})
		}},
		{"malformed xml", func(t *testing.T) string {
			return writeZip(t, "broken.docx", map[string]string{"word/document.xml": "<w:document><w:body><w:p>"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := (&DOCXParser{}).Parse(context.Background(), tt.path(t))
			if res.Outcome != OutcomeFailed {
				t.Fatalf("Outcome = %s, want failed", res.Outcome)
			}
			if !errors.Is(res.Err, ErrParse) {
				t.Errorf("Err = %v, want wrapped ErrParse", res.Err)
			}
			if res.Text != "" {
				t.Errorf("Text = %q, want empty", res.Text)
			}
		})
	}
}
