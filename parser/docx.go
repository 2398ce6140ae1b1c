package parser

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type DOCXParser struct{}

func (p *DOCXParser) SupportedFormats() []string { return []string{"docx"} }

func (p *DOCXParser) Parse(ctx context.Context, path string) *ParseResult {
	pkg, err := openPackage(path)
	if err != nil {
		return failed("", 0, fmt.Errorf("opening DOCX: %w", err))
	}
	defer pkg.Close()

	data, err := pkg.read("word/document.xml")
	if err != nil {
		return failed("", 0, err)
	}

	paras, err := docxParagraphs(data)
	if err != nil {
		return failed("", 0, fmt.Errorf("parsing DOCX XML: %w", err))
	}

	kept := paras[:0]
	for _, para := range paras {
		if strings.TrimSpace(para) != "" {
			kept = append(kept, para)
		}
	}
	return ok(strings.Join(kept, "\n"), len(paras))
}

// docxParagraphs returns the text of every body-level paragraph in
// document order. Tables, text boxes and drawings are not descended into.
func docxParagraphs(data []byte) ([]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var (
		paras  []string
		stack  []string
		para   strings.Builder
		inPara bool
		hidden int // depth inside drawings, text boxes and alternate content
	)

	parent := func() string {
		if len(stack) == 0 {
			return ""
		}
		return stack[len(stack)-1]
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch {
			case name == "p" && parent() == "body":
				inPara = true
				para.Reset()
			case isDocxHiddenContainer(name):
				hidden++
			case inPara && hidden == 0 && parent() == "r":
				switch name {
				case "tab":
					para.WriteByte('\t')
				case "br", "cr":
					para.WriteByte('\n')
				}
			}
			stack = append(stack, name)

		case xml.CharData:
			if inPara && hidden == 0 && parent() == "t" && len(stack) >= 2 && stack[len(stack)-2] == "r" {
				para.Write(t)
			}

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			name := t.Name.Local
			switch {
			case name == "p" && inPara && parent() == "body":
				paras = append(paras, para.String())
				inPara = false
			case isDocxHiddenContainer(name):
				hidden--
			}
		}
	}

	return paras, nil
}

func isDocxHiddenContainer(name string) bool {
	switch name {
	case "drawing", "pict", "txbxContent", "AlternateContent", "object":
		return true
	}
	return false
}
