package parser

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
)

// PPTXParser handles OOXML slide decks. Legacy binary .ppt files are routed
// here too; they are not zip packages and fail to open.
type PPTXParser struct {
	Logger *slog.Logger
}

func (p *PPTXParser) SupportedFormats() []string { return []string{"pptx", "ppt"} }

func (p *PPTXParser) Parse(ctx context.Context, path string) *ParseResult {
	pkg, err := openPackage(path)
	if err != nil {
		return failed("", 0, fmt.Errorf("opening PPTX: %w", err))
	}
	defer pkg.Close()

	slides := slideOrder(pkg)

	var (
		blocks []string
		errs   []error
	)
	for i, name := range slides {
		data, err := pkg.read(name)
		if err != nil {
			p.logger().Warn("pptx: skipping slide", "path", path, "slide", i+1, "error", err)
			errs = append(errs, err)
			continue
		}
		texts, err := slideShapeTexts(data)
		if err != nil {
			p.logger().Warn("pptx: skipping slide", "path", path, "slide", i+1, "error", err)
			errs = append(errs, fmt.Errorf("slide %d: %w", i+1, err))
			continue
		}
		if len(texts) == 0 {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("Slide %d:\n%s", i+1, strings.Join(texts, "\n")))
	}

	text := strings.Join(blocks, "\n\n")
	p.logger().Debug("pptx: extracted", "path", path, "slides", len(slides), "chars", len(text))
	if len(errs) > 0 {
		return failed(text, len(slides), errors.Join(errs...))
	}
	return ok(text, len(slides))
}

func (p *PPTXParser) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

type pptxPresentation struct {
	SldIDs []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

// slideOrder returns slide part names in presentation order, falling back
// to the numeric order of ppt/slides/slideN.xml when the presentation part
// cannot be resolved.
func slideOrder(pkg *ooxmlPackage) []string {
	if data, err := pkg.read("ppt/presentation.xml"); err == nil {
		var pres pptxPresentation
		rels := pkg.rels("ppt/_rels/presentation.xml.rels", "ppt")
		if xml.Unmarshal(data, &pres) == nil && rels != nil {
			var names []string
			for _, id := range pres.SldIDs {
				if name, ok := rels[id.RID]; ok && pkg.files[name] != nil {
					names = append(names, name)
				}
			}
			if len(names) > 0 {
				return names
			}
		}
	}

	// Collect slide files (ppt/slides/slide1.xml, slide2.xml, ...)
	nums := make(map[int]string)
	for name := range pkg.files {
		if strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml") {
			if num := extractSlideNumber(name); num > 0 {
				nums[num] = name
			}
		}
	}
	keys := make([]int, 0, len(nums))
	for n := range nums {
		keys = append(keys, n)
	}
	sort.Ints(keys)

	names := make([]string, 0, len(keys))
	for _, n := range keys {
		names = append(names, nums[n])
	}
	return names
}

// slideShapeTexts returns the text of every shape with a text body, in
// shape tree order. Paragraphs inside a shape are joined by newlines and
// whitespace-only shapes are dropped. Shapes nested in group shapes are
// included. Of an mc:AlternateContent block only the mc:Fallback branch is
// read, so a shape is never counted twice.
func slideShapeTexts(data []byte) ([]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var (
		texts   []string
		stack   []string
		inShape bool
		paras   []string
		para    strings.Builder
		inPara  bool
		skip    int // open elements inside a skipped mc:Choice
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
			if skip > 0 || (t.Name.Local == "Choice" && parent() == "AlternateContent") {
				skip++
				stack = append(stack, t.Name.Local)
				continue
			}
			switch name := t.Name.Local; {
			case name == "sp":
				inShape = true
				paras = paras[:0]
			case name == "p" && inShape && parent() == "txBody":
				inPara = true
				para.Reset()
			case name == "br" && inPara:
				para.WriteByte('\n')
			}
			stack = append(stack, t.Name.Local)

		case xml.CharData:
			if skip == 0 && inPara && parent() == "t" {
				para.Write(t)
			}

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if skip > 0 {
				skip--
				continue
			}
			switch t.Name.Local {
			case "p":
				if inPara && parent() == "txBody" {
					paras = append(paras, para.String())
					inPara = false
				}
			case "sp":
				if inShape {
					// Empty placeholders are dropped so a slide holding only
					// them gets no "Slide n:" block.
					if text := strings.Join(paras, "\n"); strings.TrimSpace(text) != "" {
						texts = append(texts, text)
					}
					inShape = false
				}
			}
		}
	}

	return texts, nil
}

func extractSlideNumber(name string) int {
	// Extract number from "ppt/slides/slide1.xml"
	name = strings.TrimPrefix(name, "ppt/slides/slide")
	name = strings.TrimSuffix(name, ".xml")
	var num int
	fmt.Sscanf(name, "%d", &num)
	return num
}
