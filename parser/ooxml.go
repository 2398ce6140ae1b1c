package parser

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// ooxmlPackage is an opened Office Open XML container (.docx, .pptx).
type ooxmlPackage struct {
	r     *zip.ReadCloser
	files map[string]*zip.File
}

func openPackage(p string) (*ooxmlPackage, error) {
	r, err := zip.OpenReader(p)
	if err != nil {
		return nil, err
	}
	// Build file index for quick lookup
	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		files[f.Name] = f
	}
	return &ooxmlPackage{r: r, files: files}, nil
}

func (pkg *ooxmlPackage) Close() error { return pkg.r.Close() }

// read returns the contents of a part, or an error if it is missing.
func (pkg *ooxmlPackage) read(name string) ([]byte, error) {
	f := pkg.files[name]
	if f == nil {
		return nil, fmt.Errorf("%s not found in package", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// rels reads a .rels part and returns rId -> resolved part name. Targets
// are resolved relative to the directory of the source part.
func (pkg *ooxmlPackage) rels(relsName, sourceDir string) map[string]string {
	data, err := pkg.read(relsName)
	if err != nil {
		return nil
	}

	var rels ooxmlRelationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil
	}

	result := make(map[string]string, len(rels.Rels))
	for _, rel := range rels.Rels {
		target := rel.Target
		if strings.HasPrefix(target, "/") {
			target = strings.TrimPrefix(target, "/")
		} else {
			target = path.Join(sourceDir, target)
		}
		result[rel.ID] = target
	}
	return result
}

// ooxmlRelationships represents the .rels XML structure.
type ooxmlRelationships struct {
	XMLName xml.Name            `xml:"Relationships"`
	Rels    []ooxmlRelationship `xml:"Relationship"`
}

type ooxmlRelationship struct {
	ID     string `xml:"Id,attr"`
	Target string `xml:"Target,attr"`
	Type   string `xml:"Type,attr"`
}
