package parser

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// DOCParser reads legacy Word 97-2003 binary documents.
//
// When Enabled is false the native reader is treated as unavailable and the
// file is handed to Fallback as plain text. For a real binary .doc that
// produces mostly unreadable output; it is kept as a best-effort path for
// mislabeled text files.
type DOCParser struct {
	Enabled  bool
	Fallback Parser
	Logger   *slog.Logger
}

func (p *DOCParser) SupportedFormats() []string { return []string{"doc"} }

func (p *DOCParser) Parse(ctx context.Context, path string) *ParseResult {
	if !p.Enabled {
		if p.Fallback == nil {
			return unavailable("legacy .doc reader disabled and no fallback configured")
		}
		p.logger().Warn("doc: legacy reader unavailable, reading as plain text", "path", path)
		res := p.Fallback.Parse(ctx, path)
		res.Method = "text-fallback"
		return res
	}

	f, err := os.Open(path)
	if err != nil {
		return failed("", 0, fmt.Errorf("opening DOC: %w", err))
	}
	defer f.Close()

	streams, err := readWordStreams(f)
	if err != nil {
		return failed("", 0, err)
	}

	text, pieces, err := wordText(streams.word, streams.table0, streams.table1)
	if err != nil {
		return failed(text, pieces, err)
	}
	p.logger().Debug("doc: extracted", "path", path, "pieces", pieces, "chars", len(text))
	return ok(text, pieces)
}

func (p *DOCParser) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

type wordStreams struct {
	word, table0, table1 []byte
}

func readWordStreams(ra io.ReaderAt) (*wordStreams, error) {
	doc, err := mscfb.New(ra)
	if err != nil {
		return nil, fmt.Errorf("opening compound file: %w", err)
	}

	var s wordStreams
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		// Embedded objects (ObjectPool/...) carry their own Word streams
		// under the same names; only the root ones belong to this document.
		if len(entry.Path) != 0 || entry.FileInfo().IsDir() {
			continue
		}
		var dst *[]byte
		switch entry.Name {
		case "WordDocument":
			dst = &s.word
		case "0Table":
			dst = &s.table0
		case "1Table":
			dst = &s.table1
		default:
			continue
		}
		data, err := io.ReadAll(entry)
		if err != nil {
			return nil, fmt.Errorf("reading %s stream: %w", entry.Name, err)
		}
		*dst = data
	}

	if s.word == nil {
		return nil, errors.New("WordDocument stream not found")
	}
	return &s, nil
}

const (
	wordIdent        = 0xA5EC
	fibFlagEncrypted = 0x0100
	fibFlagTable1    = 0x0200
	fibIndexClx      = 33 // fcClx/lcbClx pair in FibRgFcLcb97
	pcdCompressed    = 0x40000000
)

var errShortStream = errors.New("stream truncated")

// wordText decodes the main document text through the piece table.
// It returns the text and the number of pieces read.
func wordText(word, table0, table1 []byte) (string, int, error) {
	if len(word) < 34 || binary.LittleEndian.Uint16(word) != wordIdent {
		return "", 0, errors.New("not a Word binary document")
	}
	flags := binary.LittleEndian.Uint16(word[0x0A:])
	if flags&fibFlagEncrypted != 0 {
		return "", 0, errors.New("document is encrypted")
	}
	table := table0
	if flags&fibFlagTable1 != 0 {
		table = table1
	}
	if table == nil {
		return "", 0, errors.New("table stream not found")
	}

	// FibBase is 32 bytes, then csw + FibRgW, cslw + FibRgLw, cbRgFcLcb + FibRgFcLcb.
	off := 32
	csw, err := u16(word, off)
	if err != nil {
		return "", 0, err
	}
	off += 2 + int(csw)*2
	cslw, err := u16(word, off)
	if err != nil {
		return "", 0, err
	}
	rgLw := off + 2
	ccpText, err := u32(word, rgLw+12)
	if err != nil {
		return "", 0, err
	}
	off = rgLw + int(cslw)*4
	cbRgFcLcb, err := u16(word, off)
	if err != nil {
		return "", 0, err
	}
	if cbRgFcLcb <= fibIndexClx {
		return "", 0, errors.New("FIB has no piece table reference")
	}
	fcClx, err := u32(word, off+2+fibIndexClx*8)
	if err != nil {
		return "", 0, err
	}
	lcbClx, err := u32(word, off+2+fibIndexClx*8+4)
	if err != nil {
		return "", 0, err
	}
	if uint64(fcClx)+uint64(lcbClx) > uint64(len(table)) {
		return "", 0, fmt.Errorf("piece table: %w", errShortStream)
	}

	cps, pcds, err := parseClx(table[fcClx : fcClx+lcbClx])
	if err != nil {
		return "", 0, err
	}

	var raw strings.Builder
	for i, pcd := range pcds {
		start, end := cps[i], cps[i+1]
		if ccpText > 0 {
			if start >= ccpText {
				break
			}
			end = min(end, ccpText)
		}
		if end <= start {
			continue
		}
		s, err := decodePiece(word, pcd, int(end-start))
		if err != nil {
			return cleanWordText(raw.String()), i, fmt.Errorf("piece %d: %w", i, err)
		}
		raw.WriteString(s)
	}

	return cleanWordText(raw.String()), len(pcds), nil
}

// parseClx skips the Prc entries and returns the PlcPcd character
// positions and piece descriptors' fc values.
func parseClx(clx []byte) ([]uint32, []uint32, error) {
	i := 0
	for i < len(clx) {
		switch clx[i] {
		case 0x01:
			cb, err := u16(clx, i+1)
			if err != nil {
				return nil, nil, err
			}
			if int16(cb) < 0 {
				return nil, nil, errors.New("negative Prc size")
			}
			i += 3 + int(int16(cb))
		case 0x02:
			lcb, err := u32(clx, i+1)
			if err != nil {
				return nil, nil, err
			}
			plc := clx[i+5:]
			if uint64(lcb) > uint64(len(plc)) || lcb < 4 {
				return nil, nil, fmt.Errorf("PlcPcd: %w", errShortStream)
			}
			n := (int(lcb) - 4) / 12
			cps := make([]uint32, n+1)
			for k := range cps {
				cps[k] = binary.LittleEndian.Uint32(plc[k*4:])
			}
			pcds := make([]uint32, n)
			base := (n + 1) * 4
			for k := range pcds {
				pcds[k] = binary.LittleEndian.Uint32(plc[base+k*8+2:])
			}
			return cps, pcds, nil
		default:
			return nil, nil, fmt.Errorf("unexpected Clx entry 0x%02x", clx[i])
		}
	}
	return nil, nil, errors.New("piece table not found")
}

func decodePiece(word []byte, fc uint32, chars int) (string, error) {
	if fc&pcdCompressed != 0 {
		start := int(fc&^pcdCompressed) / 2
		if start+chars > len(word) {
			return "", errShortStream
		}
		return charmap.Windows1252.NewDecoder().String(string(word[start : start+chars]))
	}
	start := int(fc)
	if start+chars*2 > len(word) {
		return "", errShortStream
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	return dec.String(string(word[start : start+chars*2]))
}

// cleanWordText maps Word control characters to plain text and drops
// field instructions, keeping field results.
func cleanWordText(s string) string {
	var b strings.Builder
	var fields []bool // true once a field has reached its result part
	for _, r := range s {
		switch r {
		case 0x13:
			fields = append(fields, false)
			continue
		case 0x14:
			if len(fields) > 0 {
				fields[len(fields)-1] = true
			}
			continue
		case 0x15:
			if len(fields) > 0 {
				fields = fields[:len(fields)-1]
			}
			continue
		}
		if inFieldCode(fields) {
			continue
		}
		switch {
		case r == '\r' || r == 0x0B || r == 0x0C:
			b.WriteByte('\n')
		case r == 0x07:
			b.WriteByte('\t')
		case r == 0x1E:
			b.WriteByte('-')
		case r == '\t' || r == '\n':
			b.WriteRune(r)
		case r < 0x20:
			// object anchors, footnote marks, optional hyphens
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func inFieldCode(fields []bool) bool {
	for _, result := range fields {
		if !result {
			return true
		}
	}
	return false
}

func u16(b []byte, off int) (uint16, error) {
	if off < 0 || off+2 > len(b) {
		return 0, errShortStream
	}
	return binary.LittleEndian.Uint16(b[off:]), nil
}

func u32(b []byte, off int) (uint32, error) {
	if off < 0 || off+4 > len(b) {
		return 0, errShortStream
	}
	return binary.LittleEndian.Uint32(b[off:]), nil
}
