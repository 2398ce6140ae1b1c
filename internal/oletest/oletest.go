// Package oletest builds small OLE compound files and Word 97 document
// streams for tests. Every stream is padded to the 4096-byte mini stream
// cutoff so the files need no mini FAT.
package oletest

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

const (
	sectorSize    = 512
	miniCutoff    = 4096
	entriesPerFAT = sectorSize / 4

	noStream   = 0xFFFFFFFF
	freeSect   = 0xFFFFFFFF
	endOfChain = 0xFFFFFFFE
	fatSect    = 0xFFFFFFFD

	typeStorage = 1
	typeStream  = 2
	typeRoot    = 5
)

// Entry is a stream (Data set) or a storage (Data nil) in a compound file.
type Entry struct {
	Name     string
	Data     []byte
	Children []Entry
}

func Stream(name string, data []byte) Entry { return Entry{Name: name, Data: data} }

func Storage(name string, children ...Entry) Entry {
	return Entry{Name: name, Children: children}
}

type dirEntry struct {
	name  string
	typ   byte
	data  []byte
	left  uint32
	right uint32
	child uint32
	start uint32
	size  uint32
}

// CompoundFile lays out a version 3 compound file holding entries under
// the root storage. Siblings are chained through their right pointers in
// the order given.
func CompoundFile(entries ...Entry) []byte {
	root := &dirEntry{name: "Root Entry", typ: typeRoot, left: noStream, right: noStream, start: endOfChain}
	dir := []*dirEntry{root}

	var add func([]Entry) uint32
	add = func(list []Entry) uint32 {
		first := uint32(noStream)
		var prev *dirEntry
		for _, e := range list {
			d := &dirEntry{name: e.Name, typ: typeStream, data: e.Data, left: noStream, right: noStream, child: noStream}
			if e.Data == nil {
				d.typ = typeStorage
			}
			idx := uint32(len(dir))
			dir = append(dir, d)
			if prev == nil {
				first = idx
			} else {
				prev.right = idx
			}
			prev = d
			if d.typ == typeStorage {
				d.child = add(e.Children)
			}
		}
		return first
	}
	root.child = add(entries)

	fat := make([]uint32, entriesPerFAT)
	for i := range fat {
		fat[i] = freeSect
	}
	fat[0] = fatSect
	next := uint32(1)
	chain := func(n uint32) uint32 {
		start := next
		for i := uint32(0); i < n; i++ {
			fat[next+i] = next + i + 1
		}
		fat[next+n-1] = endOfChain
		next += n
		return start
	}

	dirSectors := uint32(len(dir)+3) / 4
	dirStart := chain(dirSectors)

	var body []byte
	for _, d := range dir {
		if d.typ != typeStream {
			continue
		}
		data := d.data
		if len(data) < miniCutoff {
			data = append(append([]byte(nil), data...), make([]byte, miniCutoff-len(data))...)
		}
		d.size = uint32(len(data))
		n := (d.size + sectorSize - 1) / sectorSize
		if next+n > entriesPerFAT {
			panic(fmt.Sprintf("oletest: %d sectors do not fit one FAT sector", next+n))
		}
		d.start = chain(n)
		body = append(body, data...)
		body = append(body, make([]byte, int(n*sectorSize)-len(data))...)
	}

	out := make([]byte, sectorSize*(2+int(dirSectors)))
	hdr := out[:sectorSize]
	copy(hdr, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	binary.LittleEndian.PutUint16(hdr[24:], 0x003E)
	binary.LittleEndian.PutUint16(hdr[26:], 3)
	binary.LittleEndian.PutUint16(hdr[28:], 0xFFFE)
	binary.LittleEndian.PutUint16(hdr[30:], 9)
	binary.LittleEndian.PutUint16(hdr[32:], 6)
	binary.LittleEndian.PutUint32(hdr[44:], 1) // FAT sectors
	binary.LittleEndian.PutUint32(hdr[48:], dirStart)
	binary.LittleEndian.PutUint32(hdr[56:], miniCutoff)
	binary.LittleEndian.PutUint32(hdr[60:], endOfChain)
	binary.LittleEndian.PutUint32(hdr[68:], endOfChain)
	for i := 76; i < sectorSize; i += 4 {
		binary.LittleEndian.PutUint32(hdr[i:], freeSect)
	}
	binary.LittleEndian.PutUint32(hdr[76:], 0) // DIFAT[0]: the FAT is sector 0

	fatBuf := out[sectorSize : 2*sectorSize]
	for i, v := range fat {
		binary.LittleEndian.PutUint32(fatBuf[i*4:], v)
	}

	dirBuf := out[2*sectorSize:]
	for i, d := range dir {
		b := dirBuf[i*128 : (i+1)*128]
		units := utf16.Encode([]rune(d.name))
		for k, u := range units {
			binary.LittleEndian.PutUint16(b[k*2:], u)
		}
		binary.LittleEndian.PutUint16(b[64:], uint16((len(units)+1)*2))
		b[66] = d.typ
		b[67] = 1 // black
		binary.LittleEndian.PutUint32(b[68:], d.left)
		binary.LittleEndian.PutUint32(b[72:], d.right)
		binary.LittleEndian.PutUint32(b[76:], d.child)
		binary.LittleEndian.PutUint32(b[116:], d.start)
		binary.LittleEndian.PutUint32(b[120:], d.size)
	}

	return append(out, body...)
}

// Piece is one run of text in the Word piece table. Compressed pieces are
// stored as single bytes (cp1252), the rest as UTF-16LE.
type Piece struct {
	Text       string
	Compressed bool
}

// Word 97 FIB layout used by WordStreams.
const (
	WordIdent       = 0xA5EC
	FlagTable1      = 0x0200
	FlagEncrypted   = 0x0100
	FlagsOffset     = 0x0A
	ClxIndex        = 33
	PieceCompressed = 0x40000000
)

// WordStreams lays out a minimal Word 97 FIB followed by the piece text in
// the WordDocument stream, and a Clx in the 1Table stream. A ccpText of 0
// leaves the main document length unset.
func WordStreams(pieces []Piece, ccpText int) (word, table []byte) {
	const textStart = 1024
	word = make([]byte, textStart)
	binary.LittleEndian.PutUint16(word[0:], WordIdent)
	binary.LittleEndian.PutUint16(word[FlagsOffset:], FlagTable1)
	binary.LittleEndian.PutUint16(word[32:], 14) // csw
	rgLwStart := 34 + 14*2
	binary.LittleEndian.PutUint16(word[rgLwStart:], 22) // cslw
	binary.LittleEndian.PutUint32(word[rgLwStart+2+12:], uint32(ccpText))
	fcLcbStart := rgLwStart + 2 + 22*4
	binary.LittleEndian.PutUint16(word[fcLcbStart:], 0x5D)

	var cps, fcs []uint32
	cp := uint32(0)
	for _, p := range pieces {
		cps = append(cps, cp)
		offset := len(word)
		if p.Compressed {
			word = append(word, []byte(p.Text)...)
			fcs = append(fcs, uint32(offset*2)|PieceCompressed)
			cp += uint32(len(p.Text))
		} else {
			units := utf16.Encode([]rune(p.Text))
			for _, u := range units {
				word = binary.LittleEndian.AppendUint16(word, u)
			}
			fcs = append(fcs, uint32(offset))
			cp += uint32(len(units))
		}
	}
	cps = append(cps, cp)

	// A Prc entry first, so readers have to skip it.
	table = []byte{0x01, 0x02, 0x00, 0xAA, 0xBB}
	table = append(table, 0x02)
	table = binary.LittleEndian.AppendUint32(table, uint32(len(cps)*4+len(fcs)*8))
	for _, c := range cps {
		table = binary.LittleEndian.AppendUint32(table, c)
	}
	for _, fc := range fcs {
		table = binary.LittleEndian.AppendUint16(table, 0)
		table = binary.LittleEndian.AppendUint32(table, fc)
		table = binary.LittleEndian.AppendUint16(table, 0)
	}

	clxOff := fcLcbStart + 2 + ClxIndex*8
	binary.LittleEndian.PutUint32(word[clxOff:], 0)
	binary.LittleEndian.PutUint32(word[clxOff+4:], uint32(len(table)))
	return word, table
}

// WordDocument returns a complete .doc file whose body is text, stored as
// a single UTF-16 piece.
func WordDocument(text string) []byte {
	word, table := WordStreams([]Piece{{Text: text}}, 0)
	return CompoundFile(Stream("WordDocument", word), Stream("1Table", table))
}
