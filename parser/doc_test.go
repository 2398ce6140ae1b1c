package parser

import (
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/brunobiangulo/doctext/internal/oletest"
)

func TestWordTextPieces(t *testing.T) {
	pieces := []oletest.Piece{
		{Text: "Hello\rWorld \x13 HYPERLINK \"x\" \x14link\x15\r", Compressed: true},
		{Text: "Ünïcødé – text\r"},
		{Text: "Caf\xe9\a", Compressed: true},
	}
	word, table := oletest.WordStreams(pieces, 0)

	got, n, err := wordText(word, nil, table)
	if err != nil {
		t.Fatalf("wordText: %v", err)
	}
	if n != 3 {
		t.Errorf("pieces = %d, want 3", n)
	}
	want := "Hello\nWorld link\nÜnïcødé – text\nCafé\t"
	if got != want {
		t.Errorf("wordText = %q, want %q", got, want)
	}
}

func TestWordTextStopsAtMainDocument(t *testing.T) {
	pieces := []oletest.Piece{
		{Text: "Body text\r", Compressed: true},
		{Text: "Footnote text\r", Compressed: true},
	}
	word, table := oletest.WordStreams(pieces, len("Body text\r"))

	got, _, err := wordText(word, nil, table)
	if err != nil {
		t.Fatalf("wordText: %v", err)
	}
	if got != "Body text" {
		t.Errorf("wordText = %q, want %q", got, "Body text")
	}
}

func TestWordTextRejects(t *testing.T) {
	word, table := oletest.WordStreams([]oletest.Piece{{Text: "x", Compressed: true}}, 0)

	encrypted := append([]byte(nil), word...)
	binary.LittleEndian.PutUint16(encrypted[0x0A:], fibFlagTable1|fibFlagEncrypted)

	tests := []struct {
		name         string
		word, t0, t1 []byte
	}{
		{"bad magic", []byte("not a word document at all, really not"), nil, table},
		{"encrypted", encrypted, nil, table},
		{"missing table stream", word, table, nil},
		{"truncated table", word, nil, table[:8]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := wordText(tt.word, tt.t0, tt.t1); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCleanWordText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a\rb\x0bc\x0cd", "a\nb\nc\nd"},
		{"cell\acell\a\a", "cell\tcell\t\t"},
		{"\x13 PAGE \x143\x15 of \x13 NUMPAGES \x14 9\x15", "3 of  9"},
		{"\x13 outer \x13 inner \x14x\x15 \x14result\x15", "result"},
		{"non\x1ebreaking soft\x1fhyphen\x01", "non-breaking softhyphen"},
		{"trailing\r\r", "trailing"},
	}
	for _, tt := range tests {
		if got := cleanWordText(tt.in); got != tt.want {
			t.Errorf("cleanWordText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDOCParserNotCompoundFile(t *testing.T) {
	path := writeFile(t, "fake.doc", []byte("just some text pretending to be a doc"))

	res := (&DOCParser{Enabled: true, Fallback: &TextParser{}}).Parse(context.Background(), path)
	if res.Outcome != OutcomeFailed {
		t.Fatalf("Outcome = %s, want failed", res.Outcome)
	}
	if !errors.Is(res.Err, ErrParse) {
		t.Errorf("Err = %v, want wrapped ErrParse", res.Err)
	}
	if res.Text != "" {
		t.Errorf("a parse failure must not fall back to text, got %q", res.Text)
	}
}

func TestDOCParserFallbackWhenUnavailable(t *testing.T) {
	path := writeFile(t, "notes.doc", []byte("plain words"))

	res := (&DOCParser{Enabled: false, Fallback: &TextParser{}}).Parse(context.Background(), path)
	if res.Outcome != OutcomeOK {
		t.Fatalf("Outcome = %s, err = %v", res.Outcome, res.Err)
	}
	if res.Text != "plain words" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Method != "text-fallback" {
		t.Errorf("Method = %q, want text-fallback", res.Method)
	}
}

func TestDOCParserUnavailableWithoutFallback(t *testing.T) {
	path := writeFile(t, "notes.doc", []byte("plain words"))

	res := (&DOCParser{}).Parse(context.Background(), path)
	if res.Outcome != OutcomeUnavailable {
		t.Fatalf("Outcome = %s, want unavailable", res.Outcome)
	}
	if !errors.Is(res.Err, ErrUnavailable) {
		t.Errorf("Err = %v, want wrapped ErrUnavailable", res.Err)
	}
}

func TestDOCParserNative(t *testing.T) {
	path := writeFile(t, "report.doc", oletest.WordDocument("Quarterly report\r\x13 PAGE \x141\x15 Revenue grew.\r"))

	res := (&DOCParser{Enabled: true, Fallback: &TextParser{}}).Parse(context.Background(), path)
	if res.Outcome != OutcomeOK {
		t.Fatalf("Outcome = %s, err = %v", res.Outcome, res.Err)
	}
	if want := "Quarterly report\n1 Revenue grew."; res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
	if res.Method != "native" || res.Units != 1 {
		t.Errorf("Method = %q, Units = %d", res.Method, res.Units)
	}
}

func TestDOCParserIgnoresEmbeddedDocuments(t *testing.T) {
	word, table := oletest.WordStreams([]oletest.Piece{{Text: "OUTER MAIN TEXT BODY", Compressed: true}}, 0)
	innerWord, innerTable := oletest.WordStreams([]oletest.Piece{{Text: "inner", Compressed: true}}, 0)
	embedded := oletest.Storage("ObjectPool",
		oletest.Storage("_1", oletest.Stream("WordDocument", innerWord), oletest.Stream("1Table", innerTable)))
	outer := []oletest.Entry{oletest.Stream("WordDocument", word), oletest.Stream("1Table", table)}

	tests := map[string][]oletest.Entry{
		"embedded last":  append(append([]oletest.Entry(nil), outer...), embedded),
		"embedded first": append([]oletest.Entry{embedded}, outer...),
	}
	for name, entries := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "outer.doc", oletest.CompoundFile(entries...))
			res := (&DOCParser{Enabled: true}).Parse(context.Background(), path)
			if res.Outcome != OutcomeOK {
				t.Fatalf("Outcome = %s, err = %v", res.Outcome, res.Err)
			}
			if res.Text != "OUTER MAIN TEXT BODY" {
				t.Errorf("Text = %q, want the root document only", res.Text)
			}
		})
	}
}

func TestDOCParserMissingTableStream(t *testing.T) {
	word, _ := oletest.WordStreams([]oletest.Piece{{Text: "orphan body", Compressed: true}}, 0)
	path := writeFile(t, "broken.doc", oletest.CompoundFile(oletest.Stream("WordDocument", word)))

	res := (&DOCParser{Enabled: true, Fallback: &TextParser{}}).Parse(context.Background(), path)
	if res.Outcome != OutcomeFailed || !errors.Is(res.Err, ErrParse) {
		t.Fatalf("Outcome = %s, Err = %v; want failed parse", res.Outcome, res.Err)
	}
	if !strings.Contains(res.Err.Error(), "table stream") {
		t.Errorf("Err = %v, want a missing table stream error", res.Err)
	}
	if res.Method == "text-fallback" {
		t.Error("a parse failure must not fall back to text")
	}
}

func TestDOCParserNoWordStream(t *testing.T) {
	path := writeFile(t, "other.doc", oletest.CompoundFile(oletest.Stream("Workbook", []byte("cells"))))

	res := (&DOCParser{Enabled: true}).Parse(context.Background(), path)
	if res.Outcome != OutcomeFailed || res.Text != "" {
		t.Errorf("Outcome = %s, Text = %q; want failed with no text", res.Outcome, res.Text)
	}
}
