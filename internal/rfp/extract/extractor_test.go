package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"collapse spaces", "a  \t b", "a b"},
		{"form feed", "page one\fpage two", "page one\npage two"},
		{"many newlines", "a\n\n\n\nb", "a\n\nb"},
		{"spaces around newlines", "a \n \n \n b", "a\n\nb"},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"trim", "  \n hello \n ", "hello"},
		{"nbsp", "a  b", "a b"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotentRandom(t *testing.T) {
	alphabet := []rune{'a', 'B', ' ', '\t', '\n', '\f', '\r', '\v', ' ', '?', '1', '.', ' '}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		n := rng.Intn(40)
		var b strings.Builder
		for j := 0; j < n; j++ {
			b.WriteRune(alphabet[rng.Intn(len(alphabet))])
		}
		in := b.String()
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("not idempotent for %q: %q != %q", in, once, twice)
		}
		if strings.ContainsRune(once, '\f') {
			t.Fatalf("form feed survived for %q", in)
		}
	}
}

func FuzzNormalize(f *testing.F) {
	f.Add("SECTION 1\f\f 1. What?\n\n\n\n")
	f.Add("   x\r\n")
	f.Fuzz(func(t *testing.T, in string) {
		once := Normalize(in)
		if Normalize(once) != once {
			t.Fatalf("not idempotent for %q", in)
		}
		if strings.ContainsRune(once, '\f') {
			t.Fatalf("form feed survived for %q", in)
		}
	})
}

func TestExtractUnsupportedMediaType(t *testing.T) {
	ex := New(nil, nil)
	_, err := ex.Extract(context.Background(), []byte("x"), "image/png")
	if !errors.Is(err, proposal.ErrUnsupportedMediaType) {
		t.Fatalf("expected ErrUnsupportedMediaType, got %v", err)
	}
}

func TestExtractPlainText(t *testing.T) {
	ex := New(nil, nil)
	got, err := ex.Extract(context.Background(), []byte("1. What is your price?\n"), "text/plain; charset=utf-8")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "1. What is your price?\n" {
		t.Fatalf("unexpected text %q", got)
	}

	utf16 := []byte{0xFF, 0xFE, 'H', 0, 'i', 0}
	got, err = ex.Extract(context.Background(), utf16, "text/plain")
	if err != nil {
		t.Fatalf("Extract utf16: %v", err)
	}
	if got != "Hi" {
		t.Fatalf("utf16 decode: got %q", got)
	}
}

func TestExtractDOCX(t *testing.T) {
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>SECTION A</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">1. Describe your </w:t></w:r><w:r><w:t>support model?</w:t></w:r></w:p>
</w:body></w:document>`
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write([]byte(docXML)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	got, err := New(nil, nil).Extract(context.Background(), buf.Bytes(), MediaTypeDOCX)
	if err != nil {
		t.Fatalf("Extract docx: %v", err)
	}
	lines := strings.Split(Normalize(got), "\n")
	if len(lines) != 2 || lines[0] != "SECTION A" || lines[1] != "1. Describe your support model?" {
		t.Fatalf("unexpected docx lines: %q", lines)
	}
}

func TestExtractCorruptInputs(t *testing.T) {
	ex := New(nil, nil)
	cases := map[string][]byte{
		MediaTypePDF:  []byte("%PDF-1.4 this is not really a pdf"),
		MediaTypeDOCX: []byte("not a zip"),
		MediaTypeDOC:  {0x00, 0x01, 0x02},
	}
	for mt, data := range cases {
		_, err := ex.Extract(context.Background(), data, mt)
		if !errors.Is(err, proposal.ErrExtractionFailed) {
			t.Fatalf("%s: expected ErrExtractionFailed, got %v", mt, err)
		}
		var ee *proposal.ExtractionError
		if !errors.As(err, &ee) || ee.Cause == nil {
			t.Fatalf("%s: expected ExtractionError with a cause, got %v", mt, err)
		}
	}
}

func TestExtractLegacyDOC(t *testing.T) {
	data := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0x01}, []byte("Describe your warranty terms?\r")...)
	data = append(data, 0x02, 0x03)
	for _, r := range "Second paragraph here" {
		data = append(data, byte(r), 0x00)
	}
	got, err := New(nil, nil).Extract(context.Background(), data, MediaTypeDOC)
	if err != nil {
		t.Fatalf("Extract doc: %v", err)
	}
	if !strings.Contains(got, "Describe your warranty terms?") || !strings.Contains(got, "Second paragraph here") {
		t.Fatalf("unexpected legacy doc text %q", got)
	}
}

func TestKindFor(t *testing.T) {
	if k, err := KindFor(" Application/PDF "); err != nil || k != KindPDF {
		t.Fatalf("KindFor pdf: %v %v", k, err)
	}
	if k, err := KindFor("text/markdown"); err != nil || k != KindText {
		t.Fatalf("KindFor markdown: %v %v", k, err)
	}
}

func TestMediaTypeFor(t *testing.T) {
	cases := []struct {
		name, declared, want string
	}{
		{"rfp.pdf", "application/octet-stream", MediaTypePDF},
		{"RFP.DOCX", "", MediaTypeDOCX},
		{"notes.bin", "text/plain; charset=utf-8", "text/plain; charset=utf-8"},
		{"image.png", "image/png", "image/png"},
	}
	for _, tc := range cases {
		if got := MediaTypeFor(tc.name, tc.declared); got != tc.want {
			t.Fatalf("MediaTypeFor(%q, %q) = %q, want %q", tc.name, tc.declared, got, tc.want)
		}
	}
}
