package extract

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodePlainText honours a UTF-8/UTF-16 byte order mark and otherwise reads
// UTF-8, replacing invalid sequences.
func decodePlainText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	s := string(out)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	return s, nil
}

// minDocRun is the shortest printable run kept from a legacy .doc binary.
const minDocRun = 8

// extractLegacyDOC is best effort: Word 97-2003 files keep their text as
// 8-bit or UTF-16LE runs, so NULs are dropped and long printable runs kept.
func extractLegacyDOC(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty document")
	}
	var (
		out   strings.Builder
		run   []byte
		found bool
	)
	flush := func() {
		if len(run) >= minDocRun {
			out.Write(run)
			out.WriteByte('\n')
			found = true
		}
		run = run[:0]
	}
	for _, c := range data {
		switch {
		case c == 0x00:
			continue
		case c == '\r' || c == '\n':
			flush()
		case c == '\t' || (c >= 0x20 && c < 0x7f):
			run = append(run, c)
		default:
			flush()
		}
	}
	flush()
	if !found {
		return "", errors.New("no readable text in legacy document")
	}
	return out.String(), nil
}
