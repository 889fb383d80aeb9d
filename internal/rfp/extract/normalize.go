package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	spaceAroundNewline = regexp.MustCompile(` *\n *`)
	manyNewlines       = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans extracted text. It is idempotent and leaves no form feeds.
func Normalize(text string) string {
	s := strings.ReplaceAll(text, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\f", "\n")
	s = collapseHorizontalSpace(s)
	s = spaceAroundNewline.ReplaceAllString(s, "\n")
	s = manyNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// collapseHorizontalSpace turns every run of non-newline whitespace into one space.
func collapseHorizontalSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if r != '\n' && unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
