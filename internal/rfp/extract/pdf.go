package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

// extractPDF reads the text layer page by page, one output line per text row.
// The pdf reader panics on some malformed inputs, so panics become errors.
func extractPDF(data []byte) (text string, err error) {
	if !isPDF(data) {
		return "", errors.New("missing %PDF header")
	}
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}

	var out strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("pdf page %d: %w", i, err)
		}
		for _, row := range rows {
			line := joinRow(row.Content)
			if strings.TrimSpace(line) == "" {
				continue
			}
			out.WriteString(line)
			out.WriteString("\n")
		}
		// page break, normalized to a paragraph gap later
		out.WriteString("\f")
	}
	return out.String(), nil
}

// joinRow glues text runs, inserting a space where the horizontal gap between
// runs is wider than a fraction of the font size.
func joinRow(runs pdf.TextHorizontal) string {
	var b strings.Builder
	var prevEnd float64
	for i, t := range runs {
		if t.S == "" {
			continue
		}
		if i > 0 && b.Len() > 0 {
			gap := t.X - prevEnd
			threshold := t.FontSize * 0.15
			if threshold <= 0 {
				threshold = 1
			}
			last := b.String()[b.Len()-1]
			if gap > threshold && last != ' ' && !strings.HasPrefix(t.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return b.String()
}
