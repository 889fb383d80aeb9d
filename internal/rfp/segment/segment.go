package segment

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
)

const (
	DefaultSection = "General"

	MinQuestionLen = 10
	MaxQuestionLen = 500

	minHeaderLen = 4
	maxHeaderLen = 49
)

var (
	numericEnumerator = regexp.MustCompile(`^(?:\d+(?:\.\d+)*[.)]|\d+(?:\.\d+)+)\s+`)
	// "1.What is ..." with no space; only an upper-case start qualifies.
	tightEnumerator = regexp.MustCompile(`^(\d+(?:\.\d+)*[.)])\p{Lu}`)
	alphaEnumerator = regexp.MustCompile(`^[a-zA-Z][.)]\s+`)
	bulletMarker    = regexp.MustCompile(`^(?:•\s*|[-*]\s+)`)
	sectionNumbered = regexp.MustCompile(`(?i)^(?:section|part)\s+(?:\d+|[ivxlcdm]+|[a-z])\b`)
	sectionLabeled  = regexp.MustCompile(`(?i)^(?:section|part)\s+(\S.*)$`)
)

// Connectors that may stay lower case inside a title-case header label.
var titleConnectors = map[string]bool{
	"and": true, "of": true, "the": true, "for": true, "to": true, "&": true,
	"a": true, "an": true, "in": true, "on": true, "or": true,
}

// Segmenter splits extracted text into ordered question records. The zero
// value is not usable; call New.
type Segmenter struct {
	DefaultSection string
	MinLen         int
	MaxLen         int
}

func New() *Segmenter {
	return &Segmenter{
		DefaultSection: DefaultSection,
		MinLen:         MinQuestionLen,
		MaxLen:         MaxQuestionLen,
	}
}

// Segment runs the default segmenter over text.
func Segment(text string) []proposal.Question {
	return New().Segment(text)
}

// Segment scans text line by line. Header lines move the current section;
// question candidates become pending questions numbered q1, q2, ... in
// document order.
func (s *Segmenter) Segment(text string) []proposal.Question {
	section := s.DefaultSection
	if section == "" {
		section = DefaultSection
	}
	out := make([]proposal.Question, 0)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if IsHeader(line) {
			section = line
			continue
		}
		body, ok := questionCandidate(line)
		if !ok {
			continue
		}
		n := utf8.RuneCountInString(body)
		if n < s.MinLen || n > s.MaxLen {
			continue
		}
		out = append(out, proposal.Question{
			ID:       "q" + strconv.Itoa(len(out)+1),
			Question: body,
			Section:  section,
			Category: Classify(body),
			Status:   proposal.QuestionPending,
			Sources:  []string{},
		})
	}
	return out
}

// IsHeader reports whether a trimmed line names a section. A line ending in
// a question mark is never a header.
func IsHeader(line string) bool {
	if line == "" || strings.HasSuffix(line, "?") {
		return false
	}
	if isSectionLine(line) {
		return true
	}
	if isAllCaps(line) {
		n := utf8.RuneCountInString(line)
		return n >= minHeaderLen && n <= maxHeaderLen
	}
	if end, ok := numericPrefix(line); ok {
		return isTitleLabel(line[end:])
	}
	if loc := alphaEnumerator.FindStringIndex(line); loc != nil {
		return isTitleLabel(line[loc[1]:])
	}
	return false
}

// isSectionLine accepts "Section 3", "Part IV" and "Section Overview". A word
// label must read as a title so prose like "Part of our approach" is skipped.
func isSectionLine(line string) bool {
	if sectionNumbered.MatchString(line) {
		return true
	}
	m := sectionLabeled.FindStringSubmatch(line)
	return m != nil && isTitleLabel(m[1])
}

func numericPrefix(line string) (int, bool) {
	if loc := numericEnumerator.FindStringIndex(line); loc != nil {
		return loc[1], true
	}
	if m := tightEnumerator.FindStringSubmatchIndex(line); m != nil {
		return m[3], true
	}
	return 0, false
}

func isAllCaps(line string) bool {
	hasLetter := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// isTitleLabel accepts short labels such as "Pricing and Payment Terms".
// Sentences ("Describe your approach.") are rejected.
func isTitleLabel(label string) bool {
	label = strings.TrimSpace(label)
	if label == "" || utf8.RuneCountInString(label) > maxHeaderLen {
		return false
	}
	if strings.ContainsAny(label[len(label)-1:], ".?!;,") {
		return false
	}
	words := strings.Fields(label)
	first, _ := utf8.DecodeRuneInString(words[0])
	if !unicode.IsUpper(first) {
		return false
	}
	for _, w := range words[1:] {
		r, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsLetter(r) || unicode.IsUpper(r) {
			continue
		}
		if !titleConnectors[strings.ToLower(w)] {
			return false
		}
	}
	return true
}

// questionCandidate strips a leading enumerator or bullet. Unprefixed lines
// qualify only when they end with a question mark.
func questionCandidate(line string) (string, bool) {
	if end, ok := numericPrefix(line); ok {
		return strings.TrimSpace(line[end:]), true
	}
	for _, re := range []*regexp.Regexp{alphaEnumerator, bulletMarker} {
		if loc := re.FindStringIndex(line); loc != nil {
			return strings.TrimSpace(line[loc[1]:]), true
		}
	}
	if strings.HasSuffix(line, "?") {
		return line, true
	}
	return "", false
}
