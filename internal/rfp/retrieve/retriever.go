package retrieve

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
)

const (
	DefaultTopK     = 5
	MaxSnippetRunes = 500

	contentWeight = 2
	titleWeight   = 5
)

// Retriever ranks knowledge entries by keyword overlap with a query.
type Retriever struct {
	DefaultTopK int
}

func New(defaultTopK int) *Retriever {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &Retriever{DefaultTopK: defaultTopK}
}

// Score is 2 per query token found in the content plus 5 per token found in
// the title. Tokens are counted every time they appear in the query.
func Score(tokens []string, e *proposal.KnowledgeEntry) int {
	if e == nil {
		return 0
	}
	content := strings.ToLower(e.Content)
	title := strings.ToLower(e.Title)
	score := 0
	for _, tok := range tokens {
		if strings.Contains(content, tok) {
			score += contentWeight
		}
		if strings.Contains(title, tok) {
			score += titleWeight
		}
	}
	return score
}

func Tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Retrieve returns at most topK hits, best first. Zero-score entries are
// dropped and equal scores keep pool order. topK <= 0 uses the default.
func (r *Retriever) Retrieve(query string, pool []*proposal.KnowledgeEntry, topK int) []proposal.RetrievalHit {
	if topK <= 0 {
		topK = r.DefaultTopK
		if topK <= 0 {
			topK = DefaultTopK
		}
	}
	tokens := Tokenize(query)
	hits := make([]proposal.RetrievalHit, 0)
	if len(tokens) == 0 {
		return hits
	}
	for _, e := range pool {
		if s := Score(tokens, e); s > 0 {
			hits = append(hits, proposal.RetrievalHit{Entry: e, Score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// Snippet is the rendered context handed to the answer generator.
type Snippet struct {
	EntryID uuid.UUID `json:"entry_id"`
	Title   string    `json:"title"`
	Text    string    `json:"text"`
}

func (s Snippet) String() string {
	if s.Title == "" {
		return s.Text
	}
	return s.Text + "\n(Source: " + s.Title + ")"
}

// Render turns hits into snippets: the highlight when present, otherwise the
// content capped at MaxSnippetRunes.
func Render(hits []proposal.RetrievalHit) []Snippet {
	out := make([]Snippet, 0, len(hits))
	for _, h := range hits {
		if h.Entry == nil {
			continue
		}
		text := strings.TrimSpace(h.Highlight)
		if text == "" {
			text = truncateRunes(strings.TrimSpace(h.Entry.Content), MaxSnippetRunes)
		}
		out = append(out, Snippet{EntryID: h.Entry.ID, Title: h.Entry.Title, Text: text})
	}
	return out
}

// Strings renders snippets as plain context strings.
func Strings(snippets []Snippet) []string {
	out := make([]string, 0, len(snippets))
	for _, s := range snippets {
		out = append(out, s.String())
	}
	return out
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
