package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/segment"
)

const questionsSchemaName = "rfp_questions"

// maxJSONScan bounds FirstJSONSpan on very long model output.
const maxJSONScan = 1 << 20

type extractedItem struct {
	Question string `json:"question"`
	Section  string `json:"section"`
	Category string `json:"category"`
}

// ExtractQuestions asks the model to pull questions out of document text.
// Schema-constrained output is used when the invoker supports it; otherwise
// the first balanced JSON span of the free-text reply is parsed. The result
// gets the same length filter, ordinal ids and pending status as Segment.
func (g *Generator) ExtractQuestions(ctx context.Context, text string) ([]proposal.Question, error) {
	ctx, span := g.tracer.Start(ctx, "generate.extract_questions")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return []proposal.Question{}, nil
	}

	var (
		items []extractedItem
		err   error
	)
	if si, ok := g.invoker.(proposal.StructuredInvoker); ok {
		items, err = g.extractStructured(ctx, si, text)
	} else {
		items, err = g.extractFreeText(ctx, text)
	}
	if err != nil {
		span.RecordError(err)
		return nil, &proposal.GenerationError{Op: "extract questions", Cause: err}
	}
	return toQuestions(items), nil
}

func (g *Generator) extractStructured(ctx context.Context, si proposal.StructuredInvoker, text string) ([]extractedItem, error) {
	obj, err := si.InvokeJSON(ctx, g.request(extractSystem, buildExtractPrompt(text, false)), questionsSchemaName, questionsSchema)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var out struct {
		Questions []extractedItem `json:"questions"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode structured questions: %w", err)
	}
	return out.Questions, nil
}

func (g *Generator) extractFreeText(ctx context.Context, text string) ([]extractedItem, error) {
	reply, err := g.invoke(ctx, g.request(extractSystem, buildExtractPrompt(text, true)))
	if err != nil {
		return nil, err
	}
	js, ok := FirstJSONSpan(reply)
	if !ok {
		return nil, errors.New("no JSON found in model output")
	}
	return decodeItems(js)
}

// decodeItems accepts either {"questions":[...]} or a bare array of items
// or strings.
func decodeItems(span string) ([]extractedItem, error) {
	if strings.HasPrefix(span, "{") {
		var obj struct {
			Questions json.RawMessage `json:"questions"`
		}
		if err := json.Unmarshal([]byte(span), &obj); err != nil {
			return nil, fmt.Errorf("decode questions object: %w", err)
		}
		if len(obj.Questions) == 0 {
			return nil, errors.New(`questions object has no "questions" field`)
		}
		span = string(obj.Questions)
	}
	var items []extractedItem
	if err := json.Unmarshal([]byte(span), &items); err == nil {
		return items, nil
	}
	var plain []string
	if err := json.Unmarshal([]byte(span), &plain); err != nil {
		return nil, fmt.Errorf("decode questions array: %w", err)
	}
	items = make([]extractedItem, 0, len(plain))
	for _, q := range plain {
		items = append(items, extractedItem{Question: q})
	}
	return items, nil
}

func toQuestions(items []extractedItem) []proposal.Question {
	out := make([]proposal.Question, 0, len(items))
	for _, it := range items {
		text := strings.TrimSpace(it.Question)
		n := utf8.RuneCountInString(text)
		if n < segment.MinQuestionLen || n > segment.MaxQuestionLen {
			continue
		}
		section := strings.TrimSpace(it.Section)
		if section == "" {
			section = segment.DefaultSection
		}
		cat := proposal.Category(strings.ToLower(strings.TrimSpace(it.Category)))
		if !cat.Valid() {
			cat = segment.Classify(text)
		}
		out = append(out, proposal.Question{
			ID:       "q" + strconv.Itoa(len(out)+1),
			Question: text,
			Section:  section,
			Category: cat,
			Status:   proposal.QuestionPending,
			Sources:  []string{},
		})
	}
	return out
}

// FirstJSONSpan returns the first balanced {...} or [...] span in s. Brackets
// inside JSON strings are ignored.
func FirstJSONSpan(s string) (string, bool) {
	if len(s) > maxJSONScan {
		s = s[:maxJSONScan]
	}
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}
	var (
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return "", false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
