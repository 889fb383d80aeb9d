package generate

import (
	"fmt"
	"strings"

	"github.com/yungbote/proposalpilot-backend/internal/rfp/retrieve"
)

const answerSystem = `You are an expert RFP response writer.
Write answers that are accurate, professional and specific to the company.
Use only the supplied company context for facts; do not invent certifications, customers or numbers.`

const improveSystem = `You are an expert RFP response writer revising a draft answer.
Apply the reviewer feedback while keeping the structure and every fact that the feedback does not contradict.
Return only the revised answer text.`

const extractSystem = `You extract questions and requirements from RFP documents.
Return every distinct question or requirement the bidder must respond to, in document order.
Each item has the question text, the section heading it appears under, and one category from:
pricing, technical, timeline, experience, security, support, general.`

// maxExtractRunes bounds the document text sent for model-assisted extraction.
const maxExtractRunes = 24000

func buildAnswerPrompt(question string, snippets []retrieve.Snippet) string {
	var b strings.Builder
	if len(snippets) > 0 {
		b.WriteString("Company context:\n")
		for i, s := range snippets {
			fmt.Fprintf(&b, "[%d] %s\n\n", i+1, s.String())
		}
	}
	b.WriteString("RFP question:\n")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nInstructions:\n")
	b.WriteString("- Write a professional answer of 200 to 400 words.\n")
	b.WriteString("- Open with a direct answer, then support it with specifics.\n")
	b.WriteString("- Use short paragraphs or bullet points where they help the evaluator.\n")
	if len(snippets) > 0 {
		b.WriteString("- Ground claims in the company context above.\n")
	} else {
		b.WriteString("- No company context is available; keep claims general and avoid specifics you cannot support.\n")
	}
	return b.String()
}

func buildImprovePrompt(current, feedback, question string) string {
	var b strings.Builder
	b.WriteString("RFP question:\n")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nCurrent answer:\n")
	b.WriteString(strings.TrimSpace(current))
	b.WriteString("\n\nReviewer feedback:\n")
	b.WriteString(strings.TrimSpace(feedback))
	b.WriteString("\n\nRevise the current answer to address the feedback. Preserve its structure.\n")
	return b.String()
}

func buildExtractPrompt(text string, freeText bool) string {
	var b strings.Builder
	b.WriteString("Document text:\n")
	b.WriteString(truncateRunes(text, maxExtractRunes))
	b.WriteString("\n\n")
	if freeText {
		b.WriteString(`Respond with JSON only: {"questions":[{"question":"...","section":"...","category":"..."}]}`)
		b.WriteString("\n")
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

var questionsSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []any{"questions"},
	"properties": map[string]any{
		"questions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []any{"question", "section", "category"},
				"properties": map[string]any{
					"question": map[string]any{"type": "string"},
					"section":  map[string]any{"type": "string"},
					"category": map[string]any{
						"type": "string",
						"enum": []any{"pricing", "technical", "timeline", "experience", "security", "support", "general"},
					},
				},
			},
		},
	},
}
