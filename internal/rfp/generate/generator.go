package generate

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/retrieve"
)

const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
	DefaultTopP        = 0.9

	// Confidence is a fixed policy value, not a measured signal.
	ConfidenceWithContext = 0.85
	ConfidenceNoContext   = 0.6
	ConfidenceFallback    = 0.3

	SourceKnowledgeBase = "Knowledge Base"
	SourceAIGenerated   = "AI Generated"
	SourceFallback      = "Fallback Template"
)

type Config struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

func DefaultConfig() Config {
	return Config{MaxTokens: DefaultMaxTokens, Temperature: DefaultTemperature, TopP: DefaultTopP}
}

// Generator drafts and revises answers through a ModelInvoker. It keeps no
// state between calls.
type Generator struct {
	log     *logger.Logger
	invoker proposal.ModelInvoker
	cfg     Config
	tracer  trace.Tracer
	now     func() time.Time
}

// New returns a Generator. A nil invoker behaves like an unreachable model
// service, so GenerateAnswer always falls back.
func New(log *logger.Logger, invoker proposal.ModelInvoker, cfg Config) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.TopP <= 0 {
		cfg.TopP = DefaultTopP
	}
	return &Generator{
		log:     log.With("service", "AnswerGenerator"),
		invoker: invoker,
		cfg:     cfg,
		tracer:  otel.Tracer("proposalpilot/rfp/generate"),
		now:     time.Now,
	}
}

func (g *Generator) request(system, prompt string) proposal.InvokeRequest {
	return proposal.InvokeRequest{
		System:      system,
		Prompt:      prompt,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		TopP:        g.cfg.TopP,
	}
}

func (g *Generator) invoke(ctx context.Context, req proposal.InvokeRequest) (string, error) {
	if g.invoker == nil {
		return "", &proposal.InvocationError{Unavailable: true, Err: errors.New("no model invoker configured")}
	}
	out, err := g.invoker.Invoke(ctx, req)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", &proposal.InvocationError{Err: errors.New("empty model response")}
	}
	return out, nil
}

// GenerateAnswer drafts an answer to question grounded in snippets. A model
// service that is unavailable yields a canned fallback answer and no error;
// any other failure is a *proposal.GenerationError.
func (g *Generator) GenerateAnswer(ctx context.Context, question string, snippets []retrieve.Snippet) (proposal.GeneratedAnswer, error) {
	ctx, span := g.tracer.Start(ctx, "generate.answer", trace.WithAttributes(
		attribute.Int("rfp.context_count", len(snippets)),
	))
	defer span.End()

	text, err := g.invoke(ctx, g.request(answerSystem, buildAnswerPrompt(question, snippets)))
	if err != nil {
		if errors.Is(err, proposal.ErrServiceUnavailable) {
			g.log.Warn("model service unavailable; using fallback answer", "error", err)
			span.SetAttributes(attribute.Bool("rfp.fallback", true))
			return proposal.GeneratedAnswer{
				Answer:      FallbackAnswer(question),
				Confidence:  ConfidenceFallback,
				Sources:     []string{SourceFallback},
				GeneratedAt: g.now().UTC(),
				Fallback:    true,
			}, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return proposal.GeneratedAnswer{}, &proposal.GenerationError{Op: "generate answer", Cause: err}
	}

	ans := proposal.GeneratedAnswer{Answer: text, GeneratedAt: g.now().UTC()}
	if len(snippets) > 0 {
		ans.Confidence = ConfidenceWithContext
		ans.Sources = make([]string, 0, len(snippets)+1)
		ans.Sources = append(ans.Sources, SourceKnowledgeBase)
		for _, s := range snippets {
			ans.Sources = append(ans.Sources, s.EntryID.String())
		}
	} else {
		ans.Confidence = ConfidenceNoContext
		ans.Sources = []string{SourceAIGenerated}
	}
	return ans, nil
}

// ImproveAnswer revises current according to feedback. There is no fallback.
func (g *Generator) ImproveAnswer(ctx context.Context, current, feedback, question string) (string, error) {
	ctx, span := g.tracer.Start(ctx, "generate.improve")
	defer span.End()

	if strings.TrimSpace(feedback) == "" {
		return "", &proposal.GenerationError{Op: "improve answer", Cause: proposal.ErrInvalidArgument}
	}
	text, err := g.invoke(ctx, g.request(improveSystem, buildImprovePrompt(current, feedback, question)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "improve failed")
		return "", &proposal.GenerationError{Op: "improve answer", Cause: err}
	}
	return text, nil
}
