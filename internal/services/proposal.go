package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/yungbote/proposalpilot-backend/internal/clients/redis"
	"github.com/yungbote/proposalpilot-backend/internal/data/repos"
	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
	"github.com/yungbote/proposalpilot-backend/internal/pkg/dbctx"
	"github.com/yungbote/proposalpilot-backend/internal/platform/ctxutil"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/extract"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/generate"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/lifecycle"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/retrieve"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/segment"
)

type ExtractionMode string

const (
	ModeHeuristic ExtractionMode = "heuristic"
	ModeAI        ExtractionMode = "ai"
)

// BlobStore is the part of the object store the service writes uploads to.
type BlobStore interface {
	proposal.BlobFetcher
	Upload(ctx context.Context, key, contentType string, r io.Reader) error
}

type ProposalService interface {
	Ingest(ctx context.Context, data []byte, mediaType string) ([]proposal.Question, error)
	IngestBatch(ctx context.Context, files []UploadedFile) []IngestResult
	CreateProposal(ctx context.Context, in CreateProposalInput) (*proposal.Proposal, error)
	Reextract(ctx context.Context, companyID, proposalID uuid.UUID, mode ExtractionMode) (*proposal.Proposal, error)

	RetrieveContext(ctx context.Context, query string, companyID uuid.UUID, topK int) ([]string, error)
	SearchKnowledge(ctx context.Context, query string, companyID uuid.UUID, topK int) ([]proposal.RetrievalHit, error)
	CreateKnowledgeEntry(ctx context.Context, entry *proposal.KnowledgeEntry) (*proposal.KnowledgeEntry, error)

	GenerateDraft(ctx context.Context, question string, snippets []retrieve.Snippet) (proposal.GeneratedAnswer, error)
	GenerateForQuestion(ctx context.Context, companyID, proposalID uuid.UUID, questionID string) (*proposal.Question, error)
	BulkGenerate(ctx context.Context, companyID, proposalID uuid.UUID) (lifecycle.BulkResult, error)
	UpdateQuestion(ctx context.Context, companyID, proposalID uuid.UUID, questionID string, u lifecycle.HumanUpdate) (*proposal.Question, error)
	ImproveQuestion(ctx context.Context, companyID, proposalID uuid.UUID, questionID, feedback string) (*proposal.Question, error)

	Classify(text string) proposal.Category

	ListProposals(ctx context.Context, companyID uuid.UUID) ([]*proposal.Proposal, error)
	GetProposal(ctx context.Context, companyID, proposalID uuid.UUID) (*proposal.Proposal, error)
	DeleteProposal(ctx context.Context, companyID, proposalID uuid.UUID) error
}

type UploadedFile struct {
	Name      string
	MediaType string
	Data      []byte
}

type IngestResult struct {
	FileName  string              `json:"file_name"`
	Questions []proposal.Question `json:"questions"`
	Error     string              `json:"error,omitempty"`
}

type CreateProposalInput struct {
	UserID     uuid.UUID
	CompanyID  uuid.UUID
	Title      string
	ClientName string
	Mode       ExtractionMode
	File       UploadedFile
}

type ProposalServiceConfig struct {
	TopK              int
	BulkWorkers       int
	IngestConcurrency int
}

type proposalService struct {
	log       *logger.Logger
	proposals repos.ProposalRepo
	knowledge repos.KnowledgeRepo
	blobs     BlobStore
	bus       redis.EventBus

	extractor *extract.Extractor
	segmenter *segment.Segmenter
	retriever *retrieve.Retriever
	generator *generate.Generator

	cfg    ProposalServiceConfig
	tracer trace.Tracer
	now    func() time.Time
}

type ProposalServiceDeps struct {
	Proposals repos.ProposalRepo
	Knowledge repos.KnowledgeRepo
	Blobs     BlobStore
	Bus       redis.EventBus
	Extractor *extract.Extractor
	Segmenter *segment.Segmenter
	Retriever *retrieve.Retriever
	Generator *generate.Generator
}

func NewProposalService(baseLog *logger.Logger, deps ProposalServiceDeps, cfg ProposalServiceConfig) ProposalService {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	if cfg.BulkWorkers <= 0 {
		cfg.BulkWorkers = 1
	}
	if cfg.IngestConcurrency <= 0 {
		cfg.IngestConcurrency = 4
	}
	if deps.Bus == nil {
		deps.Bus = redis.Nop{}
	}
	if deps.Extractor == nil {
		deps.Extractor = extract.New(baseLog, nil)
	}
	if deps.Segmenter == nil {
		deps.Segmenter = segment.New()
	}
	if deps.Retriever == nil {
		deps.Retriever = retrieve.New(cfg.TopK)
	}
	if deps.Generator == nil {
		deps.Generator = generate.New(baseLog, nil, generate.DefaultConfig())
	}
	return &proposalService{
		log:       baseLog.With("service", "ProposalService"),
		proposals: deps.Proposals,
		knowledge: deps.Knowledge,
		blobs:     deps.Blobs,
		bus:       deps.Bus,
		extractor: deps.Extractor,
		segmenter: deps.Segmenter,
		retriever: deps.Retriever,
		generator: deps.Generator,
		cfg:       cfg,
		tracer:    otel.Tracer("proposalpilot/services"),
		now:       time.Now,
	}
}

// =====================================
// Ingestion
// =====================================

// Ingest extracts and segments one document with the heuristic segmenter.
func (s *proposalService) Ingest(ctx context.Context, data []byte, mediaType string) ([]proposal.Question, error) {
	return s.extractQuestions(ctx, data, mediaType, ModeHeuristic)
}

func (s *proposalService) extractQuestions(ctx context.Context, data []byte, mediaType string, mode ExtractionMode) ([]proposal.Question, error) {
	text, err := s.extractor.Extract(ctx, data, mediaType)
	if err != nil {
		return nil, err
	}
	text = extract.Normalize(text)
	if mode != ModeAI {
		return s.segmenter.Segment(text), nil
	}
	qs, err := s.generator.ExtractQuestions(ctx, text)
	if errors.Is(err, proposal.ErrServiceUnavailable) {
		s.log.Warn("model unavailable for question extraction; using heuristic segmenter", "error", err)
		return s.segmenter.Segment(text), nil
	}
	return qs, err
}

func (s *proposalService) CreateProposal(ctx context.Context, in CreateProposalInput) (*proposal.Proposal, error) {
	ctx, span := s.tracer.Start(ctx, "proposal.create", trace.WithAttributes(
		attribute.String("media_type", in.File.MediaType),
		attribute.String("mode", string(in.Mode)),
	))
	defer span.End()

	if in.CompanyID == uuid.Nil || in.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user and company are required", proposal.ErrInvalidArgument)
	}
	if len(in.File.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", proposal.ErrInvalidArgument)
	}
	switch in.Mode {
	case "":
		in.Mode = ModeHeuristic
	case ModeHeuristic, ModeAI:
	default:
		return nil, fmt.Errorf("%w: unknown extraction mode %q", proposal.ErrInvalidArgument, in.Mode)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		base := path.Base(strings.ReplaceAll(in.File.Name, `\`, "/"))
		title = strings.TrimSuffix(base, path.Ext(base))
	}
	if title == "" || title == "." || title == "/" {
		title = "Untitled proposal"
	}

	qs, err := s.extractQuestions(ctx, in.File.Data, in.File.MediaType, in.Mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extract questions")
		return nil, err
	}

	id := uuid.New()
	key := ""
	if s.blobs != nil {
		key = storageKey(in.CompanyID, id, in.File.Name)
		if err := s.blobs.Upload(ctx, key, in.File.MediaType, bytes.NewReader(in.File.Data)); err != nil {
			s.log.With(ctxutil.LogFields(ctx)...).Error("upload RFP file failed", "error", err, "key", key)
			return nil, fmt.Errorf("upload rfp file: %w", err)
		}
	}

	p := &proposal.Proposal{
		ID:              id,
		UserID:          in.UserID,
		CompanyID:       in.CompanyID,
		Title:           title,
		ClientName:      strings.TrimSpace(in.ClientName),
		SourceFileKey:   key,
		SourceMediaType: in.File.MediaType,
		Questions:       datatypes.NewJSONSlice(qs),
		Status:          proposal.StatusDraft,
	}
	if _, err := s.proposals.Create(dbctx.Background(ctx), p); err != nil {
		s.log.With(ctxutil.LogFields(ctx)...).Error("CreateProposal failed", "error", err)
		return nil, err
	}
	s.log.With(ctxutil.LogFields(ctx)...).Info("Proposal created", "proposal_id", p.ID, "questions", len(qs), "mode", in.Mode)
	s.publish(ctx, redis.Event{
		Type:       redis.EventProposalCreated,
		ProposalID: p.ID,
		CompanyID:  p.CompanyID,
		Payload:    map[string]any{"questions": len(qs)},
	})
	return p, nil
}

// Reextract runs extraction again over the stored source file. Questions are
// replaced wholesale, so it is refused once any question has left pending.
func (s *proposalService) Reextract(ctx context.Context, companyID, proposalID uuid.UUID, mode ExtractionMode) (*proposal.Proposal, error) {
	p, err := s.loadOwned(ctx, companyID, proposalID)
	if err != nil {
		return nil, err
	}
	for _, q := range p.Questions {
		if q.Status != proposal.QuestionPending {
			return nil, fmt.Errorf("%w: question %s is %s", proposal.ErrInvalidTransition, q.ID, q.Status)
		}
	}
	if s.blobs == nil || p.SourceFileKey == "" {
		return nil, fmt.Errorf("proposal %s source file: %w", p.ID, proposal.ErrNotFound)
	}
	data, err := s.blobs.GetBytes(ctx, p.SourceFileKey)
	if err != nil {
		return nil, err
	}
	qs, err := s.extractQuestions(ctx, data, p.SourceMediaType, mode)
	if err != nil {
		return nil, err
	}
	if err := s.proposals.PutQuestions(ctx, p.ID, qs); err != nil {
		return nil, err
	}
	p.Questions = datatypes.NewJSONSlice(qs)
	p.Status = proposal.StatusActive
	s.log.Info("Proposal re-extracted", "proposal_id", p.ID, "questions", len(qs), "mode", mode)
	return p, nil
}

func storageKey(companyID, proposalID uuid.UUID, name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	return fmt.Sprintf("proposals/%s/%s/%s", companyID, proposalID, base)
}

// =====================================
// Retrieval
// =====================================

func (s *proposalService) SearchKnowledge(ctx context.Context, query string, companyID uuid.UUID, topK int) ([]proposal.RetrievalHit, error) {
	pool, err := s.knowledge.ListEntries(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load knowledge pool: %w", err)
	}
	return s.retriever.Retrieve(query, pool, topK), nil
}

func (s *proposalService) RetrieveContext(ctx context.Context, query string, companyID uuid.UUID, topK int) ([]string, error) {
	hits, err := s.SearchKnowledge(ctx, query, companyID, topK)
	if err != nil {
		return nil, err
	}
	return retrieve.Strings(retrieve.Render(hits)), nil
}

func (s *proposalService) CreateKnowledgeEntry(ctx context.Context, entry *proposal.KnowledgeEntry) (*proposal.KnowledgeEntry, error) {
	if entry == nil {
		return nil, fmt.Errorf("%w: nil entry", proposal.ErrInvalidArgument)
	}
	if entry.Category == "" {
		entry.Category = segment.Classify(entry.Title + " " + entry.Content)
	}
	rows, err := s.knowledge.Create(dbctx.Background(ctx), []*proposal.KnowledgeEntry{entry})
	if err != nil {
		return nil, err
	}
	return rows[0], nil
}

func (s *proposalService) Classify(text string) proposal.Category {
	return segment.Classify(text)
}

// =====================================
// Generation and review
// =====================================

func (s *proposalService) GenerateDraft(ctx context.Context, question string, snippets []retrieve.Snippet) (proposal.GeneratedAnswer, error) {
	return s.generator.GenerateAnswer(ctx, question, snippets)
}

// loadOwned hides proposals of other companies behind ErrNotFound.
func (s *proposalService) loadOwned(ctx context.Context, companyID, proposalID uuid.UUID) (*proposal.Proposal, error) {
	p, err := s.proposals.Get(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.CompanyID != companyID {
		return nil, fmt.Errorf("proposal %s: %w", proposalID, proposal.ErrNotFound)
	}
	return p, nil
}

func findQuestion(p *proposal.Proposal, questionID string) (int, error) {
	idx := p.FindQuestion(questionID)
	if idx < 0 {
		return -1, fmt.Errorf("question %s: %w", questionID, proposal.ErrNotFound)
	}
	return idx, nil
}

func (s *proposalService) draftWithPool(pool []*proposal.KnowledgeEntry) lifecycle.GenerateFunc {
	return func(ctx context.Context, q proposal.Question) (proposal.GeneratedAnswer, error) {
		hits := s.retriever.Retrieve(q.Question, pool, s.cfg.TopK)
		return s.generator.GenerateAnswer(ctx, q.Question, retrieve.Render(hits))
	}
}

func (s *proposalService) GenerateForQuestion(ctx context.Context, companyID, proposalID uuid.UUID, questionID string) (*proposal.Question, error) {
	p, err := s.loadOwned(ctx, companyID, proposalID)
	if err != nil {
		return nil, err
	}
	idx, err := findQuestion(p, questionID)
	if err != nil {
		return nil, err
	}
	pool, err := s.knowledge.ListEntries(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load knowledge pool: %w", err)
	}
	ans, err := s.draftWithPool(pool)(ctx, p.Questions[idx])
	if err != nil {
		s.log.Warn("answer generation failed", "proposal_id", proposalID, "question_id", questionID, "error", err)
		return nil, err
	}

	lifecycle.ApplyDraft(&p.Questions[idx], ans)
	if err := s.proposals.PutQuestions(ctx, p.ID, p.Questions); err != nil {
		return nil, err
	}
	q := p.Questions[idx]
	s.publish(ctx, questionEvent(redis.EventQuestionDrafted, p, q, map[string]any{"fallback": ans.Fallback}))
	return &q, nil
}

// BulkGenerate drafts every pending question and writes the list back once.
// The write happens even if ctx was cancelled part way so finished drafts
// are kept.
func (s *proposalService) BulkGenerate(ctx context.Context, companyID, proposalID uuid.UUID) (lifecycle.BulkResult, error) {
	ctx, span := s.tracer.Start(ctx, "proposal.bulk_generate", trace.WithAttributes(
		attribute.String("proposal_id", proposalID.String()),
		attribute.Int("workers", s.cfg.BulkWorkers),
	))
	defer span.End()

	p, err := s.loadOwned(ctx, companyID, proposalID)
	if err != nil {
		return lifecycle.BulkResult{}, err
	}
	pool, err := s.knowledge.ListEntries(ctx, companyID)
	if err != nil {
		return lifecycle.BulkResult{}, fmt.Errorf("load knowledge pool: %w", err)
	}

	res := lifecycle.BulkGenerate(ctx, p.Questions, s.draftWithPool(pool), s.cfg.BulkWorkers)
	span.SetAttributes(attribute.Int("processed", res.Processed), attribute.Int("failed", res.Failed))
	if res.Results == nil {
		res.Results = []lifecycle.ItemResult{}
	}

	if res.Processed > 0 {
		writeCtx := ctx
		if ctx.Err() != nil {
			writeCtx = context.WithoutCancel(ctx)
		}
		if err := s.proposals.PutQuestions(writeCtx, p.ID, p.Questions); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "persist questions")
			return res, err
		}
	}
	s.log.With(ctxutil.LogFields(ctx)...).Info("Bulk generation finished", "proposal_id", p.ID, "processed", res.Processed, "failed", res.Failed)
	s.publish(ctx, redis.Event{
		Type:       redis.EventBulkCompleted,
		ProposalID: p.ID,
		CompanyID:  p.CompanyID,
		Payload:    map[string]any{"processed": res.Processed, "failed": res.Failed},
	})
	return res, nil
}

func (s *proposalService) UpdateQuestion(ctx context.Context, companyID, proposalID uuid.UUID, questionID string, u lifecycle.HumanUpdate) (*proposal.Question, error) {
	p, err := s.loadOwned(ctx, companyID, proposalID)
	if err != nil {
		return nil, err
	}
	idx, err := findQuestion(p, questionID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.ApplyHumanUpdate(&p.Questions[idx], u); err != nil {
		return nil, err
	}
	if err := s.proposals.PutQuestions(ctx, p.ID, p.Questions); err != nil {
		return nil, err
	}
	q := p.Questions[idx]
	s.publish(ctx, questionEvent(redis.EventQuestionUpdated, p, q, nil))
	return &q, nil
}

func (s *proposalService) ImproveQuestion(ctx context.Context, companyID, proposalID uuid.UUID, questionID, feedback string) (*proposal.Question, error) {
	p, err := s.loadOwned(ctx, companyID, proposalID)
	if err != nil {
		return nil, err
	}
	idx, err := findQuestion(p, questionID)
	if err != nil {
		return nil, err
	}
	q := &p.Questions[idx]
	if q.Status == proposal.QuestionPending || q.DraftAnswer == nil {
		return nil, fmt.Errorf("%w: question %s has no draft answer", proposal.ErrInvalidTransition, q.ID)
	}
	improved, err := s.generator.ImproveAnswer(ctx, *q.DraftAnswer, feedback, q.Question)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.ApplyImprovement(q, improved, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.proposals.PutQuestions(ctx, p.ID, p.Questions); err != nil {
		return nil, err
	}
	out := *q
	s.publish(ctx, questionEvent(redis.EventQuestionImproved, p, out, nil))
	return &out, nil
}

// =====================================
// Proposal records
// =====================================

func (s *proposalService) ListProposals(ctx context.Context, companyID uuid.UUID) ([]*proposal.Proposal, error) {
	return s.proposals.ListByCompany(dbctx.Background(ctx), companyID)
}

func (s *proposalService) GetProposal(ctx context.Context, companyID, proposalID uuid.UUID) (*proposal.Proposal, error) {
	return s.loadOwned(ctx, companyID, proposalID)
}

func (s *proposalService) DeleteProposal(ctx context.Context, companyID, proposalID uuid.UUID) error {
	p, err := s.loadOwned(ctx, companyID, proposalID)
	if err != nil {
		return err
	}
	if err := s.proposals.SoftDelete(dbctx.Background(ctx), p.ID); err != nil {
		return err
	}
	s.publish(ctx, redis.Event{Type: redis.EventProposalDeleted, ProposalID: p.ID, CompanyID: p.CompanyID})
	return nil
}

// =====================================
// Events
// =====================================

func questionEvent(t redis.EventType, p *proposal.Proposal, q proposal.Question, payload map[string]any) redis.Event {
	return redis.Event{
		Type:       t,
		ProposalID: p.ID,
		CompanyID:  p.CompanyID,
		QuestionID: q.ID,
		Status:     string(q.Status),
		Payload:    payload,
	}
}

// publish never fails the caller; events are best effort.
func (s *proposalService) publish(ctx context.Context, ev redis.Event) {
	if ev.At.IsZero() {
		ev.At = s.now().UTC()
	}
	if err := s.bus.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.log.Warn("publish proposal event failed", "type", ev.Type, "proposal_id", ev.ProposalID, "error", err)
	}
}
