package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/proposalpilot-backend/internal/clients/redis"
	"github.com/yungbote/proposalpilot-backend/internal/data/repos"
	"github.com/yungbote/proposalpilot-backend/internal/data/repos/testutil"
	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
	"github.com/yungbote/proposalpilot-backend/internal/pkg/dbctx"
	"github.com/yungbote/proposalpilot-backend/internal/platform/gcp"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/generate"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/lifecycle"
)

const rfpText = "SECTION 1: GENERAL\n1. What is your pricing model?\nSome filler.\n2. Describe your security practices?\n3. What is your implementation timeline?"

// scriptedInvoker answers calls in order; errs[i] fails the i-th call.
type scriptedInvoker struct {
	mu    sync.Mutex
	calls int
	errs  map[int]error
	reply string
}

func (f *scriptedInvoker) Invoke(ctx context.Context, req proposal.InvokeRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[f.calls]; ok {
		return "", err
	}
	return f.reply, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []redis.Event
}

func (b *recordingBus) Publish(ctx context.Context, ev redis.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}
func (b *recordingBus) Subscribe(context.Context, func(redis.Event)) error { return nil }
func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) types() []redis.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]redis.EventType, 0, len(b.events))
	for _, ev := range b.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	svc     ProposalService
	repos   repos.Repos
	bus     *recordingBus
	invoker *scriptedInvoker
	blobs   gcp.BlobStore
	company uuid.UUID
	user    uuid.UUID
}

func newFixture(t *testing.T, workers int) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	rs := repos.New(db, log)
	blobs, err := gcp.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	inv := &scriptedInvoker{reply: "We deliver a tailored answer.", errs: map[int]error{}}
	bus := &recordingBus{}
	svc := NewProposalService(log, ProposalServiceDeps{
		Proposals: rs.Proposals,
		Knowledge: rs.Knowledge,
		Blobs:     blobs,
		Bus:       bus,
		Generator: generate.New(log, inv, generate.DefaultConfig()),
	}, ProposalServiceConfig{TopK: 5, BulkWorkers: workers})
	return &fixture{svc: svc, repos: rs, bus: bus, invoker: inv, blobs: blobs, company: uuid.New(), user: uuid.New()}
}

func (f *fixture) create(t *testing.T) *proposal.Proposal {
	t.Helper()
	p, err := f.svc.CreateProposal(context.Background(), CreateProposalInput{
		UserID:     f.user,
		CompanyID:  f.company,
		ClientName: "City of Springfield",
		File:       UploadedFile{Name: "springfield-rfp.txt", MediaType: "text/plain", Data: []byte(rfpText)},
	})
	if err != nil {
		t.Fatalf("CreateProposal: %v", err)
	}
	return p
}

func TestCreateProposalHeuristic(t *testing.T) {
	f := newFixture(t, 1)
	p := f.create(t)

	if p.Title != "springfield-rfp" {
		t.Fatalf("title should default to file name, got %q", p.Title)
	}
	if len(p.Questions) != 3 || p.Questions[0].Category != proposal.CategoryPricing {
		t.Fatalf("unexpected questions: %+v", p.Questions)
	}
	data, err := f.blobs.GetBytes(context.Background(), p.SourceFileKey)
	if err != nil || string(data) != rfpText {
		t.Fatalf("source file not stored under %q: %v", p.SourceFileKey, err)
	}
	if !strings.HasPrefix(p.SourceFileKey, "proposals/"+f.company.String()+"/") {
		t.Fatalf("unexpected storage key %q", p.SourceFileKey)
	}
	if types := f.bus.types(); len(types) != 1 || types[0] != redis.EventProposalCreated {
		t.Fatalf("unexpected events %v", types)
	}
	if f.invoker.calls != 0 {
		t.Fatalf("heuristic mode must not call the model")
	}
}

func TestCreateProposalAIModeFallsBackWhenUnavailable(t *testing.T) {
	f := newFixture(t, 1)
	f.invoker.errs[1] = &proposal.InvocationError{StatusCode: 503, Unavailable: true, Err: errors.New("down")}

	p, err := f.svc.CreateProposal(context.Background(), CreateProposalInput{
		UserID: f.user, CompanyID: f.company, Title: "AI", Mode: ModeAI,
		File: UploadedFile{Name: "rfp.txt", MediaType: "text/plain", Data: []byte(rfpText)},
	})
	if err != nil {
		t.Fatalf("CreateProposal: %v", err)
	}
	if len(p.Questions) != 3 {
		t.Fatalf("expected heuristic fallback questions, got %+v", p.Questions)
	}
}

func TestCreateProposalRejectsBadInput(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	_, err := f.svc.CreateProposal(ctx, CreateProposalInput{UserID: f.user, CompanyID: f.company, Mode: "magic",
		File: UploadedFile{Name: "a.txt", MediaType: "text/plain", Data: []byte(rfpText)}})
	if !errors.Is(err, proposal.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for mode, got %v", err)
	}
	_, err = f.svc.CreateProposal(ctx, CreateProposalInput{UserID: f.user, CompanyID: f.company,
		File: UploadedFile{Name: "a.png", MediaType: "image/png", Data: []byte{1, 2, 3}}})
	if !errors.Is(err, proposal.ErrUnsupportedMediaType) {
		t.Fatalf("expected ErrUnsupportedMediaType, got %v", err)
	}
}

func TestBulkGeneratePartialFailure(t *testing.T) {
	for _, workers := range []int{1, 3} {
		f := newFixture(t, workers)
		p := f.create(t)
		if workers == 1 {
			f.invoker.errs[2] = &proposal.InvocationError{StatusCode: 500, Err: errors.New("boom")}
		} else {
			f.invoker.errs = nil
		}

		res, err := f.svc.BulkGenerate(context.Background(), f.company, p.ID)
		if err != nil {
			t.Fatalf("workers=%d BulkGenerate: %v", workers, err)
		}
		got, err := f.repos.Proposals.Get(context.Background(), p.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if workers == 1 {
			if res.Processed != 2 || res.Failed != 1 || len(res.Results) != 3 {
				t.Fatalf("unexpected tally %+v", res)
			}
			if res.Results[1].QuestionID != "q2" || res.Results[1].OK || res.Results[1].Error == "" {
				t.Fatalf("q2 should carry the failure: %+v", res.Results[1])
			}
			want := []proposal.QuestionStatus{proposal.QuestionDrafted, proposal.QuestionPending, proposal.QuestionDrafted}
			for i, q := range got.Questions {
				if q.Status != want[i] {
					t.Fatalf("q%d status = %s, want %s", i+1, q.Status, want[i])
				}
			}
		} else if res.Processed != 3 || res.Failed != 0 {
			t.Fatalf("workers=%d unexpected tally %+v", workers, res)
		}
		if q := got.Questions[0]; q.DraftAnswer == nil || q.Sources[0] != generate.SourceAIGenerated {
			t.Fatalf("q1 draft not persisted: %+v", q)
		}
	}
}

func TestBulkGenerateSkipsNonPending(t *testing.T) {
	f := newFixture(t, 1)
	p := f.create(t)
	ctx := context.Background()
	if _, err := f.svc.GenerateForQuestion(ctx, f.company, p.ID, "q1"); err != nil {
		t.Fatalf("GenerateForQuestion: %v", err)
	}
	res, err := f.svc.BulkGenerate(ctx, f.company, p.ID)
	if err != nil {
		t.Fatalf("BulkGenerate: %v", err)
	}
	if len(res.Results) != 2 || res.Results[0].QuestionID != "q2" {
		t.Fatalf("only pending questions should run: %+v", res)
	}
}

func TestGenerateForQuestionUsesKnowledge(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	entry, err := f.svc.CreateKnowledgeEntry(ctx, &proposal.KnowledgeEntry{
		CompanyID: f.company,
		Title:     "Security Program",
		Content:   "We encrypt data at rest and maintain SOC 2 security controls.",
	})
	if err != nil {
		t.Fatalf("CreateKnowledgeEntry: %v", err)
	}
	if entry.Category != proposal.CategorySecurity {
		t.Fatalf("entry category should be classified, got %q", entry.Category)
	}
	p := f.create(t)

	q, err := f.svc.GenerateForQuestion(ctx, f.company, p.ID, "q2")
	if err != nil {
		t.Fatalf("GenerateForQuestion: %v", err)
	}
	if q.Status != proposal.QuestionDrafted || *q.Confidence != generate.ConfidenceWithContext {
		t.Fatalf("unexpected question %+v", q)
	}
	if len(q.Sources) != 2 || q.Sources[0] != generate.SourceKnowledgeBase || q.Sources[1] != entry.ID.String() {
		t.Fatalf("unexpected sources %v", q.Sources)
	}

	ctxStrings, err := f.svc.RetrieveContext(ctx, "security practices", f.company, 0)
	if err != nil || len(ctxStrings) != 1 || !strings.Contains(ctxStrings[0], "(Source: Security Program)") {
		t.Fatalf("RetrieveContext = %v, %v", ctxStrings, err)
	}
}

func TestGenerateForQuestionFallback(t *testing.T) {
	f := newFixture(t, 1)
	p := f.create(t)
	f.invoker.errs[1] = &proposal.InvocationError{StatusCode: 404, Unavailable: true, Err: errors.New("model_not_found")}

	q, err := f.svc.GenerateForQuestion(context.Background(), f.company, p.ID, "q1")
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}
	if *q.Confidence != generate.ConfidenceFallback || q.Sources[0] != generate.SourceFallback {
		t.Fatalf("expected fallback answer, got %+v", q)
	}
}

func TestUpdateAndImproveQuestion(t *testing.T) {
	f := newFixture(t, 1)
	p := f.create(t)
	ctx := context.Background()

	if _, err := f.svc.ImproveQuestion(ctx, f.company, p.ID, "q1", "shorter"); !errors.Is(err, proposal.ErrInvalidTransition) {
		t.Fatalf("improving a pending question should fail, got %v", err)
	}
	if f.invoker.calls != 0 {
		t.Fatalf("model must not be called for a pending question")
	}
	if _, err := f.svc.GenerateForQuestion(ctx, f.company, p.ID, "q1"); err != nil {
		t.Fatalf("GenerateForQuestion: %v", err)
	}

	approved := proposal.QuestionApproved
	q, err := f.svc.UpdateQuestion(ctx, f.company, p.ID, "q1", lifecycle.HumanUpdate{Status: &approved})
	if err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}
	if q.Status != proposal.QuestionApproved || *q.FinalAnswer != *q.DraftAnswer {
		t.Fatalf("approve should copy draft: %+v", q)
	}

	f.invoker.reply = "A regenerated answer."
	q, err = f.svc.GenerateForQuestion(ctx, f.company, p.ID, "q1")
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if q.Status != proposal.QuestionApproved || *q.DraftAnswer != "A regenerated answer." || *q.FinalAnswer == *q.DraftAnswer {
		t.Fatalf("regeneration must keep the approval and final answer: %+v", q)
	}

	f.invoker.reply = "A tighter answer."
	q, err = f.svc.ImproveQuestion(ctx, f.company, p.ID, "q1", "shorter")
	if err != nil {
		t.Fatalf("ImproveQuestion: %v", err)
	}
	if *q.DraftAnswer != "A tighter answer." || q.Status != proposal.QuestionEdited {
		t.Fatalf("improvement should replace draft and re-derive status: %+v", q)
	}

	got, _ := f.svc.GetProposal(ctx, f.company, p.ID)
	if got.Questions[0].Status != proposal.QuestionEdited {
		t.Fatalf("improvement not persisted")
	}
	types := f.bus.types()
	if types[len(types)-1] != redis.EventQuestionImproved {
		t.Fatalf("unexpected events %v", types)
	}
}

func TestOwnershipAndDelete(t *testing.T) {
	f := newFixture(t, 1)
	p := f.create(t)
	ctx := context.Background()
	other := uuid.New()

	if _, err := f.svc.GetProposal(ctx, other, p.ID); !errors.Is(err, proposal.ErrNotFound) {
		t.Fatalf("other company should not see proposal, got %v", err)
	}
	if _, err := f.svc.GenerateForQuestion(ctx, f.company, p.ID, "q99"); !errors.Is(err, proposal.ErrNotFound) {
		t.Fatalf("unknown question should be not found, got %v", err)
	}
	if err := f.svc.DeleteProposal(ctx, other, p.ID); !errors.Is(err, proposal.ErrNotFound) {
		t.Fatalf("other company cannot delete, got %v", err)
	}

	list, err := f.svc.ListProposals(ctx, f.company)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListProposals = %v, %v", list, err)
	}
	if err := f.svc.DeleteProposal(ctx, f.company, p.ID); err != nil {
		t.Fatalf("DeleteProposal: %v", err)
	}
	if _, err := f.svc.GetProposal(ctx, f.company, p.ID); !errors.Is(err, proposal.ErrNotFound) {
		t.Fatalf("deleted proposal should be not found, got %v", err)
	}
	list, _ = f.repos.Proposals.ListByCompany(dbctx.Background(ctx), f.company)
	if len(list) != 0 {
		t.Fatalf("deleted proposal should not be listed")
	}
}

func TestReextract(t *testing.T) {
	f := newFixture(t, 1)
	p := f.create(t)
	ctx := context.Background()

	again, err := f.svc.Reextract(ctx, f.company, p.ID, ModeHeuristic)
	if err != nil || len(again.Questions) != 3 {
		t.Fatalf("Reextract = %+v, %v", again, err)
	}
	if _, err := f.svc.GenerateForQuestion(ctx, f.company, p.ID, "q1"); err != nil {
		t.Fatalf("GenerateForQuestion: %v", err)
	}
	if _, err := f.svc.Reextract(ctx, f.company, p.ID, ModeHeuristic); !errors.Is(err, proposal.ErrInvalidTransition) {
		t.Fatalf("reextract after drafting should be refused, got %v", err)
	}
}

func TestIngestBatchPerFileResults(t *testing.T) {
	f := newFixture(t, 1)
	results := f.svc.IngestBatch(context.Background(), []UploadedFile{
		{Name: "good.txt", MediaType: "text/plain", Data: []byte(rfpText)},
		{Name: "bad.png", MediaType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
		{Name: "broken.pdf", MediaType: "application/pdf", Data: []byte("not a pdf")},
	})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].FileName != "good.txt" || results[0].Error != "" || len(results[0].Questions) != 3 {
		t.Fatalf("unexpected good result %+v", results[0])
	}
	if results[1].Error == "" || !strings.Contains(results[1].Error, "unsupported media type") {
		t.Fatalf("expected media type error, got %+v", results[1])
	}
	if results[2].Error == "" {
		t.Fatalf("expected extraction error, got %+v", results[2])
	}
}

func TestClassifyPriority(t *testing.T) {
	f := newFixture(t, 1)
	if got := f.svc.Classify("What is the cost of your security audit?"); got != proposal.CategoryPricing {
		t.Fatalf("Classify = %q, want pricing", got)
	}
}
