package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
)

func strptr(s string) *string { return &s }

func statusptr(s proposal.QuestionStatus) *proposal.QuestionStatus { return &s }

func pendingQuestions(n int) []proposal.Question {
	out := make([]proposal.Question, n)
	for i := range out {
		out[i] = proposal.Question{
			ID:       fmt.Sprintf("q%d", i+1),
			Question: fmt.Sprintf("Question number %d?", i+1),
			Status:   proposal.QuestionPending,
		}
	}
	return out
}

func answer(text string) proposal.GeneratedAnswer {
	return proposal.GeneratedAnswer{
		Answer:      text,
		Confidence:  0.85,
		Sources:     []string{"Knowledge Base"},
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestApplyDraft(t *testing.T) {
	q := pendingQuestions(1)[0]
	ApplyDraft(&q, answer("first"))
	if q.Status != proposal.QuestionDrafted || *q.DraftAnswer != "first" || *q.Confidence != 0.85 || q.GeneratedAt == nil {
		t.Fatalf("unexpected drafted question %+v", q)
	}
	if q.FinalAnswer != nil {
		t.Fatalf("generator must not set final answer")
	}

	ApplyDraft(&q, answer("second"))
	if q.Status != proposal.QuestionDrafted || *q.DraftAnswer != "second" {
		t.Fatalf("regenerate should stay drafted, got %+v", q)
	}

	if err := ApplyHumanUpdate(&q, HumanUpdate{FinalAnswer: strptr("human text")}); err != nil {
		t.Fatalf("ApplyHumanUpdate: %v", err)
	}
	ApplyDraft(&q, answer("third"))
	if q.Status != proposal.QuestionEdited || *q.FinalAnswer != "human text" || *q.DraftAnswer != "third" {
		t.Fatalf("regenerate must keep the human final answer, got %+v", q)
	}
}

func TestApplyDraftKeepsApproval(t *testing.T) {
	q := pendingQuestions(1)[0]
	ApplyDraft(&q, answer("draft one"))
	if err := ApplyHumanUpdate(&q, HumanUpdate{Status: statusptr(proposal.QuestionApproved)}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	ApplyDraft(&q, answer("draft two"))
	if q.Status != proposal.QuestionApproved {
		t.Fatalf("regeneration changed review status to %s", q.Status)
	}
	if *q.FinalAnswer != "draft one" || *q.DraftAnswer != "draft two" {
		t.Fatalf("unexpected answers final=%q draft=%q", *q.FinalAnswer, *q.DraftAnswer)
	}
}

func TestApplyImprovementRederivesReview(t *testing.T) {
	q := pendingQuestions(1)[0]
	ApplyDraft(&q, answer("draft"))
	if err := ApplyHumanUpdate(&q, HumanUpdate{Status: statusptr(proposal.QuestionApproved)}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := ApplyImprovement(&q, "improved", time.Time{}); err != nil {
		t.Fatalf("ApplyImprovement: %v", err)
	}
	if q.Status != proposal.QuestionEdited || *q.FinalAnswer != "draft" {
		t.Fatalf("improved draft should no longer match the approval, got %+v", q)
	}
}

func TestApplyHumanUpdate(t *testing.T) {
	q := pendingQuestions(1)[0]
	if err := ApplyHumanUpdate(&q, HumanUpdate{Status: statusptr(proposal.QuestionApproved)}); !errors.Is(err, proposal.ErrInvalidTransition) {
		t.Fatalf("pending question should reject review, got %v", err)
	}

	ApplyDraft(&q, answer("draft"))
	if err := ApplyHumanUpdate(&q, HumanUpdate{}); !errors.Is(err, proposal.ErrInvalidArgument) {
		t.Fatalf("empty update should be rejected, got %v", err)
	}
	if err := ApplyHumanUpdate(&q, HumanUpdate{Status: statusptr(proposal.QuestionPending)}); !errors.Is(err, proposal.ErrInvalidTransition) {
		t.Fatalf("reset to pending should be rejected, got %v", err)
	}
	if err := ApplyHumanUpdate(&q, HumanUpdate{Status: statusptr(proposal.QuestionEdited)}); !errors.Is(err, proposal.ErrInvalidTransition) {
		t.Fatalf("edited without final answer should be rejected, got %v", err)
	}

	if err := ApplyHumanUpdate(&q, HumanUpdate{Status: statusptr(proposal.QuestionApproved)}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if q.Status != proposal.QuestionApproved || *q.FinalAnswer != "draft" {
		t.Fatalf("approval should copy the draft, got %+v", q)
	}

	if err := ApplyHumanUpdate(&q, HumanUpdate{FinalAnswer: strptr("changed")}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if q.Status != proposal.QuestionEdited {
		t.Fatalf("differing final answer should be edited, got %s", q.Status)
	}

	if err := ApplyHumanUpdate(&q, HumanUpdate{FinalAnswer: strptr("draft"), Status: statusptr(proposal.QuestionEdited)}); err != nil {
		t.Fatalf("edit back: %v", err)
	}
	if q.Status != proposal.QuestionApproved {
		t.Fatalf("final equal to draft should be approved, got %s", q.Status)
	}
}

func TestApplyImprovement(t *testing.T) {
	q := pendingQuestions(1)[0]
	if err := ApplyImprovement(&q, "x", time.Time{}); !errors.Is(err, proposal.ErrInvalidTransition) {
		t.Fatalf("pending improvement should be rejected, got %v", err)
	}
	ApplyDraft(&q, answer("draft"))
	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if err := ApplyImprovement(&q, "better draft", at); err != nil {
		t.Fatalf("ApplyImprovement: %v", err)
	}
	if q.Status != proposal.QuestionDrafted || *q.DraftAnswer != "better draft" || !q.GeneratedAt.Equal(at) {
		t.Fatalf("unexpected improved question %+v", q)
	}
}

func TestBulkGeneratePartialFailure(t *testing.T) {
	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			qs := pendingQuestions(3)
			fn := func(ctx context.Context, q proposal.Question) (proposal.GeneratedAnswer, error) {
				if q.ID == "q2" {
					return proposal.GeneratedAnswer{}, &proposal.InvocationError{StatusCode: 400, Err: errors.New("bad request")}
				}
				return answer("answer for " + q.ID), nil
			}
			res := BulkGenerate(context.Background(), qs, fn, workers)
			if res.Processed != 2 || res.Failed != 1 || len(res.Results) != 3 {
				t.Fatalf("unexpected tally %+v", res)
			}
			for i, id := range []string{"q1", "q2", "q3"} {
				if res.Results[i].QuestionID != id {
					t.Fatalf("result order broken: %+v", res.Results)
				}
			}
			if res.Results[1].OK || res.Results[1].Error == "" {
				t.Fatalf("expected failure entry for q2, got %+v", res.Results[1])
			}
			if qs[0].Status != proposal.QuestionDrafted || qs[2].Status != proposal.QuestionDrafted {
				t.Fatalf("q1 and q3 should be drafted")
			}
			if qs[1].Status != proposal.QuestionPending || qs[1].DraftAnswer != nil {
				t.Fatalf("q2 should stay pending, got %+v", qs[1])
			}
		})
	}
}

func TestBulkGenerateOnlyPending(t *testing.T) {
	qs := pendingQuestions(3)
	ApplyDraft(&qs[0], answer("existing"))
	var calls int32
	fn := func(ctx context.Context, q proposal.Question) (proposal.GeneratedAnswer, error) {
		atomic.AddInt32(&calls, 1)
		return answer("new"), nil
	}
	res := BulkGenerate(context.Background(), qs, fn, 4)
	if atomic.LoadInt32(&calls) != 2 || res.Processed != 2 || len(res.Results) != 2 {
		t.Fatalf("expected 2 calls on pending questions, got calls=%d res=%+v", calls, res)
	}
	if *qs[0].DraftAnswer != "existing" {
		t.Fatalf("drafted question was regenerated")
	}
}

func TestBulkGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	qs := pendingQuestions(2)
	fn := func(ctx context.Context, q proposal.Question) (proposal.GeneratedAnswer, error) {
		t.Fatalf("fn must not run after cancellation")
		return proposal.GeneratedAnswer{}, nil
	}
	res := BulkGenerate(ctx, qs, fn, 1)
	if res.Processed != 0 || res.Failed != 2 {
		t.Fatalf("unexpected tally %+v", res)
	}
}
