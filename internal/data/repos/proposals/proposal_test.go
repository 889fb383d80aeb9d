package proposals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/proposalpilot-backend/internal/data/repos/testutil"
	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
	"github.com/yungbote/proposalpilot-backend/internal/pkg/dbctx"
)

func strPtr(s string) *string { return &s }

func TestProposalRepoCreateGetUpdate(t *testing.T) {
	db := testutil.DB(t)
	repo := NewProposalRepo(db, testutil.Logger(t))
	ctx := context.Background()
	dbc := dbctx.Background(ctx)

	companyID := uuid.New()
	p, err := repo.Create(dbc, &proposal.Proposal{
		UserID:    uuid.New(),
		CompanyID: companyID,
		Title:     "City of Springfield IT RFP",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == uuid.Nil || p.Status != proposal.StatusDraft {
		t.Fatalf("expected id and draft status, got %+v", p)
	}

	got, err := repo.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Questions) != 0 {
		t.Fatalf("expected no questions, got %d", len(got.Questions))
	}

	qs := []proposal.Question{
		{ID: "q1", Question: "What is your SLA?", Section: "General", Category: proposal.CategorySupport, Status: proposal.QuestionPending, Sources: []string{}},
		{ID: "q2", Question: "Describe your pricing model.", Section: "General", Category: proposal.CategoryPricing, Status: proposal.QuestionDrafted, DraftAnswer: strPtr("We price per seat."), Sources: []string{"AI Generated"}},
	}
	if err := repo.PutQuestions(ctx, p.ID, qs); err != nil {
		t.Fatalf("PutQuestions: %v", err)
	}
	got, err = repo.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get after put: %v", err)
	}
	if got.Status != proposal.StatusActive || len(got.Questions) != 2 {
		t.Fatalf("unexpected proposal after put: %+v", got)
	}
	if got.Questions[1].DraftAnswer == nil || *got.Questions[1].DraftAnswer != "We price per seat." {
		t.Fatalf("draft answer not persisted: %+v", got.Questions[1])
	}
	if got.Questions[0].ID != "q1" || got.Questions[1].ID != "q2" {
		t.Fatalf("question order not preserved")
	}
}

func TestProposalRepoNotFound(t *testing.T) {
	db := testutil.DB(t)
	repo := NewProposalRepo(db, nil)
	ctx := context.Background()

	if _, err := repo.Get(ctx, uuid.New()); !errors.Is(err, proposal.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.PutQuestions(ctx, uuid.New(), nil); !errors.Is(err, proposal.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on put, got %v", err)
	}
	if err := repo.SoftDelete(dbctx.Background(ctx), uuid.New()); !errors.Is(err, proposal.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestProposalRepoListAndSoftDelete(t *testing.T) {
	db := testutil.DB(t)
	repo := NewProposalRepo(db, nil)
	dbc := dbctx.Background(context.Background())

	companyID := uuid.New()
	var ids []uuid.UUID
	for i, title := range []string{"first", "second", "third"} {
		p, err := repo.Create(dbc, &proposal.Proposal{
			UserID:    uuid.New(),
			CompanyID: companyID,
			Title:     title,
			CreatedAt: time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("Create %s: %v", title, err)
		}
		ids = append(ids, p.ID)
	}
	if _, err := repo.Create(dbc, &proposal.Proposal{UserID: uuid.New(), CompanyID: uuid.New(), Title: "other company"}); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	if err := repo.SoftDelete(dbc, ids[1]); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	list, err := repo.ListByCompany(dbc, companyID)
	if err != nil {
		t.Fatalf("ListByCompany: %v", err)
	}
	if len(list) != 2 || list[0].Title != "third" || list[1].Title != "first" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if _, err := repo.GetByID(dbc, ids[1]); !errors.Is(err, proposal.ErrNotFound) {
		t.Fatalf("deleted proposal should be not found, got %v", err)
	}
	if err := repo.PutQuestions(context.Background(), ids[1], nil); !errors.Is(err, proposal.ErrNotFound) {
		t.Fatalf("deleted proposal should reject writes, got %v", err)
	}
}
