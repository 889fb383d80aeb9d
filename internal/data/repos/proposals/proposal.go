package proposals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
	"github.com/yungbote/proposalpilot-backend/internal/pkg/dbctx"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
)

type ProposalRepo interface {
	proposal.ProposalStore

	Create(dbc dbctx.Context, p *proposal.Proposal) (*proposal.Proposal, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*proposal.Proposal, error)
	ListByCompany(dbc dbctx.Context, companyID uuid.UUID) ([]*proposal.Proposal, error)
	UpdateQuestions(dbc dbctx.Context, id uuid.UUID, questions []proposal.Question) error
	SoftDelete(dbc dbctx.Context, id uuid.UUID) error
}

type proposalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProposalRepo(db *gorm.DB, baseLog *logger.Logger) ProposalRepo {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &proposalRepo{db: db, log: baseLog.With("repo", "ProposalRepo")}
}

func (r *proposalRepo) Create(dbc dbctx.Context, p *proposal.Proposal) (*proposal.Proposal, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil proposal", proposal.ErrInvalidArgument)
	}
	if p.Questions == nil {
		p.Questions = datatypes.NewJSONSlice([]proposal.Question{})
	}
	if err := dbc.DB(r.db).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID treats soft-deleted proposals as missing.
func (r *proposalRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*proposal.Proposal, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("proposal %s: %w", id, proposal.ErrNotFound)
	}
	var out proposal.Proposal
	err := dbc.DB(r.db).
		Where("id = ? AND status <> ?", id, proposal.StatusDeleted).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("proposal %s: %w", id, proposal.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *proposalRepo) ListByCompany(dbc dbctx.Context, companyID uuid.UUID) ([]*proposal.Proposal, error) {
	out := []*proposal.Proposal{}
	if companyID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("company_id = ? AND status <> ?", companyID, proposal.StatusDeleted).
		Order("created_at DESC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateQuestions replaces the whole question list; last writer wins.
func (r *proposalRepo) UpdateQuestions(dbc dbctx.Context, id uuid.UUID, questions []proposal.Question) error {
	if questions == nil {
		questions = []proposal.Question{}
	}
	res := dbc.DB(r.db).
		Model(&proposal.Proposal{}).
		Where("id = ? AND status <> ?", id, proposal.StatusDeleted).
		Updates(map[string]interface{}{
			"questions":  datatypes.NewJSONSlice(questions),
			"status":     proposal.StatusActive,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("proposal %s: %w", id, proposal.ErrNotFound)
	}
	return nil
}

func (r *proposalRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.DB(r.db).
		Model(&proposal.Proposal{}).
		Where("id = ? AND status <> ?", id, proposal.StatusDeleted).
		Updates(map[string]interface{}{
			"status":     proposal.StatusDeleted,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("proposal %s: %w", id, proposal.ErrNotFound)
	}
	return nil
}

func (r *proposalRepo) Get(ctx context.Context, id uuid.UUID) (*proposal.Proposal, error) {
	return r.GetByID(dbctx.Background(ctx), id)
}

func (r *proposalRepo) PutQuestions(ctx context.Context, id uuid.UUID, questions []proposal.Question) error {
	return r.UpdateQuestions(dbctx.Background(ctx), id, questions)
}
