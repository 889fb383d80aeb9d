package proposals

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
	"github.com/yungbote/proposalpilot-backend/internal/pkg/dbctx"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
)

type KnowledgeRepo interface {
	proposal.KnowledgePool

	Create(dbc dbctx.Context, rows []*proposal.KnowledgeEntry) ([]*proposal.KnowledgeEntry, error)
	ListByCompany(dbc dbctx.Context, companyID uuid.UUID) ([]*proposal.KnowledgeEntry, error)
}

type knowledgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKnowledgeRepo(db *gorm.DB, baseLog *logger.Logger) KnowledgeRepo {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &knowledgeRepo{db: db, log: baseLog.With("repo", "KnowledgeRepo")}
}

func (r *knowledgeRepo) Create(dbc dbctx.Context, rows []*proposal.KnowledgeEntry) ([]*proposal.KnowledgeEntry, error) {
	if len(rows) == 0 {
		return []*proposal.KnowledgeEntry{}, nil
	}
	for _, row := range rows {
		if row == nil || row.CompanyID == uuid.Nil || strings.TrimSpace(row.Title) == "" {
			return nil, fmt.Errorf("%w: knowledge entry needs company_id and title", proposal.ErrInvalidArgument)
		}
		if !row.Category.Valid() {
			row.Category = proposal.CategoryGeneral
		}
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByCompany returns entries in insertion order: created_at, then the
// time-ordered id. Retrieval ties are resolved against this order.
func (r *knowledgeRepo) ListByCompany(dbc dbctx.Context, companyID uuid.UUID) ([]*proposal.KnowledgeEntry, error) {
	out := []*proposal.KnowledgeEntry{}
	if companyID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("company_id = ?", companyID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *knowledgeRepo) ListEntries(ctx context.Context, companyID uuid.UUID) ([]*proposal.KnowledgeEntry, error) {
	return r.ListByCompany(dbctx.Background(ctx), companyID)
}
