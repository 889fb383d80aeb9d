package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/proposalpilot-backend/internal/data/repos/proposals"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
)

type ProposalRepo = proposals.ProposalRepo
type KnowledgeRepo = proposals.KnowledgeRepo

type Repos struct {
	Proposals ProposalRepo
	Knowledge KnowledgeRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Proposals: proposals.NewProposalRepo(db, log),
		Knowledge: proposals.NewKnowledgeRepo(db, log),
	}
}
