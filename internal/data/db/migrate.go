package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&proposal.Proposal{},
		&proposal.KnowledgeEntry{},
	)
}

// EnsureIndexes adds the composite indexes used by list queries.
func EnsureIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_proposal_company_status_created
		ON proposal (company_id, status, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_proposal_company_status_created: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_knowledge_entry_company_created
		ON knowledge_entry (company_id, created_at, id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_knowledge_entry_company_created: %w", err)
	}
	return nil
}
