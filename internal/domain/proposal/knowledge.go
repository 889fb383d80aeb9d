package proposal

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// KnowledgeEntry is a company-owned reference chunk. The pipeline only reads it.
type KnowledgeEntry struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id" yaml:"id"`
	CompanyID uuid.UUID                   `gorm:"type:uuid;not null;index" json:"company_id" yaml:"company_id"`
	Title     string                      `gorm:"column:title;not null" json:"title" yaml:"title"`
	Content   string                      `gorm:"column:content;not null" json:"content" yaml:"content"`
	Category  Category                    `gorm:"column:category;index" json:"category" yaml:"category"`
	Tags      datatypes.JSONSlice[string] `gorm:"column:tags" json:"tags" yaml:"tags"`

	CreatedAt time.Time `gorm:"not null" json:"created_at" yaml:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at" yaml:"-"`
}

func (KnowledgeEntry) TableName() string { return "knowledge_entry" }

func (k *KnowledgeEntry) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		// v7 ids sort in creation order, which breaks created_at ties within
		// one batch insert.
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		k.ID = id
	}
	return nil
}

// RetrievalHit pairs an entry with its relevance score. Highlight is optional
// backend-supplied excerpt text.
type RetrievalHit struct {
	Entry     *KnowledgeEntry `json:"entry"`
	Score     int             `json:"score"`
	Highlight string          `json:"highlight,omitempty"`
}

type RetrievalResult struct {
	Query string         `json:"query"`
	Hits  []RetrievalHit `json:"hits"`
}
