package proposal

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusDraft   Status = "draft"
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// Proposal is one RFP response effort. Questions are embedded and always
// written back as a whole list.
type Proposal struct {
	ID              uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID                     `gorm:"type:uuid;not null;index" json:"user_id"`
	CompanyID       uuid.UUID                     `gorm:"type:uuid;not null;index" json:"company_id"`
	Title           string                        `gorm:"column:title;not null" json:"title"`
	ClientName      string                        `gorm:"column:client_name" json:"client_name"`
	SourceFileKey   string                        `gorm:"column:source_file_key" json:"source_file_key"`
	SourceMediaType string                        `gorm:"column:source_media_type" json:"source_media_type"`
	Questions       datatypes.JSONSlice[Question] `gorm:"column:questions" json:"questions"`
	Status          Status                        `gorm:"column:status;not null;default:'draft';index" json:"status"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Proposal) TableName() string { return "proposal" }

func (p *Proposal) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	return nil
}

// FindQuestion returns the index of the question with the given id, or -1.
func (p *Proposal) FindQuestion(id string) int {
	if p == nil {
		return -1
	}
	for i := range p.Questions {
		if p.Questions[i].ID == id {
			return i
		}
	}
	return -1
}
