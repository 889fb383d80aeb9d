package proposal

import "time"

type Category string

const (
	CategoryPricing    Category = "pricing"
	CategoryTechnical  Category = "technical"
	CategoryTimeline   Category = "timeline"
	CategoryExperience Category = "experience"
	CategorySecurity   Category = "security"
	CategorySupport    Category = "support"
	CategoryGeneral    Category = "general"
)

// Categories lists the taxonomy in classification priority order, general last.
var Categories = []Category{
	CategoryPricing,
	CategoryTechnical,
	CategoryTimeline,
	CategoryExperience,
	CategorySecurity,
	CategorySupport,
	CategoryGeneral,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type QuestionStatus string

const (
	QuestionPending  QuestionStatus = "pending"
	QuestionDrafted  QuestionStatus = "drafted"
	QuestionApproved QuestionStatus = "approved"
	QuestionEdited   QuestionStatus = "edited"
)

type Question struct {
	ID          string         `json:"id"`
	Question    string         `json:"question"`
	Section     string         `json:"section"`
	Category    Category       `json:"category"`
	Status      QuestionStatus `json:"status"`
	DraftAnswer *string        `json:"draft_answer"`
	FinalAnswer *string        `json:"final_answer"`
	Confidence  *float64       `json:"confidence"`
	Sources     []string       `json:"sources"`
	GeneratedAt *time.Time     `json:"generated_at"`
}

// GeneratedAnswer is produced by the generator and consumed immediately to
// update a Question.
type GeneratedAnswer struct {
	Answer      string    `json:"answer"`
	Confidence  float64   `json:"confidence"`
	Sources     []string  `json:"sources"`
	GeneratedAt time.Time `json:"generated_at"`
	Fallback    bool      `json:"fallback"`
}
