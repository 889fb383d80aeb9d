package segment

import (
	"strings"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
)

type keywordSet struct {
	Category proposal.Category
	Keywords []string
}

// keywordTable is checked top to bottom; the first set with a hit wins.
// "pricing" extends the pricing set so "What is your pricing model?" matches.
var keywordTable = []keywordSet{
	{proposal.CategoryPricing, []string{"price", "pricing", "cost", "budget", "payment"}},
	{proposal.CategoryTechnical, []string{"technical", "technology", "architecture", "integration"}},
	{proposal.CategoryTimeline, []string{"timeline", "schedule", "delivery", "deadline"}},
	{proposal.CategoryExperience, []string{"experience", "qualification", "reference", "portfolio"}},
	{proposal.CategorySecurity, []string{"security", "compliance", "privacy", "gdpr"}},
	{proposal.CategorySupport, []string{"support", "maintenance", "warranty", "sla"}},
}

// Classify assigns a category by case-insensitive substring match.
func Classify(text string) proposal.Category {
	lower := strings.ToLower(text)
	for _, set := range keywordTable {
		for _, kw := range set.Keywords {
			if strings.Contains(lower, kw) {
				return set.Category
			}
		}
	}
	return proposal.CategoryGeneral
}
