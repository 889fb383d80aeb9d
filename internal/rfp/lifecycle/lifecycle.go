package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
)

// HumanUpdate is an explicit reviewer action. At least one field is set.
type HumanUpdate struct {
	FinalAnswer *string                  `json:"final_answer,omitempty"`
	Status      *proposal.QuestionStatus `json:"status,omitempty"`
}

// ApplyDraft records a generated answer. pending and drafted questions become
// drafted. Reviewed questions keep both FinalAnswer and status; only a human
// update moves a question between approved and edited.
func ApplyDraft(q *proposal.Question, ans proposal.GeneratedAnswer) {
	text := ans.Answer
	conf := ans.Confidence
	at := ans.GeneratedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	q.DraftAnswer = &text
	q.Confidence = &conf
	q.Sources = append([]string{}, ans.Sources...)
	q.GeneratedAt = &at

	if q.Status != proposal.QuestionApproved && q.Status != proposal.QuestionEdited {
		q.Status = proposal.QuestionDrafted
	}
}

// ApplyHumanUpdate sets the final answer and/or review status. The resulting
// status is approved when the final answer equals the draft and edited
// otherwise. An explicit approval without a final answer copies the draft.
func ApplyHumanUpdate(q *proposal.Question, u HumanUpdate) error {
	if u.FinalAnswer == nil && u.Status == nil {
		return fmt.Errorf("%w: final_answer or status required", proposal.ErrInvalidArgument)
	}
	if q.DraftAnswer == nil {
		return fmt.Errorf("%w: question %s has no draft answer", proposal.ErrInvalidTransition, q.ID)
	}
	if u.Status != nil && *u.Status != proposal.QuestionApproved && *u.Status != proposal.QuestionEdited {
		return fmt.Errorf("%w: %s -> %s", proposal.ErrInvalidTransition, q.Status, *u.Status)
	}

	switch {
	case u.FinalAnswer != nil:
		if strings.TrimSpace(*u.FinalAnswer) == "" {
			return fmt.Errorf("%w: final_answer is empty", proposal.ErrInvalidArgument)
		}
		final := *u.FinalAnswer
		q.FinalAnswer = &final
	case *u.Status == proposal.QuestionApproved:
		final := *q.DraftAnswer
		q.FinalAnswer = &final
	case q.FinalAnswer == nil:
		return fmt.Errorf("%w: edited requires a final answer", proposal.ErrInvalidTransition)
	}
	q.Status = reviewedStatus(q)
	return nil
}

// ApplyImprovement replaces the draft with a revised text. Pending questions
// have nothing to improve. Improvement is reviewer-requested, so a reviewed
// status is re-derived against the new draft.
func ApplyImprovement(q *proposal.Question, text string, at time.Time) error {
	if q.Status == proposal.QuestionPending || q.DraftAnswer == nil {
		return fmt.Errorf("%w: question %s has no draft answer", proposal.ErrInvalidTransition, q.ID)
	}
	revised := text
	q.DraftAnswer = &revised
	if at.IsZero() {
		at = time.Now().UTC()
	}
	q.GeneratedAt = &at
	if q.Status == proposal.QuestionApproved || q.Status == proposal.QuestionEdited {
		q.Status = reviewedStatus(q)
	}
	return nil
}

func reviewedStatus(q *proposal.Question) proposal.QuestionStatus {
	if q.FinalAnswer != nil && q.DraftAnswer != nil && *q.FinalAnswer == *q.DraftAnswer {
		return proposal.QuestionApproved
	}
	return proposal.QuestionEdited
}
