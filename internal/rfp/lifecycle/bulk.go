package lifecycle

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
)

// GenerateFunc drafts one question. It must not touch the question itself.
type GenerateFunc func(ctx context.Context, q proposal.Question) (proposal.GeneratedAnswer, error)

type ItemResult struct {
	QuestionID string `json:"question_id"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

type BulkResult struct {
	Processed int          `json:"processed"`
	Failed    int          `json:"failed"`
	Results   []ItemResult `json:"results"`
}

// BulkGenerate drafts every pending question in place. Failures are recorded
// per question and never stop the batch. Results follow question order
// regardless of workers; workers <= 1 runs one call at a time.
func BulkGenerate(ctx context.Context, questions []proposal.Question, fn GenerateFunc, workers int) BulkResult {
	var pending []int
	for i := range questions {
		if questions[i].Status == proposal.QuestionPending {
			pending = append(pending, i)
		}
	}
	results := make([]ItemResult, len(pending))

	run := func(slot, idx int) {
		q := questions[idx]
		res := ItemResult{QuestionID: q.ID}
		if err := ctx.Err(); err != nil {
			res.Error = err.Error()
			results[slot] = res
			return
		}
		ans, err := fn(ctx, q)
		if err != nil {
			res.Error = err.Error()
			results[slot] = res
			return
		}
		ApplyDraft(&questions[idx], ans)
		res.OK = true
		results[slot] = res
	}

	if workers <= 1 {
		for slot, idx := range pending {
			run(slot, idx)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(workers)
		for slot, idx := range pending {
			g.Go(func() error {
				run(slot, idx)
				return nil
			})
		}
		_ = g.Wait()
	}

	out := BulkResult{Results: results}
	for _, r := range results {
		if r.OK {
			out.Processed++
		} else {
			out.Failed++
		}
	}
	return out
}
