package services

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// IngestBatch ingests each file independently. A failing file is reported in
// its result entry and never aborts the others. Results follow input order.
func (s *proposalService) IngestBatch(ctx context.Context, files []UploadedFile) []IngestResult {
	out := make([]IngestResult, len(files))

	var g errgroup.Group
	g.SetLimit(s.cfg.IngestConcurrency)
	for i, f := range files {
		g.Go(func() error {
			res := IngestResult{FileName: f.Name}
			qs, err := s.Ingest(ctx, f.Data, f.MediaType)
			if err != nil {
				s.log.Warn("batch ingest file failed", "file", f.Name, "error", err)
				res.Error = err.Error()
			} else {
				res.Questions = qs
			}
			out[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return out
}
