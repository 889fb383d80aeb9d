package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/extract"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/segment"
)

func newSegmentCmd(opts *rootOptions) *cobra.Command {
	var mediaType string
	cmd := &cobra.Command{
		Use:   "segment <file>",
		Short: "Extract the questions from an RFP document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qs, err := segmentFile(cmd.Context(), opts.logger(), args[0], mediaType)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), qs)
		},
	}
	cmd.Flags().StringVar(&mediaType, "media-type", "", "override the media type inferred from the file extension")
	return cmd
}

func segmentFile(ctx context.Context, log *logger.Logger, path, mediaType string) ([]proposal.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mt := extract.MediaTypeFor(filepath.Base(path), mediaType)
	text, err := extract.New(log, nil).Extract(ctx, data, mt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	qs := segment.New().Segment(extract.Normalize(text))
	if qs == nil {
		qs = []proposal.Question{}
	}
	return qs, nil
}
