package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/yungbote/proposalpilot-backend/internal/platform/envutil"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
)

type rootOptions struct {
	verbose bool
}

// NewRootCmd builds the rfpctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "rfpctl",
		Short: "RFP proposal pipeline tools",
		Long: `rfpctl runs the proposal API server and exposes the pipeline stages
for local use: segmenting RFP documents, classifying questions, searching a
knowledge file, drafting answers and watching an inbox directory.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline activity to stderr")

	root.AddCommand(
		newServeCmd(),
		newSegmentCmd(opts),
		newClassifyCmd(),
		newRetrieveCmd(),
		newDraftCmd(opts),
		newWatchCmd(opts),
		newTokenCmd(),
	)
	return root
}

func (o *rootOptions) logger() *logger.Logger {
	if o == nil || !o.verbose {
		return logger.Nop()
	}
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return logger.Nop()
	}
	return log
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
