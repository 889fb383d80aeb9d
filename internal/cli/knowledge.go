package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
	"github.com/yungbote/proposalpilot-backend/internal/platform/openai"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/generate"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/retrieve"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/segment"
)

// knowledgeFile is the on-disk pool used by the retrieve and draft commands.
type knowledgeFile struct {
	Entries []*proposal.KnowledgeEntry `yaml:"entries"`
}

// loadKnowledge reads a YAML pool. Entries without an id get a fresh one and
// entries without a category are classified from their text.
func loadKnowledge(path string) ([]*proposal.KnowledgeEntry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var kf knowledgeFile
	if err := yaml.Unmarshal(raw, &kf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make([]*proposal.KnowledgeEntry, 0, len(kf.Entries))
	for i, e := range kf.Entries {
		if e == nil {
			continue
		}
		if strings.TrimSpace(e.Title) == "" {
			return nil, fmt.Errorf("%s: entry %d: %w: title is required", path, i, proposal.ErrInvalidArgument)
		}
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		if !e.Category.Valid() {
			e.Category = segment.Classify(e.Title + " " + e.Content)
		}
		out = append(out, e)
	}
	return out, nil
}

func newRetrieveCmd() *cobra.Command {
	var kbPath string
	var topK int
	cmd := &cobra.Command{
		Use:   "retrieve <query>...",
		Short: "Rank knowledge entries against a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := loadKnowledge(kbPath)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			hits := retrieve.New(topK).Retrieve(query, pool, topK)
			return writeJSON(cmd.OutOrStdout(), proposal.RetrievalResult{Query: query, Hits: hits})
		},
	}
	cmd.Flags().StringVar(&kbPath, "kb", "", "knowledge pool YAML file")
	cmd.Flags().IntVar(&topK, "top-k", retrieve.DefaultTopK, "maximum number of hits")
	_ = cmd.MarkFlagRequired("kb")
	return cmd
}

func newDraftCmd(opts *rootOptions) *cobra.Command {
	var kbPath string
	var topK int
	cmd := &cobra.Command{
		Use:   "draft <question>...",
		Short: "Draft an answer grounded on a knowledge file",
		Long: `draft retrieves the best matching knowledge entries and asks the model
for an answer. Without OPENAI_API_KEY the fallback template is returned.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.logger()
			pool, err := loadKnowledge(kbPath)
			if err != nil {
				return err
			}
			question := strings.Join(args, " ")
			snippets := retrieve.Render(retrieve.New(topK).Retrieve(question, pool, topK))

			var invoker proposal.ModelInvoker
			if oaCfg := openai.ConfigFromEnv(); oaCfg.APIKey != "" {
				client, err := openai.NewClient(log, oaCfg)
				if err != nil {
					return err
				}
				invoker = client
			}
			ans, err := generate.New(log, invoker, generate.DefaultConfig()).GenerateAnswer(cmd.Context(), question, snippets)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ans)
		},
	}
	cmd.Flags().StringVar(&kbPath, "kb", "", "knowledge pool YAML file")
	cmd.Flags().IntVar(&topK, "top-k", retrieve.DefaultTopK, "maximum number of snippets")
	return cmd
}
