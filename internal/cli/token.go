package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/proposalpilot-backend/internal/platform/envutil"
	"github.com/yungbote/proposalpilot-backend/internal/services"
)

func newTokenCmd() *cobra.Command {
	var userID, companyID string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with JWT_SECRET_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := parseOrNew(userID)
			if err != nil {
				return fmt.Errorf("--user: %w", err)
			}
			cid, err := parseOrNew(companyID)
			if err != nil {
				return fmt.Errorf("--company: %w", err)
			}
			auth, err := services.NewAuthService(nil, envutil.String("JWT_SECRET_KEY", ""))
			if err != nil {
				return err
			}
			tok, err := auth.IssueToken(uid, cid, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (random when empty)")
	cmd.Flags().StringVar(&companyID, "company", "", "company id (random when empty)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func parseOrNew(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(s)
}
