package gcp

import (
	"strings"

	"google.golang.org/api/option"

	"github.com/yungbote/proposalpilot-backend/internal/platform/envutil"
)

// ClientOptionsFromEnv builds credentials for the storage and Document AI
// clients. GOOGLE_APPLICATION_CREDENTIALS_JSON may hold inline JSON; with no
// credentials set the client falls back to ADC.
func ClientOptionsFromEnv() []option.ClientOption {
	var opts []option.ClientOption
	creds := envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	if creds == "" {
		creds = envutil.String("GOOGLE_APPLICATION_CREDENTIALS", "")
	}
	switch {
	case creds == "":
	case strings.HasPrefix(creds, "{"):
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	default:
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	if project := envutil.String("GCP_PROJECT_ID", ""); project != "" {
		opts = append(opts, option.WithQuotaProject(project))
	}
	return opts
}
