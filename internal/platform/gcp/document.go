package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
	"github.com/yungbote/proposalpilot-backend/internal/platform/envutil"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
)

type DocumentConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

func DocumentConfigFromEnv() DocumentConfig {
	return DocumentConfig{
		ProjectID:        envutil.String("DOCUMENTAI_PROJECT_ID", ""),
		Location:         envutil.String("DOCUMENTAI_LOCATION", "us"),
		ProcessorID:      envutil.String("DOCUMENTAI_PROCESSOR_ID", ""),
		ProcessorVersion: envutil.String("DOCUMENTAI_PROCESSOR_VERSION", ""),
		Timeout:          envutil.Duration("DOCUMENTAI_TIMEOUT_SECONDS", 3*time.Minute),
	}
}

// Enabled reports whether a processor is configured.
func (c DocumentConfig) Enabled() bool {
	return processorName(c.ProjectID, c.Location, c.ProcessorID, c.ProcessorVersion) != ""
}

type documentProcessor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	Close() error
}

// DocumentOCR runs scanned PDFs through a Document AI OCR processor.
type DocumentOCR struct {
	log     *logger.Logger
	client  documentProcessor
	name    string
	timeout time.Duration
}

func NewDocumentOCR(ctx context.Context, log *logger.Logger, cfg DocumentConfig) (*DocumentOCR, error) {
	if log == nil {
		log = logger.Nop()
	}
	if !cfg.Enabled() {
		return nil, fmt.Errorf("document ai processor not configured (DOCUMENTAI_PROJECT_ID, DOCUMENTAI_PROCESSOR_ID)")
	}
	location := strings.TrimSpace(cfg.Location)
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)

	opts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, ClientOptionsFromEnv()...)
	c, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}
	ocr := newDocumentOCR(log, c, cfg)
	ocr.log.Info("Document AI initialized", "endpoint", endpoint, "processor", ocr.name)
	return ocr, nil
}

func newDocumentOCR(log *logger.Logger, client documentProcessor, cfg DocumentConfig) *DocumentOCR {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &DocumentOCR{
		log:     log.With("service", "gcp.DocumentOCR"),
		client:  client,
		name:    processorName(cfg.ProjectID, cfg.Location, cfg.ProcessorID, cfg.ProcessorVersion),
		timeout: timeout,
	}
}

func (d *DocumentOCR) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

// ProcessBytes returns the full document text. An unreachable processor
// surfaces as proposal.ErrServiceUnavailable.
func (d *DocumentOCR) ProcessBytes(ctx context.Context, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	resp, err := d.client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: d.name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{Content: data, MimeType: mimeType},
		},
		FieldMask: &fieldmaskpb.FieldMask{Paths: []string{"text"}},
	})
	if err != nil {
		d.log.Warn("Document AI request failed", "processor", d.name, "code", status.Code(err).String(), "error", err)
		return "", classifyRPC(err)
	}
	if resp == nil || resp.GetDocument() == nil {
		return "", nil
	}
	return resp.GetDocument().GetText(), nil
}

func classifyRPC(err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.NotFound, codes.DeadlineExceeded, codes.Unimplemented:
		return fmt.Errorf("documentai ProcessDocument: %w: %w", proposal.ErrServiceUnavailable, err)
	default:
		return fmt.Errorf("documentai ProcessDocument: %w", err)
	}
}

func processorName(project, location, processorID, version string) string {
	project = strings.TrimSpace(project)
	location = strings.TrimSpace(location)
	processorID = strings.TrimSpace(processorID)
	version = strings.TrimSpace(version)

	if project == "" || location == "" || processorID == "" {
		return ""
	}
	base := fmt.Sprintf("projects/%s/locations/%s/processors/%s", project, location, processorID)
	if version != "" {
		return base + "/processorVersions/" + version
	}
	return base
}
