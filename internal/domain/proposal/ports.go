package proposal

import (
	"context"

	"github.com/google/uuid"
)

// BlobFetcher returns the raw bytes of an uploaded file.
type BlobFetcher interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
}

// KnowledgePool supplies a company's knowledge entries in a stable order.
type KnowledgePool interface {
	ListEntries(ctx context.Context, companyID uuid.UUID) ([]*KnowledgeEntry, error)
}

type InvokeRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// ModelInvoker calls the external generative model. Failures should be an
// *InvocationError so callers can tell ErrServiceUnavailable from ErrInvocation.
type ModelInvoker interface {
	Invoke(ctx context.Context, req InvokeRequest) (string, error)
}

// StructuredInvoker is implemented by model clients that support
// schema-constrained JSON output.
type StructuredInvoker interface {
	ModelInvoker
	InvokeJSON(ctx context.Context, req InvokeRequest, schemaName string, schema map[string]any) (map[string]any, error)
}

// ProposalStore is read-modify-write with last-writer-wins semantics.
type ProposalStore interface {
	Get(ctx context.Context, id uuid.UUID) (*Proposal, error)
	PutQuestions(ctx context.Context, id uuid.UUID, questions []Question) error
}
