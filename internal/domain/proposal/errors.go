package proposal

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrExtractionFailed     = errors.New("extraction failed")
	ErrGenerationFailed     = errors.New("generation failed")
	// ErrServiceUnavailable marks model calls that hit a missing service or
	// model. The generator answers these with a canned fallback.
	ErrServiceUnavailable = errors.New("model service unavailable")
	ErrInvocation         = errors.New("model invocation error")
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid question state transition")
	ErrInvalidArgument    = errors.New("invalid argument")
)

// ExtractionError carries the parser failure behind ErrExtractionFailed.
type ExtractionError struct {
	MediaType string
	Cause     error
}

func (e *ExtractionError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("extract %s: %s", e.MediaType, ErrExtractionFailed)
	}
	return fmt.Sprintf("extract %s: %v", e.MediaType, e.Cause)
}

func (e *ExtractionError) Unwrap() []error { return chain(ErrExtractionFailed, e.Cause) }

// GenerationError wraps a model failure that had no fallback.
type GenerationError struct {
	Op    string
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrGenerationFailed, e.Cause)
}

func (e *GenerationError) Unwrap() []error { return chain(ErrGenerationFailed, e.Cause) }

// InvocationError is returned by model clients. Unavailable selects the
// sentinel it matches.
type InvocationError struct {
	StatusCode  int
	Unavailable bool
	Err         error
}

func (e *InvocationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("model invocation (http %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("model invocation: %v", e.Err)
}

func (e *InvocationError) Unwrap() []error {
	if e.Unavailable {
		return chain(ErrServiceUnavailable, e.Err)
	}
	return chain(ErrInvocation, e.Err)
}

func chain(sentinel, cause error) []error {
	if cause == nil {
		return []error{sentinel}
	}
	return []error{sentinel, cause}
}
