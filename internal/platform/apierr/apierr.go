package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromDomain maps pipeline errors onto HTTP status codes. An *Error already
// in the chain wins.
func FromDomain(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, proposal.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, proposal.ErrInvalidArgument):
		return New(http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, proposal.ErrUnsupportedMediaType):
		return New(http.StatusUnsupportedMediaType, "unsupported_media_type", err)
	case errors.Is(err, proposal.ErrExtractionFailed):
		return New(http.StatusUnprocessableEntity, "extraction_failed", err)
	case errors.Is(err, proposal.ErrInvalidTransition):
		return New(http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, proposal.ErrServiceUnavailable):
		return New(http.StatusServiceUnavailable, "model_unavailable", err)
	case errors.Is(err, proposal.ErrGenerationFailed):
		return New(http.StatusBadGateway, "generation_failed", err)
	default:
		return New(http.StatusInternalServerError, "internal_error", err)
	}
}
