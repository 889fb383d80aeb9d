package proposal

import (
	"errors"
	"io"
	"testing"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	ext := &ExtractionError{MediaType: "application/pdf", Cause: io.ErrUnexpectedEOF}
	if !errors.Is(ext, ErrExtractionFailed) || !errors.Is(ext, io.ErrUnexpectedEOF) {
		t.Fatalf("extraction error should match sentinel and cause")
	}

	gen := &GenerationError{Op: "generate answer", Cause: errors.New("boom")}
	if !errors.Is(gen, ErrGenerationFailed) {
		t.Fatalf("generation error should match ErrGenerationFailed")
	}

	unavailable := &InvocationError{StatusCode: 404, Unavailable: true, Err: errors.New("model not found")}
	if !errors.Is(unavailable, ErrServiceUnavailable) || errors.Is(unavailable, ErrInvocation) {
		t.Fatalf("unavailable invocation error matched the wrong sentinel")
	}
	failed := &InvocationError{StatusCode: 400, Err: errors.New("bad request")}
	if !errors.Is(failed, ErrInvocation) || errors.Is(failed, ErrServiceUnavailable) {
		t.Fatalf("invocation error matched the wrong sentinel")
	}

	var ie *InvocationError
	if !errors.As(&GenerationError{Op: "x", Cause: failed}, &ie) || ie.StatusCode != 400 {
		t.Fatalf("errors.As should reach the invocation error through the chain")
	}
}

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories {
		if !c.Valid() {
			t.Fatalf("%s should be valid", c)
		}
	}
	if Category("marketing").Valid() {
		t.Fatalf("unknown category reported valid")
	}
}

func TestFindQuestion(t *testing.T) {
	p := &Proposal{Questions: []Question{{ID: "q1"}, {ID: "q2"}}}
	if p.FindQuestion("q2") != 1 {
		t.Fatalf("expected index 1")
	}
	if p.FindQuestion("q9") != -1 {
		t.Fatalf("expected -1 for a missing question")
	}
}
