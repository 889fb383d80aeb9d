package observability

import (
	"context"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	h := parseHeaders(" api-key = abc , bad, =x, team=rfp ")
	if len(h) != 2 || h["api-key"] != "abc" || h["team"] != "rfp" {
		t.Fatalf("unexpected headers %v", h)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty input should yield nil")
	}
}

func TestSampleRatioClamped(t *testing.T) {
	t.Setenv("OTEL_SAMPLER_RATIO", "4")
	if sampleRatio() != 1 {
		t.Fatalf("ratio should clamp to 1")
	}
	t.Setenv("OTEL_SAMPLER_RATIO", "nope")
	if sampleRatio() != 0.1 {
		t.Fatalf("invalid ratio should use default")
	}
}

func TestInitOTelDisabledReturnsNoopShutdown(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "false")
	shutdown := InitOTel(context.Background(), nil, OtelConfig{ServiceName: "test"})
	if shutdown == nil {
		t.Fatalf("shutdown must not be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
