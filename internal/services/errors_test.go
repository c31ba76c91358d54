package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"speakerid/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "embedding", "run", "uvx failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"embedding", "run", "uvx failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestMissingInput(t *testing.T) {
	err := services.MissingInput("enroll", "input file", "/tmp/nope.wav")
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected missing input marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "/tmp/nope.wav") {
		t.Fatalf("expected path in message, got %q", err.Error())
	}
}

func TestExtractionErrorHint(t *testing.T) {
	cause := errors.New("401 unauthorized")
	err := fmt.Errorf("enroll: %w", &services.ExtractionError{Hint: "accept the license", Err: cause})

	if !errors.Is(err, services.ErrEmbeddingExtraction) {
		t.Fatalf("expected extraction marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable, got %v", err)
	}
	if hint := services.HintFor(err); hint != "accept the license" {
		t.Fatalf("unexpected hint %q", hint)
	}
	if hint := services.HintFor(cause); hint != "" {
		t.Fatalf("expected no hint for plain error, got %q", hint)
	}
}
