package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingInput        = errors.New("missing input")
	ErrEmbeddingExtraction = errors.New("embedding extraction failed")
	ErrProbe               = errors.New("probe failed")
	ErrExternalTool        = errors.New("external tool error")
	ErrValidation          = errors.New("validation error")
	ErrConfiguration       = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// MissingInput reports a referenced file that does not exist.
func MissingInput(component, kind, path string) error {
	return Wrap(ErrMissingInput, component, "validate", fmt.Sprintf("%s not found: %s", kind, path), nil)
}

// ExtractionError reports an embedding provider failure together with
// guidance the user can act on. It is not a retry signal.
type ExtractionError struct {
	Hint string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return ErrEmbeddingExtraction.Error()
	}
	return fmt.Sprintf("%s: %v", ErrEmbeddingExtraction, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrEmbeddingExtraction) match any ExtractionError.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrEmbeddingExtraction
}

// HintFor returns the remediation hint carried by err, if any.
func HintFor(err error) string {
	var extraction *ExtractionError
	if errors.As(err, &extraction) {
		return strings.TrimSpace(extraction.Hint)
	}
	return ""
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
