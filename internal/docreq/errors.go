package docreq

import (
	"fmt"

	"github.com/abhisek/pdfquiz/internal/llm"
)

// ValidationError is a caller mistake detected before any provider call.
type ValidationError struct {
	Field  string // form field at fault, e.g. "document", "credential"
	Reason string // human-readable explanation shown to the user
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ProviderError wraps a failure of the provider call itself: auth, quota,
// network or timeout.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	label := llm.Selection{Provider: e.Provider}.Label()
	if e.Err == nil {
		return fmt.Sprintf("Failed to connect to %s API", label)
	}
	return fmt.Sprintf("%s API error: %v", label, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ShapeError means the provider answered, but the answer does not satisfy
// the structural rules of a quiz.
type ShapeError struct {
	Reason string
	Err    error
}

func (e *ShapeError) Error() string {
	if e.Reason == "" {
		return "Failed to generate valid questions from the PDF"
	}
	return fmt.Sprintf("Failed to generate valid questions from the PDF: %s", e.Reason)
}

func (e *ShapeError) Unwrap() error { return e.Err }
