package quizgen

import (
	"fmt"
	"strings"
)

// Validator checks a parsed question set. Validators are stateless.
type Validator interface {
	// Name identifies the validator in error messages, e.g. "count".
	Name() string

	// Validate returns nil if the set passes.
	Validate(set *QuestionSet) *ValidationError
}

// ValidationError describes why a question set failed validation.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// DefaultValidators is the chain run on every provider result.
func DefaultValidators() []Validator {
	return []Validator{
		&CountValidator{},
		&StructuralValidator{},
		&AnswerValidator{},
	}
}

// CountValidator requires exactly QuestionCount questions. Short or long
// sets are rejected, never truncated or padded.
type CountValidator struct{}

func (v *CountValidator) Name() string { return "count" }

func (v *CountValidator) Validate(set *QuestionSet) *ValidationError {
	if len(set.Questions) != QuestionCount {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("expected %d questions, got %d", QuestionCount, len(set.Questions)),
		}
	}
	return nil
}

// StructuralValidator checks that every question has text and exactly
// OptionCount options.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(set *QuestionSet) *ValidationError {
	for i, q := range set.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("question %d has no text", i+1),
			}
		}
		if len(q.Options) != OptionCount {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("question %d must have exactly %d options, got %d", i+1, OptionCount, len(q.Options)),
			}
		}
	}
	return nil
}

// AnswerValidator checks that options are non-empty and unique and that the
// correct answer is exactly one of them.
type AnswerValidator struct{}

func (v *AnswerValidator) Name() string { return "answer" }

func (v *AnswerValidator) Validate(set *QuestionSet) *ValidationError {
	for i, q := range set.Questions {
		seen := make(map[string]bool, len(q.Options))
		found := false
		for j, o := range q.Options {
			if strings.TrimSpace(o) == "" {
				return &ValidationError{
					Validator: v.Name(),
					Message:   fmt.Sprintf("question %d option %d is empty", i+1, j+1),
				}
			}
			if seen[o] {
				return &ValidationError{
					Validator: v.Name(),
					Message:   fmt.Sprintf("question %d has duplicate option %q", i+1, o),
				}
			}
			seen[o] = true
			if o == q.CorrectAnswer {
				found = true
			}
		}
		if !found {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("question %d correct answer %q is not one of its options", i+1, q.CorrectAnswer),
			}
		}
	}
	return nil
}
