package docreq

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/pdfquiz/internal/llm"
)

// Hint turns an error into a suggestion the user can act on. provider is the
// selected provider id and only affects wording. Validation errors and errors
// without a recognised pattern are returned as their message.
func Hint(err error, provider string) string {
	if err == nil {
		return ""
	}
	label := llm.Selection{Provider: provider}.Label()

	var (
		verr *ValidationError
		rl   *llm.ErrRateLimit
		auth *llm.ErrAuth
	)
	switch {
	case errors.As(err, &verr):
		return verr.Reason
	case errors.As(err, &auth):
		return authHint(label)
	case errors.As(err, &rl):
		return rateLimitHint(label)
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out") ||
		strings.Contains(lower, "deadline exceeded"):
		return "The request timed out. Your PDF might be too large or complex. Try with a smaller document."
	case strings.Contains(lower, "format") || strings.Contains(lower, "parse"):
		return "There was an issue processing the PDF. Make sure it contains readable text content."
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "quota"):
		return rateLimitHint(label)
	case strings.Contains(msg, "API key"):
		return authHint(label)
	}
	return msg
}

func rateLimitHint(label string) string {
	return fmt.Sprintf("You've reached the %s API rate limit. Please try again later.", label)
}

func authHint(label string) string {
	return fmt.Sprintf("There was an issue with your %s API key. Please check that it's valid and has sufficient permissions.", label)
}
