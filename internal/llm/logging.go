package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/pdfquiz/internal/store"
)

// LoggingProvider is a decorator that logs every LLM request and, when an
// event repo is configured, records it as an event.
type LoggingProvider struct {
	inner     Provider
	provider  string
	log       zerolog.Logger
	eventRepo store.EventRepo
}

// WithLogging wraps a Provider with request logging. repo may be nil.
func WithLogging(p Provider, providerID string, log zerolog.Logger, repo store.EventRepo) Provider {
	return &LoggingProvider{inner: p, provider: providerID, log: log, eventRepo: repo}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latencyMs := time.Since(start).Milliseconds()

	data := store.LLMRequestEventData{
		Provider:  l.provider,
		Model:     l.inner.ModelID(),
		Purpose:   purpose,
		LatencyMs: latencyMs,
		Success:   err == nil,

		RequestBody: transcript(req),
	}
	if resp != nil {
		data.ResponseBody = resp.Text()
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	ev := l.log.Info()
	if err != nil {
		ev = l.log.Warn().Err(err).Str("error_kind", errorKind(err))
	}
	ev = ev.Str("provider", data.Provider).
		Str("model", data.Model).
		Str("purpose", purpose).
		Int("messages", len(req.Messages)).
		Int("document_bytes", documentBytes(req)).
		Int("input_tokens", data.InputTokens).
		Int("output_tokens", data.OutputTokens).
		Int64("latency_ms", latencyMs)
	if cost := LookupCost(data.Model); cost != nil {
		ev = ev.Float64("cost_usd", cost.Cost(data.InputTokens, data.OutputTokens))
	}
	ev.Msg("llm_request")

	// Recording the event never fails the request.
	if l.eventRepo != nil {
		if logErr := l.eventRepo.AppendLLMRequest(ctx, data); logErr != nil {
			l.log.Warn().Err(logErr).Msg("llm_event_append_failed")
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// transcript renders the prompt text for the event log. Attachments are
// reduced to their name and size.
func transcript(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		for _, d := range m.Documents {
			fmt.Fprintf(&b, "<document %q %d bytes>\n", d.Name, len(d.Data))
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func documentBytes(req Request) int {
	n := 0
	for _, m := range req.Messages {
		for _, d := range m.Documents {
			n += len(d.Data)
		}
	}
	return n
}

func errorKind(err error) string {
	var (
		rl      *ErrRateLimit
		auth    *ErrAuth
		invalid *ErrInvalidResponse
		maxTok  *ErrMaxTokensExceeded
		unavail *ErrProviderUnavailable
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context"
	case errors.As(err, &rl):
		return "rate_limit"
	case errors.As(err, &auth):
		return "auth"
	case errors.As(err, &invalid):
		return "invalid_response"
	case errors.As(err, &maxTok):
		return "max_tokens"
	case errors.As(err, &unavail):
		return "unavailable"
	}
	return "other"
}
