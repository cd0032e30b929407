package quizgen

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/abhisek/pdfquiz/internal/docreq"
	"github.com/abhisek/pdfquiz/internal/llm"
)

// Config controls the Service.
type Config struct {
	// Validators run in order on every result; the first failure wins.
	Validators []Validator

	// MaxTokens is the token budget for the provider response.
	MaxTokens int

	Temperature float64
}

// DefaultConfig returns the standard validator chain and token budget.
func DefaultConfig() Config {
	return Config{
		Validators: DefaultValidators(),
		MaxTokens:  4000,
	}
}

// Service turns a document into a validated QuestionSet using the provider
// named in each request. It holds no per-request state.
type Service struct {
	factory llm.Factory
	config  Config
	log     zerolog.Logger
}

// New creates a Service.
func New(factory llm.Factory, cfg Config, log zerolog.Logger) *Service {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	if cfg.Validators == nil {
		cfg.Validators = DefaultValidators()
	}
	return &Service{factory: factory, config: cfg, log: log}
}

// Generate validates in, asks the selected provider for a quiz about the
// document and re-validates the answer. Errors are *docreq.ValidationError,
// *docreq.ProviderError or *docreq.ShapeError.
func (s *Service) Generate(ctx context.Context, in docreq.Input) (*QuestionSet, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	provider, err := s.factory(ctx, in.Selection, in.Credential)
	if err != nil {
		return nil, &docreq.ProviderError{Provider: in.Selection.Provider, Err: err}
	}

	ctx = llm.WithPurpose(ctx, "quiz-generation")
	resp, err := provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{{
			Role:      llm.RoleUser,
			Content:   instruction,
			Documents: []llm.Document{in.Document},
		}},
		Schema:      QuestionsSchema,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		if shapeErr := asShapeError(err); shapeErr != nil {
			return nil, shapeErr
		}
		return nil, &docreq.ProviderError{Provider: in.Selection.Provider, Err: err}
	}

	var set QuestionSet
	if err := json.Unmarshal(resp.Content, &set); err != nil {
		return nil, &docreq.ShapeError{Reason: "response is not a question set", Err: err}
	}

	for _, v := range s.config.Validators {
		if verr := v.Validate(&set); verr != nil {
			s.log.Warn().
				Str("provider", in.Selection.Provider).
				Str("model", in.Selection.Model).
				Str("validator", verr.Validator).
				Msg("quiz_shape_rejected")
			return nil, &docreq.ShapeError{Reason: verr.Message, Err: verr}
		}
	}

	return &set, nil
}

// asShapeError recognises provider errors that mean "answered, but not in
// the required shape".
func asShapeError(err error) *docreq.ShapeError {
	var (
		invalid *llm.ErrInvalidResponse
		maxTok  *llm.ErrMaxTokensExceeded
	)
	switch {
	case errors.As(err, &invalid):
		return &docreq.ShapeError{Reason: "response does not match the question schema", Err: err}
	case errors.As(err, &maxTok):
		return &docreq.ShapeError{Reason: "response was truncated", Err: err}
	}
	return nil
}
