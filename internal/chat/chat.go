// Package chat answers free-form questions about a single document.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/abhisek/pdfquiz/internal/docreq"
	"github.com/abhisek/pdfquiz/internal/llm"
)

// Role of a chat message. System messages are UI notices and never reach a
// provider.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn of the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ContextWindow is the number of trailing non-system messages sent with a
// question.
const ContextWindow = 10

const systemPrompt = "You are a helpful assistant that answers questions about PDF documents."

// ErrEmptyAnswer is returned when the provider replies with no text.
var ErrEmptyAnswer = errors.New("provider returned an empty answer")

// Service answers questions about a document with the provider named in
// each request.
type Service struct {
	factory   llm.Factory
	maxTokens int
	log       zerolog.Logger
}

// New creates a Service. maxTokens <= 0 selects 4000.
func New(factory llm.Factory, maxTokens int, log zerolog.Logger) *Service {
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	return &Service{factory: factory, maxTokens: maxTokens, log: log}
}

// Answer sends the trailing context, the wrapped question and the document
// to the provider and returns its reply verbatim.
func (s *Service) Answer(ctx context.Context, in docreq.Input, message string, history []Message) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	if strings.TrimSpace(message) == "" {
		return "", &docreq.ValidationError{Field: "message", Reason: "Please provide a message"}
	}

	provider, err := s.factory(ctx, in.Selection, in.Credential)
	if err != nil {
		return "", &docreq.ProviderError{Provider: in.Selection.Provider, Err: err}
	}

	msgs := Window(history, ContextWindow)
	req := llm.Request{
		System:    systemPrompt,
		MaxTokens: s.maxTokens,
		Messages:  make([]llm.Message, 0, len(msgs)+1),
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}
	req.Messages = append(req.Messages, llm.Message{
		Role:      llm.RoleUser,
		Content:   WrapQuestion(message),
		Documents: []llm.Document{in.Document},
	})

	resp, err := provider.Generate(llm.WithPurpose(ctx, "chat"), req)
	if err != nil {
		return "", &docreq.ProviderError{Provider: in.Selection.Provider, Err: err}
	}

	answer := resp.Text()
	if strings.TrimSpace(answer) == "" {
		s.log.Warn().Str("provider", in.Selection.Provider).Str("model", in.Selection.Model).Msg("chat_empty_answer")
		return "", &docreq.ProviderError{Provider: in.Selection.Provider, Err: ErrEmptyAnswer}
	}
	return answer, nil
}

// WrapQuestion puts the user's message inside the fixed document question
// instruction.
func WrapQuestion(message string) string {
	return "I have uploaded a PDF document. Please answer the following question about it: " + message
}

// Window drops system messages and anything other than user or assistant
// turns, then keeps the last n. Order is preserved.
func Window(history []Message, n int) []Message {
	out := make([]Message, 0, min(len(history), n))
	for _, m := range history {
		if m.Role == RoleUser || m.Role == RoleAssistant {
			out = append(out, m)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}
