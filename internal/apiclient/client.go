// Package apiclient talks to the pdfquiz server's multipart endpoints.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/abhisek/pdfquiz/internal/chat"
	"github.com/abhisek/pdfquiz/internal/docreq"
	"github.com/abhisek/pdfquiz/internal/quizgen"
)

// DefaultTimeout bounds one request when the caller passes no timeout.
const DefaultTimeout = 3 * time.Minute

// StatusError is a non-success response that is not a validation failure.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Code)
	}
	return e.Message
}

// Client posts documents to the generate-quiz and chat endpoints.
type Client struct {
	baseURL string
	timeout time.Duration
}

// New returns a client for the server at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

// GenerateQuestions uploads the document and returns the generated questions.
func (c *Client) GenerateQuestions(ctx context.Context, in docreq.Input) ([]quizgen.Question, error) {
	var out struct {
		Questions []quizgen.Question `json:"questions"`
	}
	if err := c.post(ctx, "/api/generate-questions", in, nil, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

// Chat asks message about the document, with history as prior turns.
func (c *Client) Chat(ctx context.Context, in docreq.Input, message string, history []chat.Message) (string, error) {
	if history == nil {
		history = []chat.Message{}
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return "", err
	}
	extra := map[string]string{"message": message, "context": string(raw)}

	var out struct {
		Response string `json:"response"`
	}
	if err := c.post(ctx, "/api/chat-with-pdf", in, extra, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

func (c *Client) post(ctx context.Context, path string, in docreq.Input, extra map[string]string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("provider", in.Selection.Provider)
	args.Set("model", in.Selection.Model)
	args.Set("credential", in.Credential)
	for k, v := range extra {
		args.Set(k, v)
	}

	a := fiber.Post(c.baseURL + path)
	a.Timeout(c.timeoutFor(ctx))
	// Files must be attached before MultipartForm writes the body.
	if len(in.Document.Data) > 0 {
		a.FileData(&fiber.FormFile{
			Fieldname: "document",
			Name:      in.Document.Name,
			Content:   in.Document.Data,
		})
	}
	a.MultipartForm(args)
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return fmt.Errorf("prepare request: %w", err)
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("cannot reach server: %w", errs[0])
	}

	if code != fiber.StatusOK {
		return decodeError(code, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// timeoutFor honours a context deadline shorter than the client timeout.
func (c *Client) timeoutFor(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < c.timeout {
			return max(left, time.Millisecond)
		}
	}
	return c.timeout
}

// decodeError reads {"error": "..."} bodies. 400 and 413 come back as
// validation errors so their messages reach the user unchanged.
func decodeError(code int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)
	msg := payload.Error

	switch code {
	case fiber.StatusBadRequest:
		return &docreq.ValidationError{Reason: msg}
	case fiber.StatusRequestEntityTooLarge:
		if msg == "" {
			msg = "file too large"
		}
		return &docreq.ValidationError{Field: "document", Reason: msg}
	}
	return &StatusError{Code: code, Message: msg}
}
