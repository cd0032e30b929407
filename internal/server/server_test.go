package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pdfquiz/internal/chat"
	"github.com/abhisek/pdfquiz/internal/config"
	"github.com/abhisek/pdfquiz/internal/llm"
	"github.com/abhisek/pdfquiz/internal/quizgen"
)

var samplePDF = []byte("%PDF-1.4\n% sample\n%%EOF")

type upload struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, file *upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.filename))
		if file.contentType != "" {
			h.Set("Content-Type", file.contentType)
		}
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func pdfUpload() *upload {
	return &upload{field: "document", filename: "notes.pdf", contentType: "application/pdf", data: samplePDF}
}

func baseFields() map[string]string {
	return map[string]string{"provider": "openai", "model": "gpt-4o-mini", "credential": "sk-test"}
}

func questionsJSON(n int) json.RawMessage {
	set := quizgen.QuestionSet{}
	for i := 0; i < n; i++ {
		set.Questions = append(set.Questions, quizgen.Question{
			Question:      fmt.Sprintf("Q%d", i+1),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: "b",
		})
	}
	b, _ := json.Marshal(set)
	return b
}

func newTestServer(f *llm.MockFactory) *Server {
	cfg := &config.Config{MaxUploadMB: 1, CORSOrigins: []string{"*"}}
	return New(cfg,
		quizgen.New(f.Build, quizgen.DefaultConfig(), zerolog.Nop()),
		chat.New(f.Build, 0, zerolog.Nop()),
	)
}

func do(t *testing.T, s *Server, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), "body: %s", raw)
	return resp.StatusCode, body
}

func TestGenerateQuestions_Success(t *testing.T) {
	f := llm.NewMockFactory(llm.MockResponse{Content: questionsJSON(5)})
	s := newTestServer(f)

	status, body := do(t, s, multipartRequest(t, "/api/generate-questions", baseFields(), pdfUpload()))
	require.Equal(t, fiber.StatusOK, status, body)

	qs, ok := body["questions"].([]any)
	require.True(t, ok)
	assert.Len(t, qs, 5)
	first := qs[0].(map[string]any)
	assert.Equal(t, "b", first["correctAnswer"])

	require.Equal(t, 1, f.Provider.CallCount())
	doc := f.Provider.Calls[0].Messages[0].Documents[0]
	assert.Equal(t, "notes.pdf", doc.Name)
	assert.Equal(t, samplePDF, doc.Data)
}

func TestGenerateQuestions_LegacyFieldNames(t *testing.T) {
	f := llm.NewMockFactory(llm.MockResponse{Content: questionsJSON(5)})
	s := newTestServer(f)

	fields := map[string]string{"provider": "claude", "model": "claude-3-5-sonnet", "apiKey": "sk-ant"}
	file := &upload{field: "pdf", filename: "old.pdf", contentType: "application/octet-stream", data: samplePDF}

	status, _ := do(t, s, multipartRequest(t, "/api/generate-questions", fields, file))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, llm.Selection{Provider: "claude", Model: "claude-3-5-sonnet"}, f.Selections[0])
}

func TestGenerateQuestions_Rejections(t *testing.T) {
	bigPDF := append(append([]byte{}, samplePDF...), bytes.Repeat([]byte("x"), 1<<20)...)

	tests := []struct {
		name    string
		fields  func(map[string]string)
		file    *upload
		status  int
		message string
	}{
		{"missing document", nil, nil, 400, "Please provide a valid PDF file"},
		{"not a pdf", nil, &upload{field: "document", filename: "a.pdf", contentType: "application/pdf", data: []byte("hello")}, 400, "Please provide a valid PDF file"},
		{"declared image", nil, &upload{field: "document", filename: "a.png", contentType: "image/png", data: samplePDF}, 400, "Please provide a valid PDF file"},
		{"too large", nil, &upload{field: "document", filename: "big.pdf", contentType: "application/pdf", data: bigPDF}, 413, "file too large"},
		{"missing credential", func(f map[string]string) { delete(f, "credential") }, pdfUpload(), 400, "API key is required. Please add your API key in settings."},
		{"unsupported provider", func(f map[string]string) { f["provider"] = "llama" }, pdfUpload(), 400, "Unsupported provider"},
		{"model mismatch", func(f map[string]string) { f["model"] = "claude-haiku" }, pdfUpload(), 400, "not available for OpenAI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := llm.NewMockFactory(llm.MockResponse{Content: questionsJSON(5)})
			s := newTestServer(f)

			fields := baseFields()
			if tt.fields != nil {
				tt.fields(fields)
			}
			status, body := do(t, s, multipartRequest(t, "/api/generate-questions", fields, tt.file))
			assert.Equal(t, tt.status, status)
			assert.Contains(t, body["error"], tt.message)
			assert.Zero(t, f.Provider.CallCount(), "provider must not be called")
		})
	}
}

func TestGenerateQuestions_Failures(t *testing.T) {
	tests := []struct {
		name    string
		resp    llm.MockResponse
		status  int
		message string
	}{
		{"provider error", llm.MockResponse{Err: &llm.ErrAuth{Err: errors.New("bad key")}}, 502, "OpenAI API error"},
		{"wrong count", llm.MockResponse{Content: questionsJSON(4)}, 500, "Failed to generate valid questions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(llm.NewMockFactory(tt.resp))
			status, body := do(t, s, multipartRequest(t, "/api/generate-questions", baseFields(), pdfUpload()))
			assert.Equal(t, tt.status, status)
			assert.Contains(t, body["error"], tt.message)
		})
	}
}

func TestChatWithPDF(t *testing.T) {
	f := llm.NewMockFactory(llm.MockResponse{Content: json.RawMessage("Chapter two.")})
	s := newTestServer(f)

	fields := baseFields()
	fields["message"] = "Where is the proof?"
	fields["context"] = `[{"role":"system","content":"uploaded"},{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]`

	status, body := do(t, s, multipartRequest(t, "/api/chat-with-pdf", fields, pdfUpload()))
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "Chapter two.", body["response"])

	msgs := f.Provider.Calls[0].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Contains(t, msgs[2].Content, "Where is the proof?")
}

func TestChatWithPDF_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]string
		message string
	}{
		{"empty message", map[string]string{"message": ""}, "Please provide a message"},
		{"bad context", map[string]string{"message": "q", "context": "{not json"}, "context must be a JSON array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := llm.NewMockFactory(llm.MockResponse{Content: json.RawMessage("x")})
			s := newTestServer(f)

			fields := baseFields()
			for k, v := range tt.fields {
				fields[k] = v
			}
			status, body := do(t, s, multipartRequest(t, "/api/chat-with-pdf", fields, pdfUpload()))
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Contains(t, body["error"], tt.message)
			assert.Zero(t, f.Provider.CallCount())
		})
	}
}

func TestHealthzAndHeaders(t *testing.T) {
	s := newTestServer(llm.NewMockFactory())

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(llm.NewMockFactory())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")

	resp, err := s.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}
