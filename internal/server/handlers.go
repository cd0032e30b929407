package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/pdfquiz/internal/chat"
	"github.com/abhisek/pdfquiz/internal/docreq"
	"github.com/abhisek/pdfquiz/internal/llm"
	"github.com/abhisek/pdfquiz/internal/quizgen"
	"github.com/abhisek/pdfquiz/internal/server/middleware"
	"github.com/abhisek/pdfquiz/internal/telemetry"
)

type generateResponse struct {
	Questions []quizgen.Question `json:"questions"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (s *Server) generateQuestions(c *fiber.Ctx) error {
	in, err := readInput(c)
	if err != nil {
		return err
	}
	log := requestLogger(c, in)

	set, err := s.quizzes.Generate(c.UserContext(), in)
	if err != nil {
		return failure(log, "generate_questions_failed", err)
	}

	log.Info().Int("questions", len(set.Questions)).Msg("questions_generated")
	return c.JSON(generateResponse{Questions: set.Questions})
}

func (s *Server) chatWithPDF(c *fiber.Ctx) error {
	in, err := readInput(c)
	if err != nil {
		return err
	}
	log := requestLogger(c, in)

	var history []chat.Message
	if raw := strings.TrimSpace(c.FormValue("context")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "context must be a JSON array of messages")
		}
	}

	answer, err := s.chat.Answer(c.UserContext(), in, c.FormValue("message"), history)
	if err != nil {
		return failure(log, "chat_failed", err)
	}

	log.Info().Int("context_messages", len(history)).Msg("chat_answered")
	return c.JSON(chatResponse{Response: answer})
}

// readInput collects the shared form fields. Missing pieces are left empty
// for docreq validation to report.
func readInput(c *fiber.Ctx) (docreq.Input, error) {
	in := docreq.Input{
		Selection: llm.Selection{
			Provider: strings.TrimSpace(c.FormValue("provider")),
			Model:    strings.TrimSpace(c.FormValue("model")),
		},
		Credential: firstValue(c, "credential", "apiKey"),
	}

	form, err := c.MultipartForm()
	if err != nil {
		return in, nil
	}
	if fh := middleware.DocumentFile(form); fh != nil {
		data, err := readFile(fh)
		if err != nil {
			return in, fiber.NewError(fiber.StatusBadRequest, "cannot read file")
		}
		in.Document = docreq.NewDocument(fh.Filename, fh.Header.Get(fiber.HeaderContentType), data)
	}
	return in, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func firstValue(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		if v := c.FormValue(k); v != "" {
			return v
		}
	}
	return ""
}

func requestLogger(c *fiber.Ctx, in docreq.Input) zerolog.Logger {
	return telemetry.L().With().
		Str("req_id", middleware.RequestIDFrom(c)).
		Str("provider", in.Selection.Provider).
		Str("model", in.Selection.Model).
		Int("document_bytes", len(in.Document.Data)).
		Logger()
}

// failure maps the service error taxonomy onto status codes.
func failure(log zerolog.Logger, event string, err error) error {
	var (
		verr *docreq.ValidationError
		perr *docreq.ProviderError
		serr *docreq.ShapeError
	)
	switch {
	case errors.As(err, &verr):
		log.Info().Str("field", verr.Field).Int("status", fiber.StatusBadRequest).Msg(event)
		return fiber.NewError(fiber.StatusBadRequest, verr.Reason)
	case errors.As(err, &perr):
		log.Warn().Err(err).Int("status", fiber.StatusBadGateway).Msg(event)
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.As(err, &serr):
		log.Warn().Err(err).Int("status", fiber.StatusInternalServerError).Msg(event)
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	log.Error().Err(err).Msg(event)
	return fiber.NewError(fiber.StatusInternalServerError, "Failed to process your request")
}
