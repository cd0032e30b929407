// Package server exposes quiz generation and document chat over HTTP.
package server

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/abhisek/pdfquiz/internal/chat"
	"github.com/abhisek/pdfquiz/internal/config"
	"github.com/abhisek/pdfquiz/internal/docreq"
	"github.com/abhisek/pdfquiz/internal/quizgen"
	"github.com/abhisek/pdfquiz/internal/server/middleware"
)

// QuizGenerator produces a validated question set for a document.
type QuizGenerator interface {
	Generate(ctx context.Context, in docreq.Input) (*quizgen.QuestionSet, error)
}

// Answerer answers a question about a document.
type Answerer interface {
	Answer(ctx context.Context, in docreq.Input, message string, history []chat.Message) (string, error)
}

// Server owns the fiber app and the two service boundaries.
type Server struct {
	app     *fiber.App
	cfg     *config.Config
	quizzes QuizGenerator
	chat    Answerer
}

// New builds the fiber app with middleware and routes.
func New(cfg *config.Config, quizzes QuizGenerator, answerer Answerer) *Server {
	s := &Server{cfg: cfg, quizzes: quizzes, chat: answerer}

	s.app = fiber.New(fiber.Config{
		AppName:               "pdfquiz",
		DisableStartupMessage: true,
		// Leave room for the other form fields around the document.
		BodyLimit:    cfg.MaxUploadBytes() + 1<<20,
		ErrorHandler: errorHandler,
	})

	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Recover())
	s.app.Use(middleware.CORS(cfg.CORSOrigins))
	s.app.Use(middleware.SecureHeaders())
	s.app.Use(middleware.RequestLog())
	if cfg.RateLimitMax > 0 {
		s.app.Use(middleware.RateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow))
	}

	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	upload := middleware.PDFUploadValidator(int64(cfg.MaxUploadBytes()))
	api := s.app.Group("/api")
	api.Post("/generate-questions", upload, s.generateQuestions)
	api.Post("/chat-with-pdf", upload, s.chatWithPDF)

	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler renders every error as {"error": "..."}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
