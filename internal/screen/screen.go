package screen

import (
	"context"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/pdfquiz/internal/chat"
	"github.com/abhisek/pdfquiz/internal/docreq"
	"github.com/abhisek/pdfquiz/internal/quizgen"
	"github.com/abhisek/pdfquiz/internal/rewards"
	"github.com/abhisek/pdfquiz/internal/settings"
	"github.com/abhisek/pdfquiz/internal/ui/layout"
)

// Screen is one page of the terminal client.
type Screen interface {
	Init() tea.Cmd

	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area, excluding header and footer.
	View(width, height int) string

	// Title is shown in the header.
	Title() string
}

// KeyHintProvider lets a screen replace the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Backend is the server the client sends documents to.
type Backend interface {
	GenerateQuestions(ctx context.Context, in docreq.Input) ([]quizgen.Question, error)
	Chat(ctx context.Context, in docreq.Input, message string, history []chat.Message) (string, error)
}

// Services are shared by every screen of one client session.
type Services struct {
	Backend  Backend
	Settings *settings.Resolver
	Ledger   *rewards.Ledger
	Log      zerolog.Logger
}
