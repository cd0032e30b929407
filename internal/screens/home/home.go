package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/pdfquiz/internal/router"
	"github.com/abhisek/pdfquiz/internal/screen"
	chatscreen "github.com/abhisek/pdfquiz/internal/screens/chat"
	quizscreen "github.com/abhisek/pdfquiz/internal/screens/quiz"
	settingsscreen "github.com/abhisek/pdfquiz/internal/screens/settings"
	"github.com/abhisek/pdfquiz/internal/ui/components"
	"github.com/abhisek/pdfquiz/internal/ui/theme"
)

const banner = `┌─┐┌┬┐┌─┐  ┌─┐ ┬ ┬┬┌─┐
├─┘ │││├┤   │─┼┐│ ││┌─┘
┴  ─┴┘└    └─┘└└─┘┴└─┘`

// HomeScreen is the main menu.
type HomeScreen struct {
	svc  screen.Services
	menu components.Menu

	coins     int
	selection string
	hasKey    bool
}

var _ screen.Screen = (*HomeScreen)(nil)

func New(svc screen.Services) *HomeScreen {
	h := &HomeScreen{svc: svc}
	h.menu = components.NewMenu([]components.MenuItem{
		{Label: "Take a quiz", Detail: "5 questions from a PDF", Action: push(func() screen.Screen { return quizscreen.New(svc) })},
		{Label: "Chat with a PDF", Detail: "ask questions about a document", Action: push(func() screen.Screen { return chatscreen.New(svc) })},
		{Label: "Settings", Detail: "provider, model and API keys", Action: push(func() screen.Screen { return settingsscreen.New(svc) })},
		{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	})
	h.refresh()
	return h
}

func push(build func() screen.Screen) func() tea.Cmd {
	return func() tea.Cmd {
		s := build()
		return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
	}
}

// Init refreshes the summary. The router calls it again when a screen on
// top is closed.
func (h *HomeScreen) Init() tea.Cmd {
	h.refresh()
	return nil
}

func (h *HomeScreen) refresh() {
	if h.svc.Ledger != nil {
		h.coins = h.svc.Ledger.Get()
	}
	if h.svc.Settings != nil {
		sel := h.svc.Settings.Selection()
		h.selection = fmt.Sprintf("%s · %s", sel.Label(), sel.Model)
		_, h.hasKey = h.svc.Settings.ActiveCredential(context.Background())
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(banner))
	b.WriteString("\n\n")
	b.WriteString(theme.Subtitle.Render("Turn any PDF into a quiz and earn coins"))
	b.WriteString("\n\n")

	status := theme.Body.Render(h.selection)
	if !h.hasKey {
		status += "  " + theme.ErrorText.Render("no API key set")
	}
	b.WriteString(status)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).
		Render(fmt.Sprintf("● %d coins", h.coins)))
	b.WriteString("\n\n")
	b.WriteString(h.menu.View())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		theme.Card.Render(b.String()))
}

func (h *HomeScreen) Title() string {
	return "Home"
}
