package chat

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	chatsvc "github.com/abhisek/pdfquiz/internal/chat"
	"github.com/abhisek/pdfquiz/internal/docreq"
	"github.com/abhisek/pdfquiz/internal/llm"
	"github.com/abhisek/pdfquiz/internal/screen"
	"github.com/abhisek/pdfquiz/internal/ui/components"
	"github.com/abhisek/pdfquiz/internal/ui/layout"
	"github.com/abhisek/pdfquiz/internal/ui/theme"
)

type answerMsg struct {
	Seq    int
	Answer string
	Err    error
}

type thinkingTickMsg time.Time

// ChatScreen asks free-form questions about one document.
type ChatScreen struct {
	svc screen.Services

	doc     *llm.Document
	path    components.TextInput
	input   components.TextInput
	history []chatsvc.Message

	pending bool
	seq     int
	dots    int
	errMsg  string
}

var _ screen.Screen = (*ChatScreen)(nil)
var _ screen.KeyHintProvider = (*ChatScreen)(nil)

func New(svc screen.Services) *ChatScreen {
	return &ChatScreen{
		svc:   svc,
		path:  components.NewTextInput("path/to/document.pdf", false, 0),
		input: components.NewTextInput("Ask about the document...", false, 2000),
	}
}

func (s *ChatScreen) Init() tea.Cmd {
	if s.doc == nil {
		return s.path.Init()
	}
	return s.input.Init()
}

func (s *ChatScreen) Title() string {
	if s.doc != nil {
		return "Chat · " + s.doc.Name
	}
	return "Chat"
}

func (s *ChatScreen) KeyHints() []layout.KeyHint {
	if s.doc == nil {
		return []layout.KeyHint{{Key: "Enter", Description: "Open"}, {Key: "Esc", Description: "Back"}}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Ctrl+L", Description: "Clear"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ChatScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case answerMsg:
		s.handleAnswer(msg)
		return s, nil
	case thinkingTickMsg:
		if !s.pending {
			return s, nil
		}
		s.dots++
		return s, thinkingTick()
	case tea.KeyPressMsg:
		switch msg.String() {
		case "enter":
			if s.doc == nil {
				return s, s.open()
			}
			return s, s.send()
		case "ctrl+l":
			if s.doc != nil && !s.pending {
				s.history = nil
				s.errMsg = ""
			}
			return s, nil
		}
	}

	var cmd tea.Cmd
	if s.doc == nil {
		s.path, cmd = s.path.Update(msg)
	} else {
		s.input, cmd = s.input.Update(msg)
	}
	return s, cmd
}

func (s *ChatScreen) open() tea.Cmd {
	doc, err := docreq.ReadFile(s.path.Value(), 0)
	if err != nil {
		s.errMsg = docreq.Hint(err, s.svc.Settings.Selection().Provider)
		return nil
	}
	s.doc = &doc
	s.errMsg = ""
	return s.input.Init()
}

func (s *ChatScreen) send() tea.Cmd {
	text := s.input.Value()
	if text == "" || s.pending {
		return nil
	}
	sel := s.svc.Settings.Selection()
	cred, ok := s.svc.Settings.ActiveCredential(context.Background())
	if !ok {
		s.errMsg = "API key is required. Please add your API key in settings."
		return nil
	}

	prior := chatsvc.Window(s.history, chatsvc.ContextWindow)
	s.history = append(s.history, chatsvc.Message{Role: chatsvc.RoleUser, Content: text})
	s.input.Reset()
	s.pending = true
	s.errMsg = ""
	s.seq++

	in := docreq.Input{Document: *s.doc, Selection: sel, Credential: cred}
	seq, backend := s.seq, s.svc.Backend
	s.svc.Log.Info().Str("provider", sel.Provider).Str("model", sel.Model).
		Int("context_messages", len(prior)).Msg("chat_sent")

	return tea.Batch(thinkingTick(), func() tea.Msg {
		answer, err := backend.Chat(context.Background(), in, text, prior)
		return answerMsg{Seq: seq, Answer: answer, Err: err}
	})
}

// handleAnswer appends the reply. On failure the question is taken back out
// of the history and put back in the input so it can be resent.
func (s *ChatScreen) handleAnswer(msg answerMsg) {
	if msg.Seq != s.seq || !s.pending {
		return
	}
	s.pending = false

	if msg.Err != nil {
		last := s.history[len(s.history)-1]
		s.history = s.history[:len(s.history)-1]
		s.input.SetValue(last.Content)
		s.errMsg = docreq.Hint(msg.Err, s.svc.Settings.Selection().Provider)
		s.svc.Log.Warn().Err(msg.Err).Msg("chat_failed")
		return
	}
	s.history = append(s.history, chatsvc.Message{Role: chatsvc.RoleAssistant, Content: msg.Answer})
}

func (s *ChatScreen) View(width, height int) string {
	if s.doc == nil {
		body := theme.Title.Render("Chat with a PDF") + "\n\n" +
			theme.Body.Render("Enter the path of a PDF file:") + "\n" +
			s.path.View()
		if s.errMsg != "" {
			body += "\n\n" + theme.ErrorText.Render(s.errMsg)
		}
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, theme.Card.Render(body))
	}

	cw := max(width-4, 20)
	var lines []string
	if len(s.history) == 0 {
		lines = append(lines, theme.Hint.Render("Ask anything about "+s.doc.Name+"."))
	}
	for _, m := range s.history {
		lines = append(lines, renderMessage(m, cw), "")
	}
	if s.pending {
		lines = append(lines, theme.Muted.Render("Thinking"+strings.Repeat(".", s.dots%4)))
	}

	footer := s.input.View()
	if s.errMsg != "" {
		footer = theme.ErrorText.Render(s.errMsg) + "\n" + footer
	}

	// Keep the newest messages in view.
	transcript := strings.Join(lines, "\n")
	avail := max(height-lipgloss.Height(footer)-1, 1)
	if rows := strings.Split(transcript, "\n"); len(rows) > avail {
		transcript = strings.Join(rows[len(rows)-avail:], "\n")
	}
	return lipgloss.NewStyle().Height(avail).Render(transcript) + "\n" + footer
}

func renderMessage(m chatsvc.Message, width int) string {
	wrap := lipgloss.NewStyle().Width(width * 3 / 4)
	if m.Role == chatsvc.RoleUser {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right,
			theme.UserBubble.Render(wrap.Render(m.Content)))
	}
	return theme.AssistantBubble.Render(wrap.Render(m.Content))
}

func thinkingTick() tea.Cmd {
	return tea.Tick(400*time.Millisecond, func(t time.Time) tea.Msg {
		return thinkingTickMsg(t)
	})
}
