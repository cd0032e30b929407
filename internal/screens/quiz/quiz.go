package quiz

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/pdfquiz/internal/docreq"
	qz "github.com/abhisek/pdfquiz/internal/quiz"
	"github.com/abhisek/pdfquiz/internal/screen"
	"github.com/abhisek/pdfquiz/internal/ui/components"
	"github.com/abhisek/pdfquiz/internal/ui/layout"
)

const spinnerInterval = 120 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// QuizScreen runs one quiz from file selection to results.
type QuizScreen struct {
	svc     screen.Services
	machine *qz.Machine

	path    components.TextInput
	options components.OptionList
	frame   int
	errMsg  string
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)

func New(svc screen.Services) *QuizScreen {
	var ledger qz.Ledger
	if svc.Ledger != nil {
		ledger = svc.Ledger
	}
	return &QuizScreen{
		svc:     svc,
		machine: qz.New(ledger),
		path:    components.NewTextInput("path/to/document.pdf", false, 0),
	}
}

func (s *QuizScreen) Init() tea.Cmd {
	return s.path.Init()
}

func (s *QuizScreen) Title() string {
	switch s.machine.State() {
	case qz.StateAnswering:
		return "Quiz"
	case qz.StateResults:
		return "Results"
	}
	return "New Quiz"
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	switch s.machine.State() {
	case qz.StateGenerating:
		return []layout.KeyHint{{Key: "Esc", Description: "Cancel"}}
	case qz.StateAnswering:
		if s.machine.FeedbackVisible() {
			return []layout.KeyHint{
				{Key: "Enter", Description: "See results"},
				{Key: "←", Description: "Back"},
			}
		}
		return []layout.KeyHint{
			{Key: "A-D/Space", Description: "Choose"},
			{Key: "Enter/→", Description: "Next"},
			{Key: "←", Description: "Back"},
			{Key: "Esc", Description: "Leave"},
		}
	case qz.StateResults:
		return []layout.KeyHint{
			{Key: "Enter", Description: "New quiz"},
			{Key: "Esc", Description: "Home"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Generate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case generatedMsg:
		return s, s.handleGenerated(msg)
	case spinnerTickMsg:
		if s.machine.State() != qz.StateGenerating {
			return s, nil
		}
		s.frame++
		return s, spinnerTick()
	case tea.KeyPressMsg:
		return s, s.handleKey(msg)
	}

	if s.machine.State() == qz.StateUpload {
		var cmd tea.Cmd
		s.path, cmd = s.path.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *QuizScreen) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch s.machine.State() {
	case qz.StateUpload:
		if msg.String() == "enter" {
			return s.startGeneration()
		}
		var cmd tea.Cmd
		s.path, cmd = s.path.Update(msg)
		return cmd

	case qz.StateAnswering:
		return s.handleAnswerKey(msg)

	case qz.StateResults:
		if msg.String() == "enter" {
			s.machine.Reset()
			s.path.Reset()
			s.errMsg = ""
			return s.path.Init()
		}
	}
	return nil
}

// startGeneration reads the file, moves the machine to Generating and sends
// the request.
func (s *QuizScreen) startGeneration() tea.Cmd {
	s.errMsg = ""
	sel := s.svc.Settings.Selection()

	doc, err := docreq.ReadFile(s.path.Value(), 0)
	if err != nil {
		s.errMsg = docreq.Hint(err, sel.Provider)
		return nil
	}
	if err := s.machine.SelectDocument(doc); err != nil {
		s.errMsg = err.Error()
		return nil
	}

	cred, _ := s.svc.Settings.ActiveCredential(context.Background())
	ticket, err := s.machine.BeginGeneration(cred)
	if err != nil {
		if errors.Is(err, qz.ErrNoCredential) {
			s.errMsg = "API key is required. Please add your API key in settings."
		} else {
			s.errMsg = err.Error()
		}
		return nil
	}

	s.svc.Log.Info().
		Str("session_id", ticket.SessionID).
		Int("attempt", ticket.Attempt).
		Str("provider", sel.Provider).
		Str("model", sel.Model).
		Int("document_bytes", len(doc.Data)).
		Msg("quiz_generation_started")

	in := docreq.Input{Document: doc, Selection: sel, Credential: cred}
	backend := s.svc.Backend
	return tea.Batch(spinnerTick(), func() tea.Msg {
		questions, err := backend.GenerateQuestions(context.Background(), in)
		return generatedMsg{Ticket: ticket, Questions: questions, Err: err}
	})
}

func (s *QuizScreen) handleGenerated(msg generatedMsg) tea.Cmd {
	log := s.svc.Log.With().Str("session_id", msg.Ticket.SessionID).Int("attempt", msg.Ticket.Attempt).Logger()

	var err error
	if msg.Err != nil {
		err = s.machine.GenerationFailed(msg.Ticket, msg.Err)
	} else {
		err = s.machine.GenerationSucceeded(msg.Ticket, msg.Questions)
	}
	if errors.Is(err, qz.ErrStaleResult) {
		log.Debug().Msg("quiz_generation_stale")
		return nil
	}

	if cause := s.machine.LastError(); cause != nil {
		s.errMsg = docreq.Hint(cause, s.svc.Settings.Selection().Provider)
		log.Warn().Err(cause).Msg("quiz_generation_failed")
		return s.path.Init()
	}
	log.Info().Int("questions", len(msg.Questions)).Msg("quiz_generation_succeeded")
	s.syncOptions()
	return nil
}

func (s *QuizScreen) handleAnswerKey(msg tea.KeyPressMsg) tea.Cmd {
	s.errMsg = ""
	switch msg.String() {
	case "left", "h":
		if err := s.machine.Back(); err == nil {
			s.syncOptions()
		}
		return nil
	case "enter", "right", "l":
		return s.next()
	}

	var picked string
	s.options, picked = s.options.Update(msg)
	if picked != "" {
		if err := s.machine.Select(picked); err != nil {
			s.errMsg = err.Error()
		}
		s.options.Chosen = s.machine.Selected(s.machine.Index())
	}
	return nil
}

func (s *QuizScreen) next() tea.Cmd {
	step, err := s.machine.Next(context.Background())
	if err != nil {
		if errors.Is(err, qz.ErrNoAnswer) {
			s.errMsg = "Choose an answer first."
		}
		return nil
	}
	if step == qz.StepCompleted {
		score := s.machine.Score()
		s.svc.Log.Info().
			Str("session_id", s.machine.SessionID()).
			Int("correct", score.Correct).
			Int("total", score.Total).
			Int("earned", s.machine.Earned()).
			Int("balance", s.machine.Balance()).
			Msg("quiz_completed")
		return nil
	}
	s.syncOptions()
	return nil
}

// syncOptions rebuilds the option list for the current question.
func (s *QuizScreen) syncOptions() {
	q := s.machine.Current()
	s.options = components.NewOptionList(q.Options, s.machine.Selected(s.machine.Index()))
	if s.machine.FeedbackVisible() {
		s.options.Correct = q.CorrectAnswer
	}
}

func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}
