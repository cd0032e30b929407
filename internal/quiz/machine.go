// Package quiz is the client-side quiz state machine: upload, generation,
// answering and results.
package quiz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/pdfquiz/internal/docreq"
	"github.com/abhisek/pdfquiz/internal/llm"
	"github.com/abhisek/pdfquiz/internal/quizgen"
	"github.com/abhisek/pdfquiz/internal/rewards"
)

// State is the machine's single current state.
type State int

const (
	StateUpload State = iota
	StateGenerating
	StateAnswering
	StateResults
)

func (s State) String() string {
	switch s {
	case StateUpload:
		return "upload"
	case StateGenerating:
		return "generating"
	case StateAnswering:
		return "answering"
	case StateResults:
		return "results"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrNoDocument        = errors.New("please upload a PDF file first")
	ErrNoCredential      = errors.New("an API key is required; add one with the settings screen")
	ErrNoAnswer          = errors.New("select an answer before continuing")
	ErrFirstQuestion     = errors.New("already at the first question")
	ErrUnknownOption     = errors.New("answer is not one of the options")
	ErrAnswerLocked      = errors.New("answer is locked after checking")
	ErrStaleResult       = errors.New("generation result belongs to an abandoned request")
	ErrInvalidTransition = errors.New("action not allowed in the current state")
)

// Ledger receives the reward when a quiz completes.
type Ledger interface {
	Add(ctx context.Context, amount int) (int, error)
}

// Ticket identifies one generation attempt. Results carrying an older
// ticket are ignored.
type Ticket struct {
	SessionID string
	Attempt   int
}

// Score is the outcome of a completed quiz.
type Score struct {
	Correct int
	Total   int
}

// Step reports what Next did.
type Step int

const (
	StepMoved     Step = iota // moved to the next question
	StepRevealed              // showed feedback on the last question
	StepCompleted             // entered Results
)

// Machine holds one quiz session. It is not safe for concurrent use; the
// terminal client drives it from its update loop.
type Machine struct {
	ledger Ledger

	state     State
	sessionID string
	attempt   int
	doc       *llm.Document
	lastErr   error

	questions []quizgen.Question
	selected  []string
	index     int
	feedback  bool
	submitted bool

	score   Score
	earned  int
	balance int
}

// New returns a machine in the Upload state.
func New(ledger Ledger) *Machine {
	return &Machine{ledger: ledger, state: StateUpload}
}

func (m *Machine) State() State { return m.state }

// SessionID identifies the current quiz session. It is empty until a
// document is selected.
func (m *Machine) SessionID() string { return m.sessionID }

// Document returns the selected document, or nil.
func (m *Machine) Document() *llm.Document { return m.doc }

// LastError is the most recent generation failure, cleared on the next
// attempt.
func (m *Machine) LastError() error { return m.lastErr }

// SelectDocument chooses the document to quiz on. It starts a new session.
func (m *Machine) SelectDocument(doc llm.Document) error {
	if m.state != StateUpload {
		return ErrInvalidTransition
	}
	if len(doc.Data) == 0 {
		return ErrNoDocument
	}
	m.doc = &doc
	m.sessionID = uuid.NewString()
	m.lastErr = nil
	return nil
}

// BeginGeneration moves Upload to Generating. It refuses without a document
// or a credential, and while a generation is already in flight.
func (m *Machine) BeginGeneration(credential string) (Ticket, error) {
	if m.state != StateUpload {
		return Ticket{}, ErrInvalidTransition
	}
	if m.doc == nil {
		return Ticket{}, ErrNoDocument
	}
	if credential == "" {
		return Ticket{}, ErrNoCredential
	}
	m.attempt++
	m.lastErr = nil
	m.state = StateGenerating
	return m.ticket(), nil
}

// GenerationSucceeded moves Generating to Answering with a fresh answer
// sheet.
func (m *Machine) GenerationSucceeded(t Ticket, questions []quizgen.Question) error {
	if err := m.checkTicket(t); err != nil {
		return err
	}
	if len(questions) != quizgen.QuestionCount {
		return m.GenerationFailed(t, &docreq.ShapeError{
			Reason: fmt.Sprintf("expected %d questions, got %d", quizgen.QuestionCount, len(questions)),
		})
	}
	m.questions = questions
	m.selected = make([]string, len(questions))
	m.index = 0
	m.feedback = false
	m.submitted = false
	m.state = StateAnswering
	return nil
}

// GenerationFailed moves Generating back to Upload, keeping the document so
// the user can retry.
func (m *Machine) GenerationFailed(t Ticket, cause error) error {
	if err := m.checkTicket(t); err != nil {
		return err
	}
	m.lastErr = cause
	m.state = StateUpload
	return nil
}

func (m *Machine) ticket() Ticket {
	return Ticket{SessionID: m.sessionID, Attempt: m.attempt}
}

func (m *Machine) checkTicket(t Ticket) error {
	if m.state != StateGenerating || t != m.ticket() {
		return ErrStaleResult
	}
	return nil
}

// Questions returns the question set being answered.
func (m *Machine) Questions() []quizgen.Question { return m.questions }

// Index is the zero-based position of the current question.
func (m *Machine) Index() int { return m.index }

// Current returns the question at the current position.
func (m *Machine) Current() quizgen.Question {
	if m.index < len(m.questions) {
		return m.questions[m.index]
	}
	return quizgen.Question{}
}

// Selected returns the answer chosen for question i, or "".
func (m *Machine) Selected(i int) string {
	if i < 0 || i >= len(m.selected) {
		return ""
	}
	return m.selected[i]
}

// Answered counts questions with a selection.
func (m *Machine) Answered() int {
	n := 0
	for _, s := range m.selected {
		if s != "" {
			n++
		}
	}
	return n
}

// IsFirst and IsLast describe the current position.
func (m *Machine) IsFirst() bool { return m.index == 0 }
func (m *Machine) IsLast() bool  { return m.index == len(m.questions)-1 }

// FeedbackVisible reports whether correctness is being shown for the current
// question.
func (m *Machine) FeedbackVisible() bool { return m.feedback }

// Submitted reports whether the last question has been checked.
func (m *Machine) Submitted() bool { return m.submitted }

// Select records answer for the current question, replacing any earlier
// choice for that question only.
func (m *Machine) Select(answer string) error {
	if m.state != StateAnswering {
		return ErrInvalidTransition
	}
	if m.feedback {
		return ErrAnswerLocked
	}
	q := m.questions[m.index]
	for _, o := range q.Options {
		if o == answer {
			m.selected[m.index] = answer
			return nil
		}
	}
	return ErrUnknownOption
}

// Next advances. On the last question the first call reveals feedback and
// the following call completes the quiz and credits the reward once.
func (m *Machine) Next(ctx context.Context) (Step, error) {
	if m.state != StateAnswering {
		return 0, ErrInvalidTransition
	}
	if m.selected[m.index] == "" {
		return 0, ErrNoAnswer
	}

	if !m.IsLast() {
		m.index++
		m.feedback = false
		return StepMoved, nil
	}
	if !m.submitted {
		m.submitted = true
		m.feedback = true
		return StepRevealed, nil
	}

	m.complete(ctx)
	return StepCompleted, nil
}

// Back moves to the previous question. It never changes answers.
func (m *Machine) Back() error {
	if m.state != StateAnswering {
		return ErrInvalidTransition
	}
	if m.IsFirst() {
		return ErrFirstQuestion
	}
	m.index--
	m.feedback = false
	return nil
}

func (m *Machine) complete(ctx context.Context) {
	correct := 0
	for i, q := range m.questions {
		if q.IsCorrect(m.selected[i]) {
			correct++
		}
	}
	m.score = Score{Correct: correct, Total: len(m.questions)}
	m.earned = rewards.ForScore(correct)
	m.state = StateResults

	if m.ledger != nil {
		// The ledger only fails on a negative amount, which ForScore
		// never returns.
		m.balance, _ = m.ledger.Add(ctx, m.earned)
	}
}

// Score is valid in Results.
func (m *Machine) Score() Score { return m.score }

// Earned is the reward credited on entering Results.
func (m *Machine) Earned() int { return m.earned }

// Balance is the ledger balance right after the reward was credited.
func (m *Machine) Balance() int { return m.balance }

// Reset returns to Upload from any state and forgets the document,
// questions, score and reward display. A generation still in flight is
// abandoned: its result will carry a stale ticket.
func (m *Machine) Reset() {
	*m = Machine{ledger: m.ledger, state: StateUpload, attempt: m.attempt}
}
