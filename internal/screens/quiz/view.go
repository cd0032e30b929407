package quiz

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	qz "github.com/abhisek/pdfquiz/internal/quiz"
	"github.com/abhisek/pdfquiz/internal/ui/components"
	"github.com/abhisek/pdfquiz/internal/ui/theme"
)

func (s *QuizScreen) View(width, height int) string {
	var body string
	switch s.machine.State() {
	case qz.StateGenerating:
		body = s.renderGenerating()
	case qz.StateAnswering:
		body = s.renderQuestion(width)
	case qz.StateResults:
		body = s.renderResults(width)
	default:
		body = s.renderUpload()
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}

func (s *QuizScreen) renderUpload() string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Generate a quiz"))
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Render("Enter the path of a PDF file:"))
	b.WriteString("\n")
	b.WriteString(s.path.View())
	b.WriteString("\n\n")

	sel := s.svc.Settings.Selection()
	b.WriteString(theme.Hint.Render(fmt.Sprintf("Using %s · %s", sel.Label(), sel.Model)))
	if doc := s.machine.Document(); doc != nil && s.machine.LastError() != nil {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render(fmt.Sprintf("Last file: %s (press Enter to retry)", doc.Name)))
	}
	if s.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.ErrorText.Render(s.errMsg))
	}
	return theme.Card.Render(b.String())
}

func (s *QuizScreen) renderGenerating() string {
	frame := spinnerFrames[s.frame%len(spinnerFrames)]
	name := ""
	if doc := s.machine.Document(); doc != nil {
		name = doc.Name
	}
	return lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Secondary).Render(frame+" Generating questions..."),
		"",
		theme.Hint.Render(name),
	)
}

func (s *QuizScreen) renderQuestion(width int) string {
	m := s.machine
	total := len(m.Questions())
	cw := min(width-8, 76)

	var b strings.Builder
	b.WriteString(components.NewProgressBar(
		fmt.Sprintf("Question %d of %d", m.Index()+1, total),
		m.Index()+1, total, false, cw).View())
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().Width(cw).Foreground(theme.Text).Bold(true).Render(m.Current().Question))
	b.WriteString("\n\n")
	b.WriteString(s.options.View())

	if m.FeedbackVisible() {
		b.WriteString("\n")
		if m.Current().IsCorrect(m.Selected(m.Index())) {
			b.WriteString(theme.Correct.Render("Correct!"))
		} else {
			b.WriteString(theme.Incorrect.Render("Not quite. The answer is " + m.Current().CorrectAnswer))
		}
	}
	if s.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.ErrorText.Render(s.errMsg))
	}
	return b.String()
}

func (s *QuizScreen) renderResults(width int) string {
	m := s.machine
	score := m.Score()
	cw := min(width-8, 76)

	var b strings.Builder
	b.WriteString(theme.Title.Render("Quiz complete"))
	b.WriteString("\n\n")

	pct := 0
	if score.Total > 0 {
		pct = score.Correct * 100 / score.Total
	}
	b.WriteString(theme.Body.Render(fmt.Sprintf("You scored %d/%d (%d%%)", score.Correct, score.Total, pct)))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).
		Render(fmt.Sprintf("+%d coins · balance %d", m.Earned(), m.Balance())))
	b.WriteString("\n\n")

	for i, q := range m.Questions() {
		chosen := m.Selected(i)
		mark := theme.Correct.Render("✓")
		if !q.IsCorrect(chosen) {
			mark = theme.Incorrect.Render("✗")
		}
		b.WriteString(fmt.Sprintf("%s %d. %s\n", mark, i+1,
			lipgloss.NewStyle().Width(cw-4).Render(q.Question)))
		if !q.IsCorrect(chosen) {
			b.WriteString(theme.Muted.Render(fmt.Sprintf("     yours: %s · answer: %s", chosen, q.CorrectAnswer)))
			b.WriteString("\n")
		}
	}
	return b.String()
}
