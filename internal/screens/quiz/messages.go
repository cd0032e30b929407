package quiz

import (
	"time"

	qz "github.com/abhisek/pdfquiz/internal/quiz"
	"github.com/abhisek/pdfquiz/internal/quizgen"
)

// generatedMsg carries the outcome of one generation request.
type generatedMsg struct {
	Ticket    qz.Ticket
	Questions []quizgen.Question
	Err       error
}

// spinnerTickMsg animates the generating view.
type spinnerTickMsg time.Time
