package quizgen

// QuestionCount is the fixed size of every generated quiz.
const QuestionCount = 5

// OptionCount is the number of choices per question.
const OptionCount = 4

// Question is one multiple-choice item. CorrectAnswer is the text of one of
// Options, not an index.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// IsCorrect reports whether answer is the correct option.
func (q Question) IsCorrect(answer string) bool {
	return answer != "" && answer == q.CorrectAnswer
}

// QuestionSet is the validated generation result.
type QuestionSet struct {
	Questions []Question `json:"questions"`
}
