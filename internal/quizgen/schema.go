package quizgen

import "github.com/abhisek/pdfquiz/internal/llm"

// QuestionsSchema constrains the provider output to exactly five questions.
var QuestionsSchema = &llm.Schema{
	Name:        "quiz-questions",
	Description: "Five multiple-choice questions about the attached document",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": QuestionCount,
				"maxItems": QuestionCount,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "The question text",
						},
						"options": map[string]any{
							"type":        "array",
							"minItems":    OptionCount,
							"maxItems":    OptionCount,
							"items":       map[string]any{"type": "string"},
							"description": "Exactly 4 distinct answer options",
						},
						"correctAnswer": map[string]any{
							"type":        "string",
							"description": "The correct answer, copied verbatim from options",
						},
					},
					"required":             []any{"question", "options", "correctAnswer"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
