package quizgen

const systemPrompt = "You are an expert at creating educational quizzes from documents."

const instruction = "Generate 5 multiple-choice quiz questions based on the content of this PDF. " +
	"Each question should have 4 options with exactly one correct answer. " +
	"Make the questions challenging but fair, covering key concepts from the document."
