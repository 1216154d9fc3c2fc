package game

import "math/rand/v2"

// Question is a single multiple-choice question
type Question struct {
	Prompt       string   `json:"question" yaml:"question"`
	Answers      []string `json:"answers" yaml:"answers"`
	CorrectIndex int      `json:"correctIndex" yaml:"correctIndex"`
}

// QuestionSource is the read-only question bank a session draws from.
// Implementations must be safe for concurrent reads.
type QuestionSource interface {
	// Categories returns every category name in a stable order.
	Categories() []string
	// Questions returns the questions of a category, or nil if unknown.
	Questions(category string) []Question
}

// drawQuestions picks up to n questions of category in random order.
// The bank's slice is copied, never shuffled in place.
func drawQuestions(src QuestionSource, category string, n int, rng *rand.Rand) []Question {
	pool := src.Questions(category)
	shuffled := make([]Question, len(pool))
	copy(shuffled, pool)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if len(shuffled) > n {
		shuffled = shuffled[:n]
	}
	return shuffled
}
