package questions

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quizparty/internal/game"
)

var ErrInvalidBank = errors.New("invalid question bank")

// file is the on-disk layout of a bank
type file struct {
	Categories []category `yaml:"categories"`
}

type category struct {
	Name      string          `yaml:"name"`
	Questions []game.Question `yaml:"questions"`
}

// Bank is an immutable question bank keyed by category. It is safe for
// concurrent reads and implements game.QuestionSource.
type Bank struct {
	order []string
	byCat map[string][]game.Question
}

var _ game.QuestionSource = (*Bank)(nil)

// Parse decodes and validates a YAML bank
func Parse(data []byte) (*Bank, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBank, err)
	}

	b := &Bank{byCat: make(map[string][]game.Question, len(f.Categories))}
	for _, c := range f.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: category without a name", ErrInvalidBank)
		}
		if _, dup := b.byCat[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalidBank, c.Name)
		}
		if len(c.Questions) == 0 {
			return nil, fmt.Errorf("%w: category %q has no questions", ErrInvalidBank, c.Name)
		}
		for i, q := range c.Questions {
			if err := validateQuestion(q); err != nil {
				return nil, fmt.Errorf("%w: %s question %d: %v", ErrInvalidBank, c.Name, i+1, err)
			}
		}
		b.order = append(b.order, c.Name)
		b.byCat[c.Name] = c.Questions
	}

	if len(b.order) == 0 {
		return nil, fmt.Errorf("%w: no categories", ErrInvalidBank)
	}
	return b, nil
}

// LoadFile reads a bank from disk
func LoadFile(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data)
}

func validateQuestion(q game.Question) error {
	if q.Prompt == "" {
		return errors.New("empty prompt")
	}
	if len(q.Answers) < 2 {
		return errors.New("needs at least two answers")
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Answers) {
		return fmt.Errorf("correctIndex %d out of range", q.CorrectIndex)
	}
	return nil
}

// Categories returns the category names in file order
func (b *Bank) Categories() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Questions returns the questions of category, or nil if it is unknown
func (b *Bank) Questions(category string) []game.Question {
	return b.byCat[category]
}

// CheckCapacity reports whether the bank can serve a full game: one fresh
// category per round, each with enough questions to fill a round.
func (b *Bank) CheckCapacity(rounds, perRound int) error {
	if len(b.order) < rounds {
		return fmt.Errorf("bank has %d categories, a game needs %d", len(b.order), rounds)
	}
	for _, name := range b.order {
		if n := len(b.byCat[name]); n < perRound {
			return fmt.Errorf("category %q has %d questions, a round needs %d", name, n, perRound)
		}
	}
	return nil
}
