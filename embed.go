package quizparty

import (
	_ "embed"
)

// Embed the default question bank
//
//go:embed data/questions.yaml
var QuestionsYAML []byte
