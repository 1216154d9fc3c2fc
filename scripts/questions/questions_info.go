package main

import (
	"fmt"
	"os"

	"quizparty"
	"quizparty/internal/config"
	"quizparty/internal/questions"
)

func main() {
	fmt.Println("Quiz Question Bank Info")
	fmt.Println("=======================")
	fmt.Println()

	// Inspect the file given as argument, or the embedded bank
	var (
		bank   *questions.Bank
		err    error
		source = "embedded data/questions.yaml"
	)
	if len(os.Args) > 1 {
		source = os.Args[1]
		bank, err = questions.LoadFile(source)
	} else {
		bank, err = questions.Parse(quizparty.QuestionsYAML)
	}
	if err != nil {
		fmt.Printf("Error loading question bank: %v\n", err)
		os.Exit(1)
	}

	categories := bank.Categories()
	fmt.Printf("Found %d categories (loaded from %s)\n\n", len(categories), source)

	total := 0
	for _, name := range categories {
		qs := bank.Questions(name)
		total += len(qs)
		fmt.Printf("- %s: %d questions\n", name, len(qs))
		if len(qs) > 0 {
			fmt.Printf("    e.g. %q\n", qs[0].Prompt)
		}
	}
	fmt.Printf("\n%d questions in total\n\n", total)

	settings := config.DefaultGameSettings()
	fmt.Printf("Default game: %d rounds of %d questions\n", settings.TotalRounds, settings.QuestionsPerRound)
	if err := bank.CheckCapacity(settings.TotalRounds, settings.QuestionsPerRound); err != nil {
		fmt.Printf("Bank is too small: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Bank can serve a full default game")
}
