package game

// PublicState is the snapshot broadcast to a session's group after every
// state change. It never contains the correct answer of a running question.
type PublicState struct {
	GameID              string        `json:"gameId"`
	Players             []Player      `json:"players"`
	Status              Phase         `json:"status"`
	ReadyToStart        bool          `json:"readyToStart"`
	Round               int           `json:"round"`
	TotalRounds         int           `json:"totalRounds"`
	CurrentCategory     string        `json:"currentCategory"`
	AvailableCategories []string      `json:"availableCategories"`
	QuestionIndex       int           `json:"questionIndex"`
	TotalQuestions      int           `json:"totalQuestions"`
	CurrentQuestion     *QuestionView `json:"currentQuestion"`
	QuestionStartTime   *int64        `json:"questionStartTime"`
	QuestionDuration    int           `json:"questionDuration"`
	Revealed            bool          `json:"revealed"`
	VotesCast           int           `json:"votesCast"`
	ReadyCount          int           `json:"readyCount"`
}

// QuestionView is a question as shown to players
type QuestionView struct {
	Question string   `json:"question"`
	Answers  []string `json:"answers"`
}

// Reveal is emitted once when a question closes
type Reveal struct {
	CorrectAnswerIndex int            `json:"correctAnswerIndex"`
	AnswerDistribution []Distribution `json:"answerDistribution"`
}

// PublicState builds the client-facing snapshot of the session
func (s *Session) PublicState() PublicState {
	total := len(s.questions)
	if total == 0 {
		total = s.rules.QuestionsPerRound
	}

	state := PublicState{
		GameID:              s.Code,
		Players:             s.Players(),
		Status:              s.phase,
		ReadyToStart:        s.ConnectedCount() >= s.rules.MinPlayers,
		Round:               s.round,
		TotalRounds:         s.rules.TotalRounds,
		CurrentCategory:     s.category,
		AvailableCategories: s.UnusedCategories(),
		QuestionIndex:       s.questionIndex + 1,
		TotalQuestions:      total,
		QuestionDuration:    int(s.rules.QuestionDuration.Seconds()),
		Revealed:            s.revealed,
		VotesCast:           len(s.votes),
		ReadyCount:          len(s.ready),
	}

	if q, ok := s.CurrentQuestion(); ok {
		answers := make([]string, len(q.Answers))
		copy(answers, q.Answers)
		state.CurrentQuestion = &QuestionView{Question: q.Prompt, Answers: answers}
		started := s.questionStart.UnixMilli()
		state.QuestionStartTime = &started
	}
	return state
}
