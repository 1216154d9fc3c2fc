package config

import (
	"fmt"
	"time"

	"quizparty/internal/game"
)

// This file defines the configuration structures used by viper_config.go
// The actual loading is handled by viper in viper_config.go

// Config is the full process configuration
type Config struct {
	Server    ServerSettings    `yaml:"server"`
	Game      GameSettings      `yaml:"game"`
	Questions QuestionsSettings `yaml:"questions"`
	Events    EventsSettings    `yaml:"events"`
}

// ServerSettings contains HTTP and transport settings
type ServerSettings struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"` // 0 for SSE and websocket support
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// Per-IP HTTP rate limiting (golang.org/x/time/rate)
	RateLimit      float64 `yaml:"rateLimit"`      // requests per second
	RateLimitBurst int     `yaml:"rateLimitBurst"` // burst size

	// Per-connection websocket command limiting
	CommandRate  float64 `yaml:"commandRate"`
	CommandBurst int     `yaml:"commandBurst"`

	MaxRequestSize int64    `yaml:"maxRequestSize"`
	AllowedOrigins []string `yaml:"allowedOrigins"`

	// PublicURL is the externally reachable base URL used in join links.
	// Empty means derive it from the request.
	PublicURL string `yaml:"publicURL"`

	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
}

// GameSettings are the session rules and phase timings
type GameSettings struct {
	MaxPlayers        int `yaml:"maxPlayers"`
	MinPlayers        int `yaml:"minPlayers"`
	TotalRounds       int `yaml:"totalRounds"`
	QuestionsPerRound int `yaml:"questionsPerRound"`
	MaxPoints         int `yaml:"maxPoints"`

	VotingDuration   time.Duration `yaml:"votingDuration"`
	VotingGrace      time.Duration `yaml:"votingGrace"`
	QuestionDuration time.Duration `yaml:"questionDuration"`
	RevealGrace      time.Duration `yaml:"revealGrace"`
	AnswerGrace      time.Duration `yaml:"answerGrace"`
	RoundIntroDelay  time.Duration `yaml:"roundIntroDelay"`

	CodeLength      int `yaml:"codeLength"`
	MaxCodeAttempts int `yaml:"maxCodeAttempts"`
}

// QuestionsSettings points at the question bank. An empty path uses the
// bank compiled into the binary.
type QuestionsSettings struct {
	Path string `yaml:"path"`
}

// EventsSettings configures the optional NATS event fan-out
type EventsSettings struct {
	NATSURL       string `yaml:"natsURL"`
	SubjectPrefix string `yaml:"subjectPrefix"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Port:            "8080",
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0, // long-lived SSE streams
			IdleTimeout:     0,
			ShutdownTimeout: 30 * time.Second,

			RateLimit:      10,
			RateLimitBurst: 20,
			CommandRate:    20,
			CommandBurst:   40,

			MaxRequestSize: 1048576, // 1MB
			AllowedOrigins: []string{"*"},

			LogLevel:  "info",
			LogFormat: "text",
		},
		Game: DefaultGameSettings(),
		Events: EventsSettings{
			SubjectPrefix: "quiz.sessions",
		},
	}
}

// DefaultGameSettings returns the standard party rules and timings
func DefaultGameSettings() GameSettings {
	return GameSettings{
		MaxPlayers:        10,
		MinPlayers:        2,
		TotalRounds:       3,
		QuestionsPerRound: 5,
		MaxPoints:         15,

		VotingDuration:   10 * time.Second,
		VotingGrace:      1 * time.Second,
		QuestionDuration: 10 * time.Second,
		RevealGrace:      2 * time.Second,
		AnswerGrace:      2 * time.Second,
		RoundIntroDelay:  2 * time.Second,

		CodeLength:      4,
		MaxCodeAttempts: 32,
	}
}

// Rules converts the settings into the rules a session plays by
func (g GameSettings) Rules() game.Rules {
	return game.Rules{
		MaxPlayers:        g.MaxPlayers,
		MinPlayers:        g.MinPlayers,
		TotalRounds:       g.TotalRounds,
		QuestionsPerRound: g.QuestionsPerRound,
		QuestionDuration:  g.QuestionDuration,
		AnswerGrace:       g.AnswerGrace,
		MaxPoints:         g.MaxPoints,
	}
}

// VotingDeadline is how long voting stays open before it is forced closed
func (g GameSettings) VotingDeadline() time.Duration {
	return g.VotingDuration + g.VotingGrace
}

// AnswerDeadline is how long a question stays open before it is revealed
func (g GameSettings) AnswerDeadline() time.Duration {
	return g.QuestionDuration + g.RevealGrace
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT environment variable must be set")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("HOST environment variable must be set")
	}
	if c.Server.RateLimit <= 0 || c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("rateLimit and rateLimitBurst must be positive")
	}
	if c.Server.CommandRate <= 0 || c.Server.CommandBurst < 1 {
		return fmt.Errorf("commandRate and commandBurst must be positive")
	}
	switch c.Server.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("logFormat must be text or json, got %q", c.Server.LogFormat)
	}
	return c.Game.Validate()
}

// Validate checks the game rules for consistency
func (g GameSettings) Validate() error {
	if g.MinPlayers < 1 {
		return fmt.Errorf("minPlayers must be at least 1")
	}
	if g.MaxPlayers < 1 {
		return fmt.Errorf("maxPlayers must be at least 1")
	}
	if g.MinPlayers > g.MaxPlayers {
		return fmt.Errorf("minPlayers cannot be greater than maxPlayers")
	}
	if g.TotalRounds < 1 {
		return fmt.Errorf("totalRounds must be at least 1")
	}
	if g.QuestionsPerRound < 1 {
		return fmt.Errorf("questionsPerRound must be at least 1")
	}
	if g.MaxPoints < 1 {
		return fmt.Errorf("maxPoints must be at least 1")
	}
	if g.VotingDuration <= 0 || g.QuestionDuration <= 0 {
		return fmt.Errorf("votingDuration and questionDuration must be positive")
	}
	if g.VotingGrace < 0 || g.RevealGrace < 0 || g.AnswerGrace < 0 || g.RoundIntroDelay < 0 {
		return fmt.Errorf("grace periods and delays cannot be negative")
	}
	if g.CodeLength < 3 {
		return fmt.Errorf("codeLength must be at least 3")
	}
	if g.MaxCodeAttempts < 1 {
		return fmt.Errorf("maxCodeAttempts must be at least 1")
	}
	return nil
}
