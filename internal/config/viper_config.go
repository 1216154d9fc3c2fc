package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration using Viper
// Priority order: Environment variables > Config file > Defaults
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("server")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/quizparty")
	}

	// Enable environment variable binding
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// These allow both SERVER_PORT and PORT to work
	v.BindEnv("server.port", "SERVER_PORT", "PORT")
	v.BindEnv("server.host", "SERVER_HOST", "HOST")
	v.BindEnv("server.loglevel", "SERVER_LOGLEVEL", "LOG_LEVEL")
	v.BindEnv("server.logformat", "SERVER_LOGFORMAT", "LOG_FORMAT")
	v.BindEnv("server.ratelimit", "SERVER_RATELIMIT", "RATE_LIMIT")
	v.BindEnv("server.ratelimitburst", "SERVER_RATELIMITBURST", "RATE_LIMIT_BURST")
	v.BindEnv("server.maxrequestsize", "SERVER_MAXREQUESTSIZE", "MAX_REQUEST_SIZE")
	v.BindEnv("server.allowedorigins", "SERVER_ALLOWEDORIGINS", "ALLOWED_ORIGINS")
	v.BindEnv("server.publicurl", "SERVER_PUBLICURL", "PUBLIC_URL")
	v.BindEnv("questions.path", "QUESTIONS_PATH")
	v.BindEnv("events.natsurl", "EVENTS_NATSURL", "NATS_URL")

	setDefaults(v, DefaultConfig())

	// The config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.readtimeout", d.Server.ReadTimeout)
	v.SetDefault("server.writetimeout", d.Server.WriteTimeout)
	v.SetDefault("server.idletimeout", d.Server.IdleTimeout)
	v.SetDefault("server.shutdowntimeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.ratelimit", d.Server.RateLimit)
	v.SetDefault("server.ratelimitburst", d.Server.RateLimitBurst)
	v.SetDefault("server.commandrate", d.Server.CommandRate)
	v.SetDefault("server.commandburst", d.Server.CommandBurst)
	v.SetDefault("server.maxrequestsize", d.Server.MaxRequestSize)
	v.SetDefault("server.allowedorigins", d.Server.AllowedOrigins)
	v.SetDefault("server.publicurl", d.Server.PublicURL)
	v.SetDefault("server.loglevel", d.Server.LogLevel)
	v.SetDefault("server.logformat", d.Server.LogFormat)

	v.SetDefault("game.maxplayers", d.Game.MaxPlayers)
	v.SetDefault("game.minplayers", d.Game.MinPlayers)
	v.SetDefault("game.totalrounds", d.Game.TotalRounds)
	v.SetDefault("game.questionsperround", d.Game.QuestionsPerRound)
	v.SetDefault("game.maxpoints", d.Game.MaxPoints)
	v.SetDefault("game.votingduration", d.Game.VotingDuration)
	v.SetDefault("game.votinggrace", d.Game.VotingGrace)
	v.SetDefault("game.questionduration", d.Game.QuestionDuration)
	v.SetDefault("game.revealgrace", d.Game.RevealGrace)
	v.SetDefault("game.answergrace", d.Game.AnswerGrace)
	v.SetDefault("game.roundintrodelay", d.Game.RoundIntroDelay)
	v.SetDefault("game.codelength", d.Game.CodeLength)
	v.SetDefault("game.maxcodeattempts", d.Game.MaxCodeAttempts)

	v.SetDefault("questions.path", d.Questions.Path)
	v.SetDefault("events.natsurl", d.Events.NATSURL)
	v.SetDefault("events.subjectprefix", d.Events.SubjectPrefix)
}
