package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	"quizparty/internal/orchestrator"
)

// Inbound verbs
const (
	verbCreateGame     = "create-game"
	verbJoinGame       = "join-game"
	verbStartGame      = "start-game"
	verbSubmitVote     = "submit-vote"
	verbEndVoting      = "end-voting"
	verbNextQuestion   = "next-question"
	verbStartNextRound = "start-next-round"
	verbSubmitAnswer   = "submit-answer"
	verbPlayerReady    = "player-ready"
	verbRemovePlayer   = "remove-player"
	verbRestartGame    = "restart-game"
	verbPing           = "ping"
)

var errMalformed = errors.New("malformed message")

// envelope is one client message: {"type": verb, "payload": {...}}
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type joinPayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

type votePayload struct {
	Category string `json:"category"`
}

type answerPayload struct {
	AnswerIndex *int `json:"answerIndex"`
}

type removePayload struct {
	PlayerID string `json:"playerId"`
}

func parseEnvelope(data []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if env.Type == "" {
		return envelope{}, fmt.Errorf("%w: missing type", errMalformed)
	}
	return env, nil
}

func decodePayload(env envelope, v any) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("%w: %s needs a payload", errMalformed, env.Type)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", errMalformed, env.Type, err)
	}
	return nil
}

// parseJoin decodes a join-game payload
func parseJoin(env envelope) (joinPayload, error) {
	var p joinPayload
	if err := decodePayload(env, &p); err != nil {
		return p, err
	}
	if p.GameID == "" {
		return p, fmt.Errorf("%w: join-game without gameId", errMalformed)
	}
	return p, nil
}

// toCommand turns an in-session verb into an orchestrator command
func toCommand(connID string, env envelope) (orchestrator.Command, error) {
	switch env.Type {
	case verbStartGame:
		return orchestrator.StartGame{ConnID: connID}, nil
	case verbSubmitVote:
		var p votePayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		if p.Category == "" {
			return nil, fmt.Errorf("%w: empty category", errMalformed)
		}
		return orchestrator.SubmitVote{ConnID: connID, Category: p.Category}, nil
	case verbEndVoting:
		return orchestrator.EndVoting{ConnID: connID}, nil
	case verbNextQuestion:
		return orchestrator.NextQuestion{ConnID: connID}, nil
	case verbStartNextRound:
		return orchestrator.NextRound{ConnID: connID}, nil
	case verbSubmitAnswer:
		var p answerPayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		if p.AnswerIndex == nil {
			return nil, fmt.Errorf("%w: missing answerIndex", errMalformed)
		}
		return orchestrator.SubmitAnswer{ConnID: connID, AnswerIndex: *p.AnswerIndex}, nil
	case verbPlayerReady:
		return orchestrator.SignalReady{ConnID: connID}, nil
	case verbRemovePlayer:
		var p removePayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		if p.PlayerID == "" {
			return nil, fmt.Errorf("%w: missing playerId", errMalformed)
		}
		return orchestrator.RemovePlayer{ConnID: connID, PlayerID: p.PlayerID}, nil
	case verbRestartGame:
		return orchestrator.Restart{ConnID: connID}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", errMalformed, env.Type)
}
