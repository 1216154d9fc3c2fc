package handlers

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizparty/internal/orchestrator"
)

func TestParseEnvelope(t *testing.T) {
	env, err := parseEnvelope([]byte(`{"type":"submit-vote","payload":{"category":"History"}}`))
	require.NoError(t, err)
	assert.Equal(t, verbSubmitVote, env.Type)
	assert.JSONEq(t, `{"category":"History"}`, string(env.Payload))

	_, err = parseEnvelope([]byte(`{"payload":{}}`))
	assert.True(t, errors.Is(err, errMalformed))

	_, err = parseEnvelope([]byte(`nope`))
	assert.True(t, errors.Is(err, errMalformed))
}

func TestParseJoin(t *testing.T) {
	p, err := parseJoin(envelope{Type: verbJoinGame, Payload: json.RawMessage(`{"gameId":"abcd","playerId":"p1"}`)})
	require.NoError(t, err)
	assert.Equal(t, "abcd", p.GameID)
	assert.Equal(t, "p1", p.PlayerID)

	_, err = parseJoin(envelope{Type: verbJoinGame, Payload: json.RawMessage(`{"playerId":"p1"}`)})
	assert.ErrorIs(t, err, errMalformed)

	_, err = parseJoin(envelope{Type: verbJoinGame})
	assert.ErrorIs(t, err, errMalformed)
}

func TestToCommand(t *testing.T) {
	tests := []struct {
		name    string
		verb    string
		payload string
		want    orchestrator.Command
		wantErr bool
	}{
		{name: "start", verb: verbStartGame, want: orchestrator.StartGame{ConnID: "c1"}},
		{name: "vote", verb: verbSubmitVote, payload: `{"category":"Music"}`, want: orchestrator.SubmitVote{ConnID: "c1", Category: "Music"}},
		{name: "vote without category", verb: verbSubmitVote, payload: `{}`, wantErr: true},
		{name: "vote with wrong type", verb: verbSubmitVote, payload: `{"category":3}`, wantErr: true},
		{name: "end voting", verb: verbEndVoting, want: orchestrator.EndVoting{ConnID: "c1"}},
		{name: "next question", verb: verbNextQuestion, want: orchestrator.NextQuestion{ConnID: "c1"}},
		{name: "next round", verb: verbStartNextRound, want: orchestrator.NextRound{ConnID: "c1"}},
		{name: "answer", verb: verbSubmitAnswer, payload: `{"answerIndex":2}`, want: orchestrator.SubmitAnswer{ConnID: "c1", AnswerIndex: 2}},
		{name: "answer zero", verb: verbSubmitAnswer, payload: `{"answerIndex":0}`, want: orchestrator.SubmitAnswer{ConnID: "c1", AnswerIndex: 0}},
		{name: "answer missing index", verb: verbSubmitAnswer, payload: `{}`, wantErr: true},
		{name: "ready", verb: verbPlayerReady, want: orchestrator.SignalReady{ConnID: "c1"}},
		{name: "remove", verb: verbRemovePlayer, payload: `{"playerId":"p9"}`, want: orchestrator.RemovePlayer{ConnID: "c1", PlayerID: "p9"}},
		{name: "remove without player", verb: verbRemovePlayer, payload: `{}`, wantErr: true},
		{name: "restart", verb: verbRestartGame, want: orchestrator.Restart{ConnID: "c1"}},
		{name: "unknown", verb: "dance", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := envelope{Type: tt.verb}
			if tt.payload != "" {
				env.Payload = json.RawMessage(tt.payload)
			}
			got, err := toCommand("c1", env)
			if tt.wantErr {
				assert.ErrorIs(t, err, errMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
