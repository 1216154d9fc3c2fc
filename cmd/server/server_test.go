package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"quizparty/internal/config"
)

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := NewApp(cfg, clockwork.NewFakeClock(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		app.Shutdown(ctx)
	})
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t, config.DefaultConfig())

	testCases := []struct {
		method       string
		path         string
		expectedCode int
	}{
		{"GET", "/health/live", http.StatusOK},
		{"GET", "/health/ready", http.StatusOK},
		{"GET", "/api/sessions/ZZZZ", http.StatusNotFound},
		{"GET", "/api/sessions/ZZZZ/qr", http.StatusNotFound},
		{"DELETE", "/api/sessions/ZZZZ", http.StatusNotFound},
		{"GET", "/sse/session/ZZZZ", http.StatusNotFound},
		{"GET", "/ws", http.StatusBadRequest}, // not an upgrade request
		{"GET", "/nope", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			app.Handler.ServeHTTP(w, req)

			if w.Code != tc.expectedCode {
				t.Errorf("expected status %d, got %d", tc.expectedCode, w.Code)
			}
		})
	}
}

func TestNewApp_QuestionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	bank := `categories:
  - name: Only
    questions:
      - question: "1 + 1?"
        answers: ["1", "2"]
        correctIndex: 1
`
	if err := os.WriteFile(path, []byte(bank), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Questions.Path = path
	cfg.Game.TotalRounds = 1
	cfg.Game.QuestionsPerRound = 1
	newTestApp(t, cfg)

	// Three rounds of five questions cannot come out of one category
	cfg = config.DefaultConfig()
	cfg.Questions.Path = path
	if _, err := NewApp(cfg, clockwork.NewFakeClock(), zerolog.Nop()); err == nil {
		t.Error("expected capacity error for a too small bank")
	}

	cfg = config.DefaultConfig()
	cfg.Questions.Path = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := NewApp(cfg, clockwork.NewFakeClock(), zerolog.Nop()); err == nil {
		t.Error("expected error for a missing question file")
	}
}

func TestNewApp_NATSUnavailable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Events.NATSURL = "nats://127.0.0.1:1"

	if _, err := NewApp(cfg, clockwork.NewFakeClock(), zerolog.Nop()); err == nil {
		t.Error("expected error when NATS is unreachable")
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://quiz.example.com"})

	testCases := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://quiz.example.com", true},
		{"https://evil.example.com", false},
	}

	for _, tc := range testCases {
		req := httptest.NewRequest("GET", "/ws", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		if got := check(req); got != tc.want {
			t.Errorf("origin %q: expected %v, got %v", tc.origin, tc.want, got)
		}
	}

	if !originChecker([]string{"*"})(httptest.NewRequest("GET", "/ws", nil)) {
		t.Error("wildcard should allow any origin")
	}
}
