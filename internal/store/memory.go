package store

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"

	"quizparty/internal/config"
	"quizparty/internal/game"
)

// codeAlphabet has 32 symbols and no I, O, 0 or 1
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var ErrCodeSpaceExhausted = errors.New("could not allocate a unique session code")

// MemoryStore holds all session state in memory
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session

	settings config.GameSettings
	bank     game.QuestionSource
	newCode  func() string
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(settings config.GameSettings, bank game.QuestionSource) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*game.Session),
		settings: settings,
		bank:     bank,
	}
	s.newCode = func() string { return generateCode(settings.CodeLength) }
	return s
}

// CreateSession registers a new lobby session under a fresh code
func (s *MemoryStore) CreateSession(hostConnID string) (*game.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < s.settings.MaxCodeAttempts; i++ {
		code := s.newCode()
		if _, exists := s.sessions[code]; exists {
			continue
		}
		session := game.NewSession(code, hostConnID, s.settings.Rules(), s.bank, nil)
		s.sessions[code] = session
		return session, nil
	}
	return nil, ErrCodeSpaceExhausted
}

// GetSession retrieves a session by code, ignoring case
func (s *MemoryStore) GetSession(code string) (*game.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[strings.ToUpper(code)]
	return session, exists
}

// RemoveSession forgets a session. It reports whether it existed.
func (s *MemoryStore) RemoveSession(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	code = strings.ToUpper(code)
	if _, exists := s.sessions[code]; !exists {
		return false
	}
	delete(s.sessions, code)
	return true
}

// generateCode generates a code of n characters from codeAlphabet
func generateCode(n int) string {
	b := make([]byte, n)
	rand.Read(b)

	for i := range b {
		b[i] = codeAlphabet[b[i]%byte(len(codeAlphabet))]
	}

	return string(b)
}
