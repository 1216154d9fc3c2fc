package game

import "errors"

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionFull         = errors.New("session is full")
	ErrSessionInProgress   = errors.New("session is already in progress")
	ErrInsufficientPlayers = errors.New("not enough players to start")
	ErrCategoryExhausted   = errors.New("no unused categories left")
	ErrCategoryUnavailable = errors.New("category is not available")
	ErrInvalidTransition   = errors.New("operation not allowed in current phase")
	ErrAlreadyAnswered     = errors.New("player already answered this question")
	ErrUnknownPlayer       = errors.New("player is not part of this session")
	ErrInvalidAnswer       = errors.New("answer index out of range")
)

// messages holds the caller-facing text for each error kind.
var messages = map[error]string{
	ErrSessionNotFound:     "Game does not exist",
	ErrSessionFull:         "Game is full",
	ErrSessionInProgress:   "Game is already in progress",
	ErrInsufficientPlayers: "Not enough players to start",
	ErrCategoryExhausted:   "No categories left to play",
	ErrCategoryUnavailable: "That category cannot be chosen",
	ErrInvalidTransition:   "That action is not allowed right now",
	ErrAlreadyAnswered:     "You already answered this question",
	ErrUnknownPlayer:       "You are not part of this game",
	ErrInvalidAnswer:       "Invalid answer",
}

// Message returns the short human-readable message for err. Unknown errors
// map to a generic message so internal details never leak to clients.
func Message(err error) string {
	for kind, msg := range messages {
		if errors.Is(err, kind) {
			return msg
		}
	}
	return "Something went wrong"
}

// IsSilent reports whether err reflects a stale or duplicate client event
// that should be dropped rather than reported back to the caller.
func IsSilent(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrAlreadyAnswered)
}
