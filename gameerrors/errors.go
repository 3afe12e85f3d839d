package gameerrors

import "errors"

// Session and connection sentinel errors. Shared by game, sessions and ws
// to avoid circular imports.
var (
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrAlphabetExhausted = errors.New("not enough symbols for this board")
	ErrOddBoard          = errors.New("board must have an even number of cards")
	ErrSessionNotFound   = errors.New("session not found")
	ErrNotAuthenticated  = errors.New("not authenticated")
)
