package game

import (
	"fmt"

	"memory-match-server/gameerrors"
)

// Difficulty is a named configuration bundle fixing grid size, move budget,
// hint budget and score multiplier.
type Difficulty struct {
	Name       string  `json:"name"`
	Rows       int     `json:"rows"`
	Cols       int     `json:"cols"`
	MaxMoves   int     `json:"maxMoves"`
	Hints      int     `json:"hints"`
	Multiplier float64 `json:"multiplier"`
}

// TotalPairs returns the number of symbol pairs on the board.
func (d Difficulty) TotalPairs() int {
	return d.Rows * d.Cols / 2
}

// Validate reports whether a deck can be built for d from an alphabet of the given size.
func (d Difficulty) Validate(alphabetSize int) error {
	cells := d.Rows * d.Cols
	if d.Rows <= 0 || d.Cols <= 0 || cells%2 != 0 {
		return fmt.Errorf("%s (%dx%d): %w", d.Name, d.Rows, d.Cols, gameerrors.ErrOddBoard)
	}
	if d.MaxMoves <= 0 || d.Hints < 0 || d.Multiplier <= 0 {
		return fmt.Errorf("%s (moves=%d hints=%d multiplier=%v): %w", d.Name, d.MaxMoves, d.Hints, d.Multiplier, gameerrors.ErrInvalidDifficulty)
	}
	if d.TotalPairs() > alphabetSize {
		return fmt.Errorf("%s needs %d symbols, have %d: %w", d.Name, d.TotalPairs(), alphabetSize, gameerrors.ErrAlphabetExhausted)
	}
	return nil
}

// DifficultyProvider abstracts the difficulty registry so the game package
// does not import the difficulty package directly (avoids circular deps).
type DifficultyProvider interface {
	Difficulty(name string) (Difficulty, bool)
	All() []Difficulty
}

// DefaultAlphabet is the symbol set cards are drawn from.
var DefaultAlphabet = []string{
	"🐶", "🐱", "🐭", "🐹", "🐰", "🦊", "🐻", "🐼", "🐨", "🐯",
	"🦁", "🐮", "🐷", "🐸", "🐵", "🐔", "🦄", "🐙", "🦋", "🦀",
	"🐢", "🦓", "🦒", "🐬", "🦩", "🦜", "🦚", "🦉", "🐝", "🦂",
}
