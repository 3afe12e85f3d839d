package game

import (
	"memory-match-server/random"
)

// CardState represents the current state of a card.
type CardState int

const (
	Hidden CardState = iota
	Flipped
	Matched
)

// String returns the string representation of a CardState.
func (cs CardState) String() string {
	switch cs {
	case Hidden:
		return "hidden"
	case Flipped:
		return "flipped"
	case Matched:
		return "matched"
	default:
		return "unknown"
	}
}

// Card represents a single card on the board.
// Hinted is a transient marker cleared on the next accepted flip.
type Card struct {
	Index  int
	Symbol string
	State  CardState
	Hinted bool
}

// Board represents the game board.
type Board struct {
	Rows  int
	Cols  int
	Cards []Card
}

// NewBoard creates a board of rows*cols cards using the first rows*cols/2
// symbols of alphabet, each twice, shuffled with r.
// The caller is expected to have validated the dimensions.
func NewBoard(rows, cols int, alphabet []string, r random.Random) *Board {
	totalCards := rows * cols
	numPairs := totalCards / 2

	cards := make([]Card, totalCards)
	for i := 0; i < numPairs; i++ {
		cards[2*i] = Card{Symbol: alphabet[i], State: Hidden}
		cards[2*i+1] = Card{Symbol: alphabet[i], State: Hidden}
	}

	random.Shuffle(r, totalCards, func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	// Assign indices after shuffle
	for i := range cards {
		cards[i].Index = i
	}

	return &Board{
		Rows:  rows,
		Cols:  cols,
		Cards: cards,
	}
}

// AllMatched returns true if every card on the board is in the Matched state.
func AllMatched(board *Board) bool {
	for _, card := range board.Cards {
		if card.State != Matched {
			return false
		}
	}
	return true
}

// ClearHints removes every hint marker.
func ClearHints(board *Board) {
	for i := range board.Cards {
		board.Cards[i].Hinted = false
	}
}

// HiddenPartner returns the index of a hidden card with the same symbol as
// the card at idx, or -1 if there is none.
func HiddenPartner(board *Board, idx int) int {
	symbol := board.Cards[idx].Symbol
	for i, card := range board.Cards {
		if i != idx && card.State == Hidden && card.Symbol == symbol {
			return i
		}
	}
	return -1
}

// OpenSymbols returns, in board order of first appearance, every symbol that
// still has at least two non-matched cards, with those cards' indices.
func OpenSymbols(board *Board) ([]string, map[string][]int) {
	var order []string
	indices := make(map[string][]int)
	for i, card := range board.Cards {
		if card.State == Matched {
			continue
		}
		if _, seen := indices[card.Symbol]; !seen {
			order = append(order, card.Symbol)
		}
		indices[card.Symbol] = append(indices[card.Symbol], i)
	}
	open := order[:0]
	for _, s := range order {
		if len(indices[s]) >= 2 {
			open = append(open, s)
		}
	}
	return open, indices
}

// RevealUnmatched flips every card that is not matched. Used when a session is lost.
func RevealUnmatched(board *Board) {
	for i := range board.Cards {
		if board.Cards[i].State != Matched {
			board.Cards[i].State = Flipped
		}
	}
}
