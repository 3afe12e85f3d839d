package game

// CardView is the client-facing representation of a card.
// Symbol is only included when the card is flipped or matched.
type CardView struct {
	Index  int    `json:"index"`
	Symbol string `json:"symbol,omitempty"`
	State  string `json:"state"`
	Hint   bool   `json:"hint,omitempty"`
}

// Snapshot is the immutable session state handed to the render callback.
// MovesProgress is the share of the move budget still available, in [0, 1].
type Snapshot struct {
	Type           string     `json:"type"`
	SessionID      string     `json:"sessionId"`
	Difficulty     string     `json:"difficulty,omitempty"`
	Rows           int        `json:"rows"`
	Cols           int        `json:"cols"`
	Cards          []CardView `json:"cards"`
	FlippedIndices []int      `json:"flippedIndices"`
	MoveCount      int        `json:"moveCount"`
	MaxMoves       int        `json:"maxMoves"`
	MovesProgress  float64    `json:"movesProgress"`
	ProgressTone   string     `json:"progressTone"`
	MatchedPairs   int        `json:"matchedPairs"`
	TotalPairs     int        `json:"totalPairs"`
	ElapsedSeconds int        `json:"elapsedSeconds"`
	HintsRemaining int        `json:"hintsRemaining"`
	Status         string     `json:"status"`
}

// Result is broadcast once when a session reaches Won or Lost.
// Rating is only set on a win.
type Result struct {
	Type           string  `json:"type"`
	SessionID      string  `json:"sessionId"`
	Result         string  `json:"result"`
	Difficulty     string  `json:"difficulty"`
	Score          int     `json:"score"`
	Rating         *Rating `json:"rating,omitempty"`
	RatingText     string  `json:"ratingText,omitempty"`
	MatchedPairs   int     `json:"matchedPairs"`
	TotalPairs     int     `json:"totalPairs"`
	MoveCount      int     `json:"moveCount"`
	MaxMoves       int     `json:"maxMoves"`
	ElapsedSeconds int     `json:"elapsedSeconds"`
}

// BuildCardViews constructs the client-facing card list.
// Hidden cards do not expose their symbol.
func BuildCardViews(board *Board) []CardView {
	if board == nil {
		return []CardView{}
	}
	views := make([]CardView, len(board.Cards))
	for i, card := range board.Cards {
		cv := CardView{
			Index: card.Index,
			State: card.State.String(),
			Hint:  card.Hinted,
		}
		if card.State == Flipped || card.State == Matched {
			cv.Symbol = card.Symbol
		}
		views[i] = cv
	}
	return views
}

// ProgressTone classifies the remaining move budget for display.
func ProgressTone(progress float64) string {
	switch {
	case progress < 0.25:
		return "danger"
	case progress < 0.5:
		return "warning"
	default:
		return "normal"
	}
}
