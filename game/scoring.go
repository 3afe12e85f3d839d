package game

import (
	"math"
	"strings"
)

const (
	pointsPerPair      = 100
	timeBonusCeiling   = 300
	pointsPerSpareMove = 10
)

// CalculateScore returns the final score of a finished session. It is 0 unless won.
func CalculateScore(d Difficulty, moves, elapsedSeconds int, won bool) int {
	if !won {
		return 0
	}
	timeBonus := max(1, timeBonusCeiling-elapsedSeconds)
	moveEfficiency := max(0, d.MaxMoves-moves)
	raw := d.TotalPairs()*pointsPerPair + timeBonus + moveEfficiency*pointsPerSpareMove
	return int(math.Floor(float64(raw) * d.Multiplier))
}

// Rating is one tier of the five-tier memory rating.
type Rating struct {
	Stars int    `json:"stars"`
	Label string `json:"label"`
}

// String renders the rating as stars followed by its label, e.g. "★★★★☆ (Excellent!)".
func (r Rating) String() string {
	return strings.Repeat("★", r.Stars) + strings.Repeat("☆", 5-r.Stars) + " (" + r.Label + ")"
}

// ratingTiers are ordered best first; a tier applies when efficiency >= MinPercent.
var ratingTiers = []struct {
	MinPercent int
	Rating     Rating
}{
	{80, Rating{Stars: 5, Label: "Photographic Memory!"}},
	{60, Rating{Stars: 4, Label: "Excellent!"}},
	{40, Rating{Stars: 3, Label: "Good Job!"}},
	{20, Rating{Stars: 2, Label: "Keep Practicing!"}},
}

var lowestRating = Rating{Stars: 1, Label: "Better Luck Next Time!"}

// CalculateRating buckets the share of unused moves into a five-tier rating.
// Thresholds are compared in integer arithmetic so each lower bound is exact.
func CalculateRating(moves, maxMoves int) Rating {
	if maxMoves <= 0 {
		return lowestRating
	}
	spare := (maxMoves - moves) * 100
	for _, tier := range ratingTiers {
		if spare >= tier.MinPercent*maxMoves {
			return tier.Rating
		}
	}
	return lowestRating
}
