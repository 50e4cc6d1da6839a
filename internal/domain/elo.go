package domain

import "math"

const (
	KFactor       = 32.0
	InitialRating = 1200
)

// CalculateElo returns the new rating for player A.
// score is 1.0 for a win, 0.5 for a draw, and 0.0 for a loss.
func CalculateElo(ratingA, ratingB int, score float64) int {
	expectedScoreA := 1.0 / (1.0 + math.Pow(10.0, float64(ratingB-ratingA)/400.0))
	newRating := float64(ratingA) + KFactor*(score-expectedScoreA)

	if newRating < 0 {
		return 0
	}
	return int(math.Round(newRating))
}

// UpdateRatings applies one finished game to both ratings. winner is Empty for a draw.
func UpdateRatings(rating1, rating2 int, winner PlayerID) (int, int) {
	score1 := 0.5
	switch winner {
	case Player1:
		score1 = 1.0
	case Player2:
		score1 = 0.0
	}
	return CalculateElo(rating1, rating2, score1), CalculateElo(rating2, rating1, 1.0-score1)
}
