// Package model contains the plain data passed between the engine's calculators.
package model

// Participant is a player entering a tournament, as supplied by the caller.
type Participant struct {
	ID              string
	Name            string
	Rating          float64
	RatingDeviation float64
	// Ranking is the world ranking, lower is better; nil means unranked.
	Ranking *int
	// IsRated holds iff EventCount reaches the rated threshold of the active
	// rating system. Engine.Classify derives it.
	IsRated    bool
	EventCount int
}

// HasRanking reports whether a usable world ranking is present.
func (p Participant) HasRanking() bool {
	return p.Ranking != nil && *p.Ranking > 0
}

// RankingOf returns a pointer suitable for Participant.Ranking.
func RankingOf(rank int) *int {
	return &rank
}
