// Package rating defines the pluggable skill-rating abstraction and its
// Glicko implementation.
package rating

// Rating is a participant's skill estimate.
type Rating struct {
	Value     float64
	Deviation float64
}

// MatchResult is one simulated or real game against an opponent.
// Score is 0 for a loss, 0.5 for a draw and 1 for a win.
type MatchResult struct {
	OpponentRating    float64
	OpponentDeviation float64
	Score             float64
}

// PlacedRating is a participant's finishing position together with their
// rating at the start of the tournament.
type PlacedRating struct {
	ParticipantID string
	Position      int
	Rating        Rating
}

// System is a skill-rating algorithm. Implementations are stateless once
// constructed and safe for concurrent use.
type System interface {
	// ID is the registry key.
	ID() string
	// Name is a human readable label.
	Name() string
	// NewRating returns the rating of a participant with no history.
	NewRating() Rating
	// Update applies a batch of match results. An empty batch returns current.
	Update(current Rating, matches []MatchResult) Rating
	// IsProvisional reports whether eventCount is too low to trust the rating.
	IsProvisional(eventCount int) bool
	// ApplyInactivityDecay widens the deviation after daysInactive idle days.
	ApplyInactivityDecay(current Rating, daysInactive int) Rating
	// SimulateTournamentMatches derives head-to-head results for the entry
	// at position from a position-only result list.
	SimulateTournamentMatches(position int, results []PlacedRating, opponentsRange int) []MatchResult
}

// TVAContributor lets a rating system own the rating-based tournament value rule.
type TVAContributor interface {
	ContributesToTVA(r Rating) bool
	TVAContribution(r Rating) float64
}
