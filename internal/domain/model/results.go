package model

// FinishResult places a participant in a tournament, 1 being best.
// Opted-out results keep their position but earn no dynamic points.
type FinishResult struct {
	Participant Participant
	Position    int
	OptedOut    bool
}

// PointAward is the points earned by one finish.
type PointAward struct {
	ParticipantID string
	Position      int
	LinearPoints  float64
	DynamicPoints float64
	TotalPoints   float64
}

// Standing is the stored record of a participant's finish in one stage of a
// tournament, plus the points and decay derived from it.
type Standing struct {
	ParticipantID   string
	TournamentID    string
	Position        int
	IsFinals        bool
	OptedOut        bool
	LinearPoints    float64
	DynamicPoints   float64
	TotalPoints     float64
	DecayMultiplier float64
	DecayedPoints   float64
}

// MergedStanding is a Standing placed in the combined qualifying+finals
// order. It is always derived from its sources and never stored.
type MergedStanding struct {
	Standing
	MergedPosition int
	IsFinalist     bool
}
