package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/rankpoints/internal/domain/model"
	"github.com/okian/rankpoints/internal/domain/rating"
)

// fixture is the YAML document the commands read.
type fixture struct {
	Tournaments []tournamentFixture `yaml:"tournaments"`
}

type tournamentFixture struct {
	model.Tournament `yaml:",inline"`
	Participants     []participantFixture `yaml:"participants"`
	Qualifying       []placementFixture   `yaml:"qualifying"`
	Finals           []placementFixture   `yaml:"finals"`
}

type participantFixture struct {
	ID              string  `yaml:"id"`
	Name            string  `yaml:"name"`
	Rating          float64 `yaml:"rating"`
	RatingDeviation float64 `yaml:"rating_deviation"`
	Ranking         *int    `yaml:"ranking"`
	EventCount      int     `yaml:"event_count"`
}

type placementFixture struct {
	Participant string `yaml:"participant"`
	Position    int    `yaml:"position"`
	OptedOut    bool   `yaml:"opted_out"`
}

func loadFixture(path string) (*fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	if len(f.Tournaments) == 0 {
		return nil, fmt.Errorf("fixture %s lists no tournaments", path)
	}
	// Oldest first so later events see earlier ratings.
	sort.SliceStable(f.Tournaments, func(i, j int) bool {
		return f.Tournaments[i].Date.Before(f.Tournaments[j].Date)
	})
	return &f, nil
}

// participants converts the fixture rows. classify derives IsRated.
func (t *tournamentFixture) participants(classify func(model.Participant) model.Participant) []model.Participant {
	out := make([]model.Participant, len(t.Participants))
	for i, p := range t.Participants {
		out[i] = classify(model.Participant{
			ID:              p.ID,
			Name:            p.Name,
			Rating:          p.Rating,
			RatingDeviation: p.RatingDeviation,
			Ranking:         p.Ranking,
			EventCount:      p.EventCount,
		})
	}
	return out
}

func (t *tournamentFixture) stage(list []placementFixture, finals bool) []model.Standing {
	out := make([]model.Standing, len(list))
	for i, p := range list {
		out[i] = model.Standing{
			ParticipantID: p.Participant,
			TournamentID:  t.ID,
			Position:      p.Position,
			IsFinals:      finals,
			OptedOut:      p.OptedOut,
		}
	}
	return out
}

// placements pairs the merged finishing order with current ratings. Unknown
// participants start from fresh.
func placements(order []model.Standing, ratings map[string]rating.Rating, fresh rating.Rating) []rating.PlacedRating {
	out := make([]rating.PlacedRating, len(order))
	for i, s := range order {
		r, ok := ratings[s.ParticipantID]
		if !ok {
			r = fresh
		}
		out[i] = rating.PlacedRating{ParticipantID: s.ParticipantID, Position: s.Position, Rating: r}
	}
	return out
}

// widenIdle grows the deviation of every returning finisher by the whole
// days since their previous event. First appearances keep their fixture rating.
func widenIdle(system rating.System, ratings map[string]rating.Rating, lastPlayed map[string]time.Time, finish []model.Standing, date time.Time) {
	for _, s := range finish {
		last, ok := lastPlayed[s.ParticipantID]
		if !ok {
			continue
		}
		days := int(date.Sub(last).Hours() / 24)
		ratings[s.ParticipantID] = system.ApplyInactivityDecay(ratings[s.ParticipantID], days)
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
}
