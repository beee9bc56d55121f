package rating

import (
	"math"

	"github.com/okian/rankpoints/internal/config"
)

// GlickoID is the registry key of the Glicko system.
const GlickoID = "glicko"

// q is the Glicko scaling constant ln(10)/400.
var q = math.Ln10 / 400

// Glicko implements System with the Glicko-1 rating-period update.
//
// Naming follows Glickman's paper: r is the rating, RD the rating deviation,
// g(RD) dampens the influence of uncertain opponents and E is the expected
// score against an opponent.
type Glicko struct {
	cfg config.Rating
	tva config.RatingTVA
}

var (
	_ System         = (*Glicko)(nil)
	_ TVAContributor = (*Glicko)(nil)
)

// NewGlicko builds a Glicko system from the rating and rating-TVA settings of cfg.
func NewGlicko(cfg *config.Config) *Glicko {
	return &Glicko{cfg: cfg.Rating, tva: cfg.TVA.Rating}
}

func (g *Glicko) ID() string   { return GlickoID }
func (g *Glicko) Name() string { return "Glicko" }

// NewRating returns the default rating at the widest deviation.
func (g *Glicko) NewRating() Rating {
	return Rating{Value: g.cfg.DefaultValue, Deviation: g.cfg.MaxDeviation}
}

// Update applies all matches of one rating period at once.
func (g *Glicko) Update(current Rating, matches []MatchResult) Rating {
	if len(matches) == 0 {
		return current
	}

	rd := g.clampDeviation(current.Deviation)

	var sumG2E, sumGSE float64 // Σ g²·E·(1-E), Σ g·(s-E)
	for _, m := range matches {
		gj := gRD(m.OpponentDeviation)
		e := expected(current.Value, m.OpponentRating, gj)
		sumG2E += gj * gj * e * (1 - e)
		sumGSE += gj * (m.Score - e)
	}

	// 1/d² = q²·Σ g²·E·(1-E)
	invD2 := q * q * sumG2E
	precision := 1/(rd*rd) + invD2

	// r' = r + q/(1/RD² + 1/d²)·Σ g·(s-E), as in Glickman's paper.
	return Rating{
		Value:     current.Value + (q/precision)*sumGSE,
		Deviation: g.clampDeviation(math.Sqrt(1 / precision)),
	}
}

// IsProvisional mirrors the participant rated threshold.
func (g *Glicko) IsProvisional(eventCount int) bool {
	return eventCount < g.cfg.ProvisionalThreshold
}

// ApplyInactivityDecay grows RD linearly with idle days up to the maximum.
// The rating value is untouched and RD never shrinks, even when it already
// exceeds the maximum.
func (g *Glicko) ApplyInactivityDecay(current Rating, daysInactive int) Rating {
	if daysInactive <= 0 || current.Deviation >= g.cfg.MaxDeviation {
		return current
	}
	grown := current.Deviation + float64(daysInactive)*g.cfg.DeviationPerDay
	return Rating{Value: current.Value, Deviation: math.Min(grown, g.cfg.MaxDeviation)}
}

// SimulateTournamentMatches turns finishing positions into games: everyone
// who finished ahead beat the player, equal positions drew, and everyone
// behind lost. Only opponents within opponentsRange positions count when the
// range is positive. The player's own entry is the first one at position.
func (g *Glicko) SimulateTournamentMatches(position int, results []PlacedRating, opponentsRange int) []MatchResult {
	self := -1
	for i, r := range results {
		if r.Position == position {
			self = i
			break
		}
	}
	if self < 0 {
		return nil
	}

	matches := make([]MatchResult, 0, len(results)-1)
	for i, opp := range results {
		if i == self {
			continue
		}
		if opponentsRange > 0 && absInt(opp.Position-position) > opponentsRange {
			continue
		}

		var score float64
		switch {
		case opp.Position < position:
			score = 0
		case opp.Position == position:
			score = 0.5
		default:
			score = 1
		}
		matches = append(matches, MatchResult{
			OpponentRating:    opp.Rating.Value,
			OpponentDeviation: opp.Rating.Deviation,
			Score:             score,
		})
	}
	return matches
}

// ContributesToTVA reports whether r is strictly above the minimum effective rating.
func (g *Glicko) ContributesToTVA(r Rating) bool {
	return r.Value > g.tva.MinEffectiveRating()
}

// TVAContribution is max(0, rating*coefficient - offset).
func (g *Glicko) TVAContribution(r Rating) float64 {
	if !g.ContributesToTVA(r) {
		return 0
	}
	return math.Max(0, r.Value*g.tva.Coefficient-g.tva.Offset)
}

func (g *Glicko) clampDeviation(rd float64) float64 {
	return math.Max(g.cfg.MinDeviation, math.Min(g.cfg.MaxDeviation, rd))
}

func gRD(rd float64) float64 {
	return 1 / math.Sqrt(1+3*q*q*rd*rd/(math.Pi*math.Pi))
}

func expected(r, rj, gj float64) float64 {
	return 1 / (1 + math.Pow(10, -gj*(r-rj)/400))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
