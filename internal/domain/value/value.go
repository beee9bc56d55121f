// Package value computes how many points a tournament is worth to its winner.
package value

import (
	"math"
	"sort"

	"github.com/okian/rankpoints/internal/config"
	"github.com/okian/rankpoints/internal/domain/model"
	"github.com/okian/rankpoints/internal/domain/rating"
)

// Valuation is the breakdown of a tournament's first-place value.
type Valuation struct {
	BaseValue       float64
	RatingTVA       float64
	RankingTVA      float64
	TGP             float64
	Booster         float64
	FirstPlaceValue float64
}

// Calculator evaluates tournaments. It holds no mutable state and is safe for
// concurrent use.
type Calculator struct {
	cfg         *config.Config
	contributor rating.TVAContributor
}

// NewCalculator creates a calculator bound to cfg.
func NewCalculator(cfg *config.Config, opts ...Option) *Calculator {
	c := &Calculator{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Evaluate combines every component into the first-place value:
// (base + rating TVA + ranking TVA) * TGP * booster.
func (c *Calculator) Evaluate(t model.Tournament, participants []model.Participant) Valuation {
	v := Valuation{
		BaseValue:  c.BaseValue(participants),
		RatingTVA:  c.RatingTVA(participants),
		RankingTVA: c.RankingTVA(participants),
		TGP:        c.TGP(t.Format),
		Booster:    c.BoosterMultiplier(t.Booster),
	}
	v.FirstPlaceValue = (v.BaseValue + v.RatingTVA + v.RankingTVA) * v.TGP * v.Booster
	return v
}

// BaseValue is the rated head count times the per-player value, capped.
func (c *Calculator) BaseValue(participants []model.Participant) float64 {
	rated := 0
	for _, p := range participants {
		if p.IsRated {
			rated++
		}
	}
	bv := c.cfg.BaseValue
	return math.Min(float64(rated)*bv.PointsPerPlayer, bv.MaxValue)
}

// RatingTVA sums the contributions of the highest rated participants.
// Only rated participants above the minimum effective rating count.
func (c *Calculator) RatingTVA(participants []model.Participant) float64 {
	ratings := make([]rating.Rating, 0, len(participants))
	for _, p := range participants {
		if p.IsRated {
			ratings = append(ratings, rating.Rating{Value: p.Rating, Deviation: p.RatingDeviation})
		}
	}
	sort.SliceStable(ratings, func(i, j int) bool { return ratings[i].Value > ratings[j].Value })
	ratings = considered(ratings, c.cfg.TVA.MaxPlayersConsidered)

	var sum float64
	for _, r := range ratings {
		sum += c.ratingContribution(r)
	}
	return math.Min(sum, c.cfg.TVA.Rating.MaxValue)
}

// ratingContribution scores a single rating, delegating to the rating
// system when it provides its own rule.
func (c *Calculator) ratingContribution(r rating.Rating) float64 {
	if c.contributor != nil {
		if !c.contributor.ContributesToTVA(r) {
			return 0
		}
		return math.Max(0, c.contributor.TVAContribution(r))
	}

	cfg := c.cfg.TVA.Rating
	if r.Value <= cfg.MinEffectiveRating() {
		return 0
	}
	return math.Max(0, r.Value*cfg.Coefficient-cfg.Offset)
}

// RankingTVA sums the contributions of the best world-ranked participants.
// Unranked participants are skipped.
func (c *Calculator) RankingTVA(participants []model.Participant) float64 {
	ranks := make([]int, 0, len(participants))
	for _, p := range participants {
		if p.HasRanking() {
			ranks = append(ranks, *p.Ranking)
		}
	}
	sort.Ints(ranks)
	ranks = considered(ranks, c.cfg.TVA.MaxPlayersConsidered)

	cfg := c.cfg.TVA.Ranking
	var sum float64
	for _, rank := range ranks {
		sum += math.Max(0, math.Log(float64(rank))*cfg.Coefficient+cfg.Offset)
	}
	return math.Min(sum, cfg.MaxValue)
}

// TGP is the sum of the qualifying and finals game percentages, clamped to
// [0, max]. Four-player groups double a stage's contribution.
func (c *Calculator) TGP(format model.FormatConfig) float64 {
	var tgp float64
	if format.Qualifying.Type != model.QualifyingNone {
		tgp += c.stageTGP(format.Qualifying.MeaningfulGames, format.Qualifying.FourPlayerGroups)
	}
	tgp += c.stageTGP(format.Finals.MeaningfulGames, format.Finals.FourPlayerGroups)
	return math.Max(0, math.Min(tgp, c.cfg.TGP.MaxValue))
}

func (c *Calculator) stageTGP(games float64, fourPlayer bool) float64 {
	v := math.Max(games, 0) * c.cfg.TGP.PercentPerGame
	if fourPlayer {
		v *= c.cfg.TGP.FourPlayerMultiplier
	}
	return v
}

// BoosterMultiplier looks up the configured multiplier for b. Unknown tiers
// get the neutral multiplier.
func (c *Calculator) BoosterMultiplier(b model.EventBooster) float64 {
	bc := c.cfg.Booster
	switch b {
	case model.BoosterCertified:
		return bc.Certified
	case model.BoosterCertifiedPlus:
		return bc.CertifiedPlus
	case model.BoosterChampionshipSeries:
		return bc.ChampionshipSeries
	case model.BoosterMajor:
		return bc.Major
	default:
		return bc.None
	}
}

// considered keeps the first n entries of an already ordered slice.
func considered[T any](s []T, n int) []T {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}
