// Package distribution splits a tournament's first-place value across its
// finishers.
//
// Every finisher earns the same linear share. The remainder is spread along a
// power curve over position, so first place takes the whole remainder and the
// last position none of it:
//
//	dynamic(p) = (1 - linear) * fpv * ((N - p) / (N - 1)) ^ exponent
package distribution

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/rankpoints/internal/config"
	"github.com/okian/rankpoints/internal/domain/model"
)

// Distributor assigns points to finish results.
type Distributor struct {
	linearFraction float64
	exponent       float64
}

// NewDistributor creates a distributor from the distribution settings of cfg.
func NewDistributor(cfg *config.Config) *Distributor {
	return &Distributor{
		linearFraction: cfg.Distribution.LinearFraction,
		exponent:       cfg.Distribution.DynamicExponent,
	}
}

// Distribute returns one award per result, ordered by position. Positions
// must be positive and unique. Opted-out finishers keep their linear share
// and earn no dynamic points.
func (d *Distributor) Distribute(results []model.FinishResult, firstPlaceValue float64) ([]model.PointAward, error) {
	if len(results) == 0 {
		return nil, nil
	}

	sorted := append([]model.FinishResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	for i, r := range sorted {
		if r.Position <= 0 {
			return nil, fmt.Errorf("%w: participant %q at %d", ErrInvalidPosition, r.Participant.ID, r.Position)
		}
		if i > 0 && sorted[i-1].Position == r.Position {
			return nil, fmt.Errorf("%w: %d", ErrDuplicatePosition, r.Position)
		}
	}

	// Gaps in the positions still count toward the field size.
	field := max(len(sorted), sorted[len(sorted)-1].Position)
	fpv := math.Max(firstPlaceValue, 0)
	linear := d.linearFraction * fpv
	remainder := fpv - linear

	awards := make([]model.PointAward, len(sorted))
	for i, r := range sorted {
		var dynamic float64
		if !r.OptedOut {
			dynamic = remainder * d.curve(r.Position, field)
		}
		awards[i] = model.PointAward{
			ParticipantID: r.Participant.ID,
			Position:      r.Position,
			LinearPoints:  linear,
			DynamicPoints: dynamic,
			TotalPoints:   linear + dynamic,
		}
	}
	return awards, nil
}

// curve is 1 at first place and falls to 0 at position n.
func (d *Distributor) curve(position, n int) float64 {
	if n <= 1 {
		return 1
	}
	share := float64(n-position) / float64(n-1)
	return math.Pow(math.Max(share, 0), d.exponent)
}
