// Package decay discounts earned points by the age of the event.
package decay

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/rankpoints/internal/config"
	"github.com/okian/rankpoints/internal/domain/model"
)

const hoursPerDay = 24

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithClock sets the time source used when no reference date is given.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// Calculator maps event age to a multiplier through ordered breakpoints.
type Calculator struct {
	breakpoints []config.Breakpoint
	floor       float64
	daysPerYear float64
	now         func() time.Time
}

// NewCalculator creates a decay calculator from the decay settings of cfg.
func NewCalculator(cfg *config.Config, opts ...Option) *Calculator {
	c := &Calculator{
		breakpoints: append([]config.Breakpoint(nil), cfg.Decay.Breakpoints...),
		floor:       cfg.Decay.Floor,
		daysPerYear: cfg.Decay.DaysPerYear,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Multiplier returns the decay multiplier for an event held on eventDate as
// seen from referenceDate. A zero referenceDate means now. Age is counted in
// whole days, so the multiplier only changes at day boundaries.
func (c *Calculator) Multiplier(eventDate, referenceDate time.Time) float64 {
	if referenceDate.IsZero() {
		referenceDate = c.now()
	}
	age := referenceDate.Sub(eventDate)
	if age < 0 {
		return 1
	}

	days := math.Floor(age.Hours() / hoursPerDay)
	years := days / c.daysPerYear
	for _, bp := range c.breakpoints {
		if years < bp.Years {
			return bp.Multiplier
		}
	}
	return c.floor
}

// Apply returns totalPoints discounted by the event's age.
func (c *Calculator) Apply(totalPoints float64, eventDate, referenceDate time.Time) float64 {
	return totalPoints * c.Multiplier(eventDate, referenceDate)
}

// Update recomputes the decay fields of s for an event held on eventDate.
func (c *Calculator) Update(s model.Standing, eventDate, referenceDate time.Time) model.Standing {
	s.DecayMultiplier = c.Multiplier(eventDate, referenceDate)
	s.DecayedPoints = s.TotalPoints * s.DecayMultiplier
	return s
}

// Recalculate recomputes decay for every standing against one reference
// date. eventDates maps tournament ids to event dates. The input is not
// modified, so running it twice with the same reference gives the same result.
func (c *Calculator) Recalculate(standings []model.Standing, eventDates map[string]time.Time, referenceDate time.Time) ([]model.Standing, error) {
	if referenceDate.IsZero() {
		referenceDate = c.now()
	}

	out := make([]model.Standing, len(standings))
	for i, s := range standings {
		date, ok := eventDates[s.TournamentID]
		if !ok {
			return nil, fmt.Errorf("%w: %q for participant %q", ErrTournamentNotFound, s.TournamentID, s.ParticipantID)
		}
		out[i] = c.Update(s, date, referenceDate)
	}
	return out, nil
}
