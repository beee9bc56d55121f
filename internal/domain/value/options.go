package value

import "github.com/okian/rankpoints/internal/domain/rating"

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithRatingSystem lets the active rating system own the rating TVA rule
// when it implements rating.TVAContributor. Other systems are ignored and
// the configured linear rule applies.
func WithRatingSystem(s rating.System) Option {
	return func(c *Calculator) {
		if tc, ok := s.(rating.TVAContributor); ok {
			c.contributor = tc
		}
	}
}
