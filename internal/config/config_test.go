package config_test

import (
	"errors"
	"testing"

	"github.com/okian/rankpoints/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have the documented defaults", func() {
			convey.So(cfg.BaseValue.PointsPerPlayer, convey.ShouldEqual, 0.5)
			convey.So(cfg.BaseValue.MaxValue, convey.ShouldEqual, 32)
			convey.So(cfg.TVA.MaxPlayersConsidered, convey.ShouldEqual, 64)
			convey.So(cfg.TVA.Rating.MaxValue, convey.ShouldEqual, 25)
			convey.So(cfg.TVA.Ranking.MaxValue, convey.ShouldEqual, 50)
			convey.So(cfg.TGP.PercentPerGame, convey.ShouldEqual, 0.04)
			convey.So(cfg.TGP.MaxValue, convey.ShouldEqual, 2.0)
			convey.So(cfg.Booster.None, convey.ShouldEqual, 1.0)
			convey.So(cfg.Booster.Major, convey.ShouldEqual, 2.0)
			convey.So(cfg.Rating.ProvisionalThreshold, convey.ShouldEqual, 5)
			convey.So(cfg.Rating.OpponentsRange, convey.ShouldEqual, 0)
			convey.So(cfg.Decay.Breakpoints, convey.ShouldHaveLength, 3)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the minimum effective rating is derived from the coefficients", func() {
			convey.So(cfg.TVA.Rating.MinEffectiveRating(), convey.ShouldAlmostEqual, 1285.714, 0.001)
			convey.So(config.RatingTVA{}.MinEffectiveRating(), convey.ShouldEqual, 0)
		})

		convey.Convey("Then each call returns an independent instance", func() {
			other := config.New()
			other.Decay.Breakpoints[0].Multiplier = 0.1
			other.BaseValue.MaxValue = 1
			convey.So(cfg.Decay.Breakpoints[0].Multiplier, convey.ShouldEqual, 1.0)
			convey.So(cfg.BaseValue.MaxValue, convey.ShouldEqual, 32)
		})
	})
}

func TestConfig_Merge(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		base := config.New()

		convey.Convey("When merging a nested partial override", func() {
			merged, err := base.Merge(map[string]any{
				"tva": map[string]any{
					"rating": map[string]any{"max_value": 30},
				},
			})

			convey.Convey("Then only the named leaf changes", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(merged.TVA.Rating.MaxValue, convey.ShouldEqual, 30)
				convey.So(merged.TVA.Rating.Coefficient, convey.ShouldEqual, base.TVA.Rating.Coefficient)
				convey.So(merged.TVA.Ranking.MaxValue, convey.ShouldEqual, 50)
				convey.So(merged.BaseValue.MaxValue, convey.ShouldEqual, 32)
			})

			convey.Convey("And the receiver is untouched", func() {
				convey.So(base.TVA.Rating.MaxValue, convey.ShouldEqual, 25)
			})
		})

		convey.Convey("When merging dotted keys", func() {
			merged, err := base.Merge(map[string]any{
				"base_value.max_value": 40,
				"tgp.max_value":        1.5,
			})

			convey.Convey("Then they are treated as nested paths", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(merged.BaseValue.MaxValue, convey.ShouldEqual, 40)
				convey.So(merged.TGP.MaxValue, convey.ShouldEqual, 1.5)
				convey.So(merged.BaseValue.PointsPerPlayer, convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When replacing decay breakpoints with a shorter list", func() {
			merged, err := base.Merge(map[string]any{
				"decay": map[string]any{
					"breakpoints": []any{
						map[string]any{"years": 2, "multiplier": 1.0},
					},
				},
			})

			convey.Convey("Then the list is replaced wholesale", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(merged.Decay.Breakpoints, convey.ShouldResemble, []config.Breakpoint{{Years: 2, Multiplier: 1.0}})
				convey.So(base.Decay.Breakpoints, convey.ShouldHaveLength, 3)
			})
		})

		convey.Convey("When merging successive overrides", func() {
			first, err := base.Merge(map[string]any{"base_value": map[string]any{"points_per_player": 1}})
			convey.So(err, convey.ShouldBeNil)
			second, err := first.Merge(map[string]any{"base_value": map[string]any{"max_value": 10}})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then earlier overrides survive", func() {
				convey.So(second.BaseValue.PointsPerPlayer, convey.ShouldEqual, 1)
				convey.So(second.BaseValue.MaxValue, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When an override produces an invalid config", func() {
			merged, err := base.Merge(map[string]any{"rating": map[string]any{"min_rd": 500}})

			convey.Convey("Then validation rejects it", func() {
				convey.So(merged, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When merging nil overrides", func() {
			merged, err := base.Merge(nil)

			convey.Convey("Then the result equals the receiver", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(merged, convey.ShouldResemble, base)
			})
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configurations", t, func() {
		cases := map[string]func(*config.Config){
			"negative base value":     func(c *config.Config) { c.BaseValue.MaxValue = -1 },
			"negative tva cap":        func(c *config.Config) { c.TVA.Rating.MaxValue = -1 },
			"negative players":        func(c *config.Config) { c.TVA.MaxPlayersConsidered = -1 },
			"negative tgp":            func(c *config.Config) { c.TGP.PercentPerGame = -0.1 },
			"linear fraction above 1": func(c *config.Config) { c.Distribution.LinearFraction = 1.5 },
			"zero exponent":           func(c *config.Config) { c.Distribution.DynamicExponent = 0 },
			"no breakpoints":          func(c *config.Config) { c.Decay.Breakpoints = nil },
			"unsorted breakpoints": func(c *config.Config) {
				c.Decay.Breakpoints = []config.Breakpoint{{Years: 2, Multiplier: 1}, {Years: 1, Multiplier: 0.5}}
			},
			"duplicate breakpoints": func(c *config.Config) {
				c.Decay.Breakpoints = []config.Breakpoint{{Years: 1, Multiplier: 1}, {Years: 1, Multiplier: 0.5}}
			},
			"zero days per year":  func(c *config.Config) { c.Decay.DaysPerYear = 0 },
			"min rd above max rd": func(c *config.Config) { c.Rating.MinDeviation = 400 },
			"negative rd per day": func(c *config.Config) { c.Rating.DeviationPerDay = -1 },
			"zero counted events": func(c *config.Config) { c.Ranking.CountedEvents = 0 },
		}

		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			convey.Convey("Then "+name+" is rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("Then schedule problems are reported as breakpoint errors", func() {
			cfg := config.New()
			cfg.Decay.Breakpoints = []config.Breakpoint{{Years: 3, Multiplier: 0.5}, {Years: 1, Multiplier: 1}}
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidBreakpoints), convey.ShouldBeTrue)

			cfg = config.New()
			cfg.Rating.MinDeviation = 400
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidBreakpoints), convey.ShouldBeFalse)
		})
	})
}
