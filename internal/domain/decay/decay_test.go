package decay_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/rankpoints/internal/config"
	"github.com/okian/rankpoints/internal/domain/decay"
	"github.com/okian/rankpoints/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

var reference = time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)

func daysBefore(days int) time.Time {
	return reference.AddDate(0, 0, -days)
}

func TestMultiplier(t *testing.T) {
	convey.Convey("Given the default decay breakpoints", t, func() {
		calc := decay.NewCalculator(config.New())

		convey.Convey("Then ages just under one to four years map to the schedule", func() {
			convey.So(calc.Multiplier(daysBefore(364), reference), convey.ShouldEqual, 1.0)
			convey.So(calc.Multiplier(daysBefore(729), reference), convey.ShouldEqual, 0.75)
			convey.So(calc.Multiplier(daysBefore(1094), reference), convey.ShouldEqual, 0.5)
			convey.So(calc.Multiplier(daysBefore(1459), reference), convey.ShouldEqual, 0.0)
		})

		convey.Convey("Then each breakpoint starts the next interval", func() {
			convey.So(calc.Multiplier(daysBefore(0), reference), convey.ShouldEqual, 1.0)
			convey.So(calc.Multiplier(daysBefore(365), reference), convey.ShouldEqual, 0.75)
			convey.So(calc.Multiplier(daysBefore(730), reference), convey.ShouldEqual, 0.5)
			convey.So(calc.Multiplier(daysBefore(1095), reference), convey.ShouldEqual, 0.0)
		})

		convey.Convey("Then partial days do not count", func() {
			event := daysBefore(365).Add(time.Hour)
			convey.So(calc.Multiplier(event, reference), convey.ShouldEqual, 1.0)
		})

		convey.Convey("Then events after the reference date are not discounted", func() {
			convey.So(calc.Multiplier(reference.AddDate(0, 1, 0), reference), convey.ShouldEqual, 1.0)
		})

		convey.Convey("Then the multiplier is non-increasing with age", func() {
			prev := 1.0
			for days := 0; days <= 1500; days += 7 {
				m := calc.Multiplier(daysBefore(days), reference)
				convey.So(m, convey.ShouldBeLessThanOrEqualTo, prev)
				prev = m
			}
		})
	})

	convey.Convey("Given a calculator with a fixed clock", t, func() {
		calc := decay.NewCalculator(config.New(), decay.WithClock(func() time.Time { return reference }))

		convey.Convey("When no reference date is supplied", func() {
			convey.So(calc.Multiplier(daysBefore(400), time.Time{}), convey.ShouldEqual, 0.75)
		})
	})

	convey.Convey("Given a configured floor", t, func() {
		cfg, err := config.New().Merge(map[string]any{"decay.floor": 0.1})
		convey.So(err, convey.ShouldBeNil)
		calc := decay.NewCalculator(cfg)

		convey.Convey("Then events past the last breakpoint keep the floor", func() {
			convey.So(calc.Multiplier(daysBefore(2000), reference), convey.ShouldEqual, 0.1)
		})
	})
}

func TestApply(t *testing.T) {
	convey.Convey("Given 80 points earned 18 months ago", t, func() {
		calc := decay.NewCalculator(config.New())
		convey.So(calc.Apply(80, daysBefore(548), reference), convey.ShouldEqual, 60)
	})
}

func TestRecalculate(t *testing.T) {
	convey.Convey("Given standings from two tournaments", t, func() {
		calc := decay.NewCalculator(config.New())
		dates := map[string]time.Time{
			"recent": daysBefore(30),
			"old":    daysBefore(800),
		}
		standings := []model.Standing{
			{ParticipantID: "a", TournamentID: "recent", Position: 1, TotalPoints: 40},
			{ParticipantID: "b", TournamentID: "old", Position: 2, TotalPoints: 30},
		}

		convey.Convey("When recalculating against a reference date", func() {
			got, err := calc.Recalculate(standings, dates, reference)

			convey.Convey("Then each standing carries its multiplier and decayed points", func() {
				convey.So(err, convey.ShouldBeNil)
				want := []model.Standing{
					{ParticipantID: "a", TournamentID: "recent", Position: 1, TotalPoints: 40, DecayMultiplier: 1, DecayedPoints: 40},
					{ParticipantID: "b", TournamentID: "old", Position: 2, TotalPoints: 30, DecayMultiplier: 0.5, DecayedPoints: 15},
				}
				convey.So(cmp.Diff(want, got), convey.ShouldBeEmpty)
			})

			convey.Convey("Then a second run gives the same result", func() {
				again, err := calc.Recalculate(got, dates, reference)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cmp.Diff(got, again), convey.ShouldBeEmpty)
			})

			convey.Convey("Then the input is untouched", func() {
				convey.So(standings[1].DecayMultiplier, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When a tournament date is missing", func() {
			delete(dates, "old")
			_, err := calc.Recalculate(standings, dates, reference)

			convey.Convey("Then ErrTournamentNotFound is returned", func() {
				convey.So(errors.Is(err, decay.ErrTournamentNotFound), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, `"old"`)
			})
		})
	})
}
