package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	service "github.com/okian/rankpoints/internal/app"
	"github.com/okian/rankpoints/internal/domain/model"
	"github.com/okian/rankpoints/internal/domain/rating"
	"github.com/okian/rankpoints/internal/domain/standings"
)

var errFixtureRequired = errors.New("fixture path required")

func fixtureArg(c *cli.Context) (*fixture, error) {
	if c.NArg() < 1 {
		return nil, errFixtureRequired
	}
	return loadFixture(c.Args().First())
}

func topFlag() *cli.IntFlag {
	return &cli.IntFlag{Name: "top", Value: 25, Usage: "number of ranking rows to print"}
}

func valueCommand() *cli.Command {
	return &cli.Command{
		Name:      "value",
		Usage:     "print the value breakdown of every tournament",
		ArgsUsage: "FIXTURE",
		Action: func(c *cli.Context) error {
			f, err := fixtureArg(c)
			if err != nil {
				return err
			}
			engine, _, err := newEngine(c)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TOURNAMENT\tBASE\tRATING TVA\tRANKING TVA\tTGP\tBOOSTER\tFIRST PLACE")
			for i := range f.Tournaments {
				t := &f.Tournaments[i]
				v, err := engine.ValueTournament(c.Context, t.Tournament, t.participants(engine.Classify))
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
					t.ID, v.BaseValue, v.RatingTVA, v.RankingTVA, v.TGP, v.Booster, v.FirstPlaceValue)
			}
			return w.Flush()
		},
	}
}

func awardCommand() *cli.Command {
	return &cli.Command{
		Name:      "award",
		Usage:     "award every tournament and print standings and the ranking table",
		ArgsUsage: "FIXTURE",
		Flags:     []cli.Flag{topFlag()},
		Action: func(c *cli.Context) error {
			f, err := fixtureArg(c)
			if err != nil {
				return err
			}
			engine, _, err := newEngine(c)
			if err != nil {
				return err
			}
			if err := awardAll(c, engine, f, true); err != nil {
				return err
			}
			return printRankings(c, engine)
		},
	}
}

func decayCommand() *cli.Command {
	return &cli.Command{
		Name:      "decay",
		Usage:     "award every tournament, then re-apply decay as of a reference date",
		ArgsUsage: "FIXTURE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "as-of", Usage: "reference date (YYYY-MM-DD); defaults to today"},
			topFlag(),
		},
		Action: func(c *cli.Context) error {
			f, err := fixtureArg(c)
			if err != nil {
				return err
			}
			ref, err := parseDate(c.String("as-of"))
			if err != nil {
				return err
			}
			engine, _, err := newEngine(c)
			if err != nil {
				return err
			}
			if err := awardAll(c, engine, f, false); err != nil {
				return err
			}
			if err := engine.RefreshRankings(c.Context, ref); err != nil {
				return err
			}
			return printRankings(c, engine)
		},
	}
}

func rateCommand() *cli.Command {
	return &cli.Command{
		Name:      "rate",
		Usage:     "run one rating period per tournament and print final ratings",
		ArgsUsage: "FIXTURE",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "range", Value: -1, Usage: "opponents range; negative uses rating.opponents_range"},
		},
		Action: func(c *cli.Context) error {
			f, err := fixtureArg(c)
			if err != nil {
				return err
			}
			engine, cfg, err := newEngine(c)
			if err != nil {
				return err
			}
			opponents := c.Int("range")
			if opponents < 0 {
				opponents = cfg.Rating.OpponentsRange
			}

			system := engine.RatingSystem()
			ratings := make(map[string]rating.Rating)
			lastPlayed := make(map[string]time.Time)
			events := make(map[string]int)
			var order []string
			for i := range f.Tournaments {
				t := &f.Tournaments[i]
				for _, p := range t.Participants {
					if _, ok := ratings[p.ID]; ok {
						continue
					}
					r := system.NewRating()
					if p.Rating > 0 {
						r = rating.Rating{Value: p.Rating, Deviation: p.RatingDeviation}
						if r.Deviation <= 0 {
							r.Deviation = cfg.Rating.MaxDeviation
						}
					}
					ratings[p.ID] = r
					events[p.ID] = p.EventCount
					order = append(order, p.ID)
				}

				merged, err := standings.Merge(t.stage(t.Qualifying, false), t.stage(t.Finals, true))
				if err != nil {
					return fmt.Errorf("tournament %s: %w", t.ID, err)
				}
				finish := make([]model.Standing, len(merged))
				for j, m := range merged {
					finish[j] = m.Standing
					finish[j].Position = m.MergedPosition
				}

				widenIdle(system, ratings, lastPlayed, finish, t.Date)
				updated, err := engine.UpdateRatings(c.Context, placements(finish, ratings, system.NewRating()), opponents)
				if err != nil {
					return fmt.Errorf("tournament %s: %w", t.ID, err)
				}
				for _, u := range updated {
					if _, ok := ratings[u.ParticipantID]; !ok {
						order = append(order, u.ParticipantID)
					}
					ratings[u.ParticipantID] = u.Rating
					lastPlayed[u.ParticipantID] = t.Date
					events[u.ParticipantID]++
				}
			}

			w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PARTICIPANT\tRATING\tRD\tEVENTS\tPROVISIONAL")
			for _, id := range order {
				r := ratings[id]
				fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%d\t%t\n", id, r.Value, r.Deviation, events[id], system.IsProvisional(events[id]))
			}
			return w.Flush()
		},
	}
}

// awardAll awards every fixture tournament, printing standings when verbose.
func awardAll(c *cli.Context, engine *service.Engine, f *fixture, verbose bool) error {
	for i := range f.Tournaments {
		t := &f.Tournaments[i]
		award, err := engine.AwardTournament(c.Context, t.Tournament,
			t.participants(engine.Classify),
			t.stage(t.Qualifying, false),
			t.stage(t.Finals, true),
		)
		if err != nil {
			return fmt.Errorf("tournament %s: %w", t.ID, err)
		}
		if verbose {
			if err := printAward(c.App.Writer, t, award); err != nil {
				return err
			}
		}
	}
	return nil
}

func printAward(out io.Writer, t *tournamentFixture, award service.Award) error {
	fmt.Fprintf(out, "%s (%s) first place %.2f\n", t.Name, t.Date.Format("2006-01-02"), award.Valuation.FirstPlaceValue)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tPARTICIPANT\tFINALIST\tLINEAR\tDYNAMIC\tTOTAL\tDECAYED")
	for _, s := range award.Standings {
		fmt.Fprintf(w, "%d\t%s\t%t\t%.2f\t%.2f\t%.2f\t%.2f\n",
			s.Position, s.ParticipantID, s.IsFinals, s.LinearPoints, s.DynamicPoints, s.TotalPoints, s.DecayedPoints)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out)
	return err
}

func printRankings(c *cli.Context, engine *service.Engine) error {
	top, err := engine.Rankings(c.Context, c.Int("top"))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tPARTICIPANT\tPOINTS")
	for _, e := range top {
		fmt.Fprintf(w, "%d\t%s\t%.2f\n", e.Rank, e.ParticipantID, e.Points)
	}
	return w.Flush()
}
