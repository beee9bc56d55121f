// Package service wires the calculators, the batch pool and the ranking
// table into one engine.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rankpoints/internal/adapters/batch"
	"github.com/okian/rankpoints/internal/adapters/repository"
	"github.com/okian/rankpoints/internal/config"
	"github.com/okian/rankpoints/internal/domain/decay"
	"github.com/okian/rankpoints/internal/domain/distribution"
	"github.com/okian/rankpoints/internal/domain/model"
	"github.com/okian/rankpoints/internal/domain/rating"
	"github.com/okian/rankpoints/internal/domain/standings"
	"github.com/okian/rankpoints/internal/domain/value"
	"github.com/okian/rankpoints/pkg/logger"
	"github.com/okian/rankpoints/pkg/metrics"
)

// TournamentLookup resolves tournament ids.
type TournamentLookup interface {
	Tournament(ctx context.Context, id string) (model.Tournament, bool)
}

// Tournaments is a TournamentLookup backed by a map keyed by tournament id.
type Tournaments map[string]model.Tournament

// Tournament implements TournamentLookup.
func (t Tournaments) Tournament(_ context.Context, id string) (model.Tournament, bool) {
	tm, ok := t[id]
	return tm, ok
}

// Award is everything produced by scoring one tournament.
type Award struct {
	Valuation value.Valuation
	Merged    []model.MergedStanding
	Awards    []model.PointAward
	Standings []model.Standing
}

// Engine scores tournaments and keeps the participant ranking table.
type Engine struct {
	cfg         *config.Config
	registry    *rating.Registry
	systemID    string
	system      rating.System
	values      *value.Calculator
	distributor *distribution.Distributor
	decay       *decay.Calculator
	pool        *batch.Pool
	table       repository.Store
	workerCount int
	now         func() time.Time
	logger      logger.Logger

	mu          sync.RWMutex
	tournaments map[string]model.Tournament
	// history holds the latest standing per participant and tournament.
	history map[string]map[string]model.Standing
}

// New constructs an engine. It fails on an invalid configuration or an
// unknown rating system id.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		systemID:    rating.GlickoID,
		now:         time.Now,
		tournaments: make(map[string]model.Tournament),
		history:     make(map[string]map[string]model.Standing),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.cfg == nil {
		e.cfg = config.New()
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if e.logger == nil {
		e.logger = logger.GetOrNop()
	}
	e.logger = e.logger.Named("engine")

	if e.registry == nil {
		e.registry, _ = rating.NewRegistry()
	}
	if e.registry.Len() == 0 {
		if err := e.registry.Register(rating.NewGlicko(e.cfg)); err != nil {
			return nil, err
		}
	}
	system, err := e.registry.Get(e.systemID)
	if err != nil {
		metrics.RecordRatingSystemLookup(e.systemID, "miss")
		metrics.RecordErrorByComponent("engine", "rating_system_not_found")
		return nil, fmt.Errorf("select rating system: %w", err)
	}
	metrics.RecordRatingSystemLookup(e.systemID, "hit")
	e.system = system

	if e.workerCount == 0 {
		e.workerCount = e.cfg.WorkerCount
	}
	e.values = value.NewCalculator(e.cfg, value.WithRatingSystem(system))
	e.distributor = distribution.NewDistributor(e.cfg)
	e.decay = decay.NewCalculator(e.cfg, decay.WithClock(e.now))
	e.pool = batch.NewPool(e.workerCount, batch.WithLogger(e.logger))
	if e.table == nil {
		e.table = repository.NewTreapStore()
	}

	e.logger.Info(context.Background(), "engine ready",
		logger.String("rating_system", system.ID()),
		logger.Int("workers", e.pool.Workers()),
	)
	return e, nil
}

// RatingSystem returns the active rating system.
func (e *Engine) RatingSystem() rating.System {
	return e.system
}

// Classify sets IsRated from the active rating system's provisional rule.
func (e *Engine) Classify(p model.Participant) model.Participant {
	p.IsRated = !e.system.IsProvisional(p.EventCount)
	return p
}

// ValueTournament computes the first-place value of t for participants.
// IsRated is re-derived from EventCount; the caller's flag is ignored.
func (e *Engine) ValueTournament(ctx context.Context, t model.Tournament, participants []model.Participant) (value.Valuation, error) {
	if err := ctx.Err(); err != nil {
		return value.Valuation{}, err
	}

	start := time.Now()
	classified := make([]model.Participant, len(participants))
	for i, p := range participants {
		classified[i] = e.Classify(p)
	}
	v := e.values.Evaluate(t, classified)
	metrics.RecordTournamentValued(v.TGP, v.FirstPlaceValue)
	metrics.RecordCalculationLatency("value_tournament", sinceMs(start))

	e.logger.Debug(ctx, "tournament valued",
		logger.String("tournament", t.ID),
		logger.Int("participants", len(participants)),
		logger.Float64("base_value", v.BaseValue),
		logger.Float64("rating_tva", v.RatingTVA),
		logger.Float64("ranking_tva", v.RankingTVA),
		logger.Float64("tgp", v.TGP),
		logger.Float64("first_place_value", v.FirstPlaceValue),
	)
	return v, nil
}

// AwardTournament merges the stage results, values the tournament, hands out
// points and applies decay as of now. The resulting standings replace any
// earlier award for the same tournament and feed the ranking table.
func (e *Engine) AwardTournament(
	ctx context.Context,
	t model.Tournament,
	participants []model.Participant,
	qualifying, finals []model.Standing,
) (Award, error) {
	start := time.Now()

	merged, err := standings.Merge(qualifying, finals)
	if err != nil {
		metrics.RecordErrorByComponent("standings", "merge_failed")
		return Award{}, fmt.Errorf("merge standings of %q: %w", t.ID, err)
	}

	v, err := e.ValueTournament(ctx, t, participants)
	if err != nil {
		return Award{}, err
	}

	byID := make(map[string]model.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}
	awards, err := e.distributor.Distribute(standings.Results(merged, byID), v.FirstPlaceValue)
	if err != nil {
		metrics.RecordErrorByComponent("distribution", "distribute_failed")
		return Award{}, fmt.Errorf("distribute points of %q: %w", t.ID, err)
	}

	ref := e.now()
	out := make([]model.Standing, len(merged))
	var total float64
	for i, m := range merged {
		a := awards[i]
		s := model.Standing{
			ParticipantID: m.ParticipantID,
			TournamentID:  t.ID,
			Position:      m.MergedPosition,
			IsFinals:      m.IsFinalist,
			OptedOut:      m.OptedOut,
			LinearPoints:  a.LinearPoints,
			DynamicPoints: a.DynamicPoints,
			TotalPoints:   a.TotalPoints,
		}
		out[i] = e.decay.Update(s, t.Date, ref)
		total += a.TotalPoints
	}
	metrics.RecordAwards(len(awards), total)

	if err := e.record(ctx, t, out); err != nil {
		return Award{}, err
	}
	metrics.RecordCalculationLatency("award_tournament", sinceMs(start))

	e.logger.Info(ctx, "tournament awarded",
		logger.String("tournament", t.ID),
		logger.Int("finishers", len(out)),
		logger.Float64("first_place_value", v.FirstPlaceValue),
		logger.Float64("points_awarded", total),
	)
	return Award{Valuation: v, Merged: merged, Awards: awards, Standings: out}, nil
}

// Tournament implements TournamentLookup over every awarded tournament.
func (e *Engine) Tournament(_ context.Context, id string) (model.Tournament, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.tournaments[id]
	return t, ok
}

// UpdateStandingPoints recomputes the decay of s as of ref. A zero ref means
// now. A nil lookup resolves against the engine's awarded tournaments.
func (e *Engine) UpdateStandingPoints(ctx context.Context, s model.Standing, lookup TournamentLookup, ref time.Time) (model.Standing, error) {
	if lookup == nil {
		lookup = e
	}
	t, ok := lookup.Tournament(ctx, s.TournamentID)
	if !ok {
		metrics.RecordErrorByComponent("engine", "tournament_not_found")
		return s, fmt.Errorf("%w: %q for participant %q", ErrTournamentNotFound, s.TournamentID, s.ParticipantID)
	}
	if ref.IsZero() {
		ref = e.now()
	}
	return e.decay.Update(s, t.Date, ref), nil
}

// RecalculateDecay recomputes decay for every standing against one reference
// date on the batch pool. The input is left untouched.
func (e *Engine) RecalculateDecay(ctx context.Context, list []model.Standing, lookup TournamentLookup, ref time.Time) ([]model.Standing, error) {
	if ref.IsZero() {
		ref = e.now()
	}
	runID := uuid.NewString()
	start := time.Now()

	out := make([]model.Standing, len(list))
	err := e.pool.Run(ctx, len(list), func(ctx context.Context, i int) error {
		s, err := e.UpdateStandingPoints(ctx, list[i], lookup, ref)
		if err != nil {
			return err
		}
		out[i] = s
		return nil
	})
	if err != nil {
		e.logger.Error(ctx, "decay recalculation failed", logger.String("run_id", runID), logger.Error(err))
		return nil, fmt.Errorf("recalculate decay: %w", err)
	}

	metrics.RecordDecayRecalculations(len(out))
	metrics.RecordCalculationLatency("recalculate_decay", sinceMs(start))
	e.logger.Info(ctx, "decay recalculated",
		logger.String("run_id", runID),
		logger.Int("standings", len(out)),
		logger.Time("reference", ref),
	)
	return out, nil
}

// RefreshRankings re-applies decay to every stored standing as of ref and
// rebuilds the ranking table from the result.
func (e *Engine) RefreshRankings(ctx context.Context, ref time.Time) error {
	e.mu.RLock()
	stored := make([]model.Standing, 0, len(e.history))
	for _, byTournament := range e.history {
		for _, s := range byTournament {
			stored = append(stored, s)
		}
	}
	e.mu.RUnlock()

	updated, err := e.RecalculateDecay(ctx, stored, e, ref)
	if err != nil {
		return err
	}

	e.mu.Lock()
	for _, s := range updated {
		// Skip standings replaced by a re-award while decay was running.
		if byTournament, ok := e.history[s.ParticipantID]; ok {
			if _, ok := byTournament[s.TournamentID]; ok {
				byTournament[s.TournamentID] = s
			}
		}
	}
	e.mu.Unlock()

	return e.publish(ctx, participantIDs(updated))
}

// UpdateRatings runs one rating period for a tournament. Every participant is
// matched against the others' pre-tournament ratings, so the order of updates
// does not matter. Ratings are returned in input order.
func (e *Engine) UpdateRatings(ctx context.Context, placements []rating.PlacedRating, opponentsRange int) ([]rating.PlacedRating, error) {
	snapshot := append([]rating.PlacedRating(nil), placements...)
	out := make([]rating.PlacedRating, len(snapshot))
	start := time.Now()

	err := e.pool.Run(ctx, len(snapshot), func(_ context.Context, i int) error {
		self := snapshot[i]
		// The simulation treats the first entry at a position as the player,
		// so the player goes first to keep ties apart.
		view := make([]rating.PlacedRating, 0, len(snapshot))
		view = append(view, self)
		view = append(view, snapshot[:i]...)
		view = append(view, snapshot[i+1:]...)

		matches := e.system.SimulateTournamentMatches(self.Position, view, opponentsRange)
		self.Rating = e.system.Update(self.Rating, matches)
		out[i] = self
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update ratings: %w", err)
	}

	metrics.RecordRatingUpdates(len(out))
	metrics.RecordCalculationLatency("update_ratings", sinceMs(start))
	e.logger.Debug(ctx, "ratings updated",
		logger.String("rating_system", e.system.ID()),
		logger.Int("participants", len(out)),
		logger.Int("opponents_range", opponentsRange),
	)
	return out, nil
}

// Rankings returns the best limit participants of the ranking table.
func (e *Engine) Rankings(ctx context.Context, limit int) ([]repository.Entry, error) {
	return e.table.TopN(ctx, limit)
}

// Rank returns a participant's ranking table entry.
func (e *Engine) Rank(ctx context.Context, participantID string) (repository.Entry, error) {
	return e.table.Rank(ctx, participantID)
}

// record stores an award's standings, replacing an earlier award of the same
// tournament, and refreshes the affected rows.
func (e *Engine) record(ctx context.Context, t model.Tournament, list []model.Standing) error {
	ids := participantIDs(list)

	e.mu.Lock()
	e.tournaments[t.ID] = t
	for id, byTournament := range e.history {
		if _, ok := byTournament[t.ID]; ok {
			delete(byTournament, t.ID)
			ids = append(ids, id)
		}
	}
	for _, s := range list {
		byTournament, ok := e.history[s.ParticipantID]
		if !ok {
			byTournament = make(map[string]model.Standing)
			e.history[s.ParticipantID] = byTournament
		}
		byTournament[s.TournamentID] = s
	}
	e.mu.Unlock()

	return e.publish(ctx, ids)
}

// publish writes the ranking points of ids to the table. Participants left
// without any standing are dropped from it.
func (e *Engine) publish(ctx context.Context, ids []string) error {
	for _, id := range ids {
		e.mu.Lock()
		if len(e.history[id]) == 0 {
			delete(e.history, id)
			e.mu.Unlock()
			e.table.Remove(ctx, id)
			continue
		}
		e.mu.Unlock()
		if err := e.table.Set(ctx, id, e.rankingPoints(id)); err != nil {
			return fmt.Errorf("update ranking of %q: %w", id, err)
		}
	}
	return nil
}

// rankingPoints sums a participant's best decayed results, counting at most
// ranking.counted_events of them.
func (e *Engine) rankingPoints(participantID string) float64 {
	e.mu.RLock()
	points := make([]float64, 0, len(e.history[participantID]))
	for _, s := range e.history[participantID] {
		points = append(points, s.DecayedPoints)
	}
	e.mu.RUnlock()

	sort.Sort(sort.Reverse(sort.Float64Slice(points)))
	if n := e.cfg.Ranking.CountedEvents; len(points) > n {
		points = points[:n]
	}
	var sum float64
	for _, p := range points {
		sum += p
	}
	return sum
}

func participantIDs(list []model.Standing) []string {
	seen := make(map[string]struct{}, len(list))
	ids := make([]string, 0, len(list))
	for _, s := range list {
		if _, ok := seen[s.ParticipantID]; ok {
			continue
		}
		seen[s.ParticipantID] = struct{}{}
		ids = append(ids, s.ParticipantID)
	}
	return ids
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
