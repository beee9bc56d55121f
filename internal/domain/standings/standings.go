// Package standings combines qualifying and finals results into the single
// order points are assigned from.
package standings

import (
	"fmt"
	"sort"

	"github.com/okian/rankpoints/internal/domain/model"
)

// Merge places finalists at their finals positions and everyone else after
// them in qualifying order. The result is computed on every call and covers
// each participant once with positions 1..N.
func Merge(qualifying, finals []model.Standing) ([]model.MergedStanding, error) {
	if err := checkStage("qualifying", qualifying); err != nil {
		return nil, err
	}
	if err := checkStage("finals", finals); err != nil {
		return nil, err
	}

	finalsOrder := byPosition(finals)
	for i, s := range finalsOrder {
		if s.Position != i+1 {
			return nil, fmt.Errorf("%w: got %d at rank %d", ErrNonContiguousFinals, s.Position, i+1)
		}
	}

	merged := make([]model.MergedStanding, 0, len(qualifying)+len(finals))
	finalists := make(map[string]struct{}, len(finals))
	for _, s := range finalsOrder {
		finalists[s.ParticipantID] = struct{}{}
		merged = append(merged, model.MergedStanding{
			Standing:       s,
			MergedPosition: s.Position,
			IsFinalist:     true,
		})
	}

	next := len(finalsOrder) + 1
	for _, s := range byPosition(qualifying) {
		if _, ok := finalists[s.ParticipantID]; ok {
			continue
		}
		merged = append(merged, model.MergedStanding{
			Standing:       s,
			MergedPosition: next,
		})
		next++
	}
	return merged, nil
}

// Results turns a merged order into finish results for point distribution.
// participants resolves ids to participant records; ids it does not know get
// a bare record carrying only the id.
func Results(merged []model.MergedStanding, participants map[string]model.Participant) []model.FinishResult {
	out := make([]model.FinishResult, len(merged))
	for i, m := range merged {
		p, ok := participants[m.ParticipantID]
		if !ok {
			p = model.Participant{ID: m.ParticipantID}
		}
		out[i] = model.FinishResult{
			Participant: p,
			Position:    m.MergedPosition,
			OptedOut:    m.OptedOut,
		}
	}
	return out
}

func checkStage(stage string, list []model.Standing) error {
	positions := make(map[int]string, len(list))
	ids := make(map[string]struct{}, len(list))
	for _, s := range list {
		if s.Position <= 0 {
			return fmt.Errorf("%w: %s position %d for %q", ErrInvalidPosition, stage, s.Position, s.ParticipantID)
		}
		if other, ok := positions[s.Position]; ok {
			return fmt.Errorf("%w: %s position %d held by %q and %q", ErrDuplicatePosition, stage, s.Position, other, s.ParticipantID)
		}
		if _, ok := ids[s.ParticipantID]; ok {
			return fmt.Errorf("%w: %s lists %q twice", ErrDuplicateParticipant, stage, s.ParticipantID)
		}
		positions[s.Position] = s.ParticipantID
		ids[s.ParticipantID] = struct{}{}
	}
	return nil
}

func byPosition(list []model.Standing) []model.Standing {
	out := append([]model.Standing(nil), list...)
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
