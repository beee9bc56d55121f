package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/rankpoints/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: points DESC, then participantID ASC (deterministic). "less"
// means ranks earlier, so an in-order walk yields the table from best to
// worst. Node priorities are random, keeping the expected depth logarithmic.

// pointsScale converts points to fixed point so that equal totals built from
// different float sums still tie.
const pointsScale = 1e9

type pointsFP int64

func toFixedPoint(x float64) pointsFP {
	switch {
	case math.IsNaN(x):
		return 0
	case x*pointsScale >= math.MaxInt64:
		return pointsFP(math.MaxInt64)
	case x*pointsScale <= math.MinInt64:
		return pointsFP(math.MinInt64)
	}
	return pointsFP(math.Round(x * pointsScale))
}

func toFloat(x pointsFP) float64 {
	return float64(x) / pointsScale
}

type node struct {
	id     string
	points pointsFP
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aPoints, aID) should appear before (bPoints, bID).
func less(aPoints pointsFP, aID string, bPoints pointsFP, bID string) bool {
	if aPoints != bPoints {
		return aPoints > bPoints
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n, fresh *node) *node {
	if n == nil {
		return fresh
	}
	if less(fresh.points, fresh.id, n.points, n.id) {
		n.left = insert(n.left, fresh)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, fresh)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, points pointsFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case points == n.points && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, points)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, points)
		}
	case less(points, id, n.points, n.id):
		n.left = deleteNode(n.left, id, points)
	default:
		n.right = deleteNode(n.right, id, points)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes hold strictly more points.
func countAbove(n *node, points pointsFP) int {
	count := 0
	for n != nil {
		if n.points > points {
			count += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit nodes in rank order.
func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// TreapStore is a Store ordered by ranking points.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]pointsFP
	rng  *rand.Rand
	seed uint64
}

// NewTreapStore constructs an empty ranking table.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID: make(map[string]pointsFP),
		seed: rand.Uint64(),
	}

	for _, opt := range opts {
		opt(s)
	}
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))

	metrics.UpdateRankedParticipants(0)

	return s
}

// Set implements Store.Set in O(log n) expected time.
func (s *TreapStore) Set(ctx context.Context, participantID string, points float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fp := toFixedPoint(points)

	s.mu.Lock()
	if old, ok := s.byID[participantID]; ok {
		if old == fp {
			s.mu.Unlock()
			return nil
		}
		s.root = deleteNode(s.root, participantID, old)
	}
	s.byID[participantID] = fp
	s.root = insert(s.root, &node{id: participantID, points: fp, prio: s.rng.Uint64(), size: 1})
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateRankedParticipants(count)
	return nil
}

// Remove implements Store.Remove.
func (s *TreapStore) Remove(_ context.Context, participantID string) bool {
	s.mu.Lock()
	old, ok := s.byID[participantID]
	if ok {
		s.root = deleteNode(s.root, participantID, old)
		delete(s.byID, participantID)
	}
	count := len(s.byID)
	s.mu.Unlock()

	if ok {
		metrics.UpdateRankedParticipants(count)
	}
	return ok
}

// Rank returns the participant's rank in O(log n). Participants with equal
// points share a rank and the next rank skips accordingly (1, 2, 2, 4).
func (s *TreapStore) Rank(_ context.Context, participantID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRankingQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	fp, ok := s.byID[participantID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	return Entry{
		Rank:          countAbove(s.root, fp) + 1,
		ParticipantID: participantID,
		Points:        toFloat(fp),
	}, nil
}

// TopN returns the top n entries ordered by points desc, ties by id asc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRankingQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, &nodes)

	out := make([]Entry, len(nodes))
	for i, nd := range nodes {
		rank := i + 1
		if i > 0 && nd.points == nodes[i-1].points {
			rank = out[i-1].Rank
		}
		out[i] = Entry{Rank: rank, ParticipantID: nd.id, Points: toFloat(nd.points)}
	}
	return out, nil
}

// Count returns the number of ranked participants.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
