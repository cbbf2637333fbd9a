package search

import (
	"context"
	"math"
	"sync/atomic"
)

// Mode selects the termination discipline of a search.
type Mode int

const (
	// ModeGoal is goal-directed A*: the search requires at least one goal
	// and terminates as soon as a goal cell is popped from the frontier.
	ModeGoal Mode = iota

	// ModeReach is multi-goal/budgeted Dijkstra: the heuristic is zero,
	// goals are optional, and the search finalizes the minimal cost of
	// every cell reachable within the budget.
	ModeReach
)

func (m Mode) String() string {
	switch m {
	case ModeGoal:
		return "goal"
	case ModeReach:
		return "reach"
	default:
		return "unknown"
	}
}

// searchSpec is the frozen per-run view of a Finder's configuration.
type searchSpec[C comparable] struct {
	graph     Graph[C]
	graphID   GraphID
	starts    []C
	goals     []C
	budget    float64
	mode      Mode
	modifier  CostModifier[C]
	heuristic Heuristic[C]
	validator Validator[C]
	comparer  Comparer[C]
	reserver  Reserver[C]
}

// searchOutcome summarizes one completed run.
type searchOutcome[C comparable] struct {
	expanded int
	frontier int // frontier size at termination
	found    bool
	goal     C
}

// abortCheckInterval bounds how many expansions may pass between abort and
// cancellation polls on the hot loop.
const abortCheckInterval = 64

// runSearch executes one search described by spec, writing discovered costs
// and predecessors into res. The caller owns all state transitions; this
// function only reads the graph and writes the result.
//
// Determinism: given an identical graph snapshot, identical modifier and
// heuristic behavior and identical spec, the written result is bit-for-bit
// identical across runs. The frontier's total ordering (estimated total
// cost, accumulated cost, caller comparer, insertion sequence) leaves no
// nondeterministic tie-breaking, and no map iteration order ever influences
// the outcome.
func runSearch[C comparable](ctx context.Context, spec searchSpec[C], res *Result[C], aborted *atomic.Bool) (searchOutcome[C], error) {
	var out searchOutcome[C]

	if spec.graph == nil {
		return out, ErrNilGraph
	}
	if len(spec.starts) == 0 {
		return out, ErrNoStarts
	}
	if spec.mode == ModeGoal && len(spec.goals) == 0 {
		return out, ErrNoGoals
	}

	budget := spec.budget
	if math.IsNaN(budget) {
		budget = math.Inf(1)
	}

	goalSet := make(map[C]struct{}, len(spec.goals))
	for _, g := range spec.goals {
		goalSet[g] = struct{}{}
	}

	// estimate is the frontier's h term: zero in reach mode, otherwise the
	// minimum heuristic across goals, clamped to non-negative so a misbehaving
	// heuristic cannot corrupt frontier ordering.
	estimate := func(cell C) float64 {
		if spec.mode == ModeReach || spec.heuristic == nil {
			return 0
		}
		best := math.Inf(1)
		for _, g := range spec.goals {
			h := spec.heuristic(cell, g)
			if h < best {
				best = h
			}
		}
		if best < 0 || math.IsInf(best, 1) {
			return 0
		}
		return best
	}

	front := newFrontier(spec.comparer, len(spec.starts))
	closed := make(map[C]struct{})

	// Start cells are reachable by definition, even under a zero or negative
	// budget: settle them up front at cost zero.
	for _, s := range spec.starts {
		if !spec.graph.Contains(s) {
			continue
		}
		if _, dup := closed[s]; dup {
			continue
		}
		res.record(s, 0, s, false)
		res.settle(s)
		closed[s] = struct{}{}
		front.push(&frontierEntry[C]{cell: s, gCost: 0, fCost: estimate(s)})
	}

	// Start cells occupy the closed set so duplicates collapse; clear it so
	// the main loop expands them exactly once.
	clear(closed)

	for front.Len() > 0 {
		if out.expanded%abortCheckInterval == 0 {
			if aborted != nil && aborted.Load() {
				out.frontier = front.Len()
				return out, ErrAborted
			}
			if err := ctx.Err(); err != nil {
				out.frontier = front.Len()
				return out, err
			}
		}

		cur := front.pop()
		if _, done := closed[cur.cell]; done {
			continue // stale lazy-decrease-key entry
		}
		if cur.gCost > budget {
			if spec.mode == ModeReach {
				break // every remaining entry is at least this expensive
			}
			continue // goal mode: prune the branch, keep searching
		}

		closed[cur.cell] = struct{}{}
		res.settle(cur.cell)
		out.expanded++

		if spec.mode == ModeGoal {
			if _, isGoal := goalSet[cur.cell]; isGoal {
				if spec.validator == nil || spec.validator(cur.cell) {
					out.found = true
					out.goal = cur.cell
					out.frontier = front.Len()
					return out, nil
				}
			}
		}

		for _, nb := range spec.graph.Neighbors(cur.cell) {
			if _, done := closed[nb.Cell]; done {
				continue
			}
			cost := nb.Cost
			if spec.modifier != nil && !spec.modifier(cur.cell, nb.Cell, &cost) {
				continue // traversal vetoed
			}
			newG := cur.gCost + cost
			if newG > budget {
				continue
			}
			if best, ok := res.bestKnown(nb.Cell); ok && newG >= best {
				continue
			}
			res.record(nb.Cell, newG, cur.cell, true)
			front.push(&frontierEntry[C]{
				cell:  nb.Cell,
				gCost: newG,
				fCost: newG + estimate(nb.Cell),
			})
		}
	}

	// Frontier exhausted: in goal mode this means no reachable goal, which
	// is data (HasPath == false), never an error.
	out.frontier = front.Len()
	return out, nil
}
