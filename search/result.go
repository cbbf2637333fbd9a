package search

import (
	"iter"
	"math"
)

// resultEntry is one arena slot: the discovered cost and predecessor of a
// cell, stamped with the generation that wrote it. Entries from earlier
// generations are invisible without ever being cleared.
type resultEntry[C comparable] struct {
	cost    float64
	pred    C
	hasPred bool
	settled bool // cost is final (cell left the frontier)
	stamp   uint64
}

// Result holds the outcome of one search: per-cell discovered cost and
// predecessor data, queryable for path existence, path extraction and, in
// reach mode, the full set of cells reachable within the budget.
//
// A Result is owned by its Finder and reused across runs: Reset invalidates
// every entry in O(1) by bumping a generation stamp, so repeated searches do
// not reallocate unless capacity grows. Results are not safe for concurrent
// use; read them only while the owning Finder is Completed.
type Result[C comparable] struct {
	entries map[C]resultEntry[C]
	order   []C // settle order of the current generation, for Goals
	stamp   uint64
}

func newResult[C comparable]() *Result[C] {
	return &Result[C]{
		entries: make(map[C]resultEntry[C]),
		stamp:   1,
	}
}

// entry returns the cell's slot if it was written in the current generation.
func (r *Result[C]) entry(cell C) (resultEntry[C], bool) {
	e, ok := r.entries[cell]
	if !ok || e.stamp != r.stamp {
		return resultEntry[C]{}, false
	}
	return e, true
}

// bestKnown returns the tentative cost recorded for cell, if any.
func (r *Result[C]) bestKnown(cell C) (float64, bool) {
	e, ok := r.entry(cell)
	if !ok {
		return 0, false
	}
	return e.cost, true
}

// record writes a tentative (cost, predecessor) pair for cell.
func (r *Result[C]) record(cell C, cost float64, pred C, hasPred bool) {
	r.entries[cell] = resultEntry[C]{
		cost:    cost,
		pred:    pred,
		hasPred: hasPred,
		stamp:   r.stamp,
	}
}

// settle finalizes the cell's cost and appends it to the reach order.
// Idempotent; settling an unrecorded cell is a no-op.
func (r *Result[C]) settle(cell C) {
	e, ok := r.entry(cell)
	if !ok || e.settled {
		return
	}
	e.settled = true
	r.entries[cell] = e
	r.order = append(r.order, cell)
}

// HasPath reports whether the search finalized a path to goal. Unreachable
// goals are a normal outcome, not an error.
func (r *Result[C]) HasPath(goal C) bool {
	e, ok := r.entry(goal)
	return ok && e.settled
}

// Cost returns the accumulated cost of the path to goal. It is only
// meaningful when HasPath(goal) is true; otherwise it returns +Inf.
func (r *Result[C]) Cost(goal C) float64 {
	e, ok := r.entry(goal)
	if !ok || !e.settled {
		return math.Inf(1)
	}
	return e.cost
}

// Path returns the path to goal as a lazy, restartable sequence of cells.
// With reversed=false the sequence runs start→goal; with reversed=true it
// walks the predecessor chain directly, goal→start, without buffering.
// If HasPath(goal) is false the sequence is empty.
func (r *Result[C]) Path(goal C, reversed bool) iter.Seq[C] {
	return func(yield func(C) bool) {
		if !r.HasPath(goal) {
			return
		}
		if reversed {
			cur := goal
			for {
				if !yield(cur) {
					return
				}
				e, ok := r.entry(cur)
				if !ok || !e.hasPred {
					return
				}
				cur = e.pred
			}
		}
		var chain []C
		cur := goal
		for {
			chain = append(chain, cur)
			e, ok := r.entry(cur)
			if !ok || !e.hasPred {
				break
			}
			cur = e.pred
		}
		for i := len(chain) - 1; i >= 0; i-- {
			if !yield(chain[i]) {
				return
			}
		}
	}
}

// Goals yields every cell the search finalized within budget together with
// its minimal cost, in deterministic settle order. After a reach-mode run
// this is the complete reach set; after a goal-directed run it is the set
// of expanded cells.
func (r *Result[C]) Goals() iter.Seq2[C, float64] {
	return func(yield func(C, float64) bool) {
		for _, cell := range r.order {
			e, ok := r.entry(cell)
			if !ok || !e.settled {
				continue
			}
			if !yield(cell, e.cost) {
				return
			}
		}
	}
}

// Len reports how many cells the current generation has finalized.
func (r *Result[C]) Len() int { return len(r.order) }

// Reset invalidates all entries in O(1) via a generation bump. Backing
// storage keeps its capacity for the next run.
func (r *Result[C]) Reset() {
	r.stamp++
	r.order = r.order[:0]
}
