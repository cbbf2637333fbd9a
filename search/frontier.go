package search

import "container/heap"

// frontierEntry is one discovered-but-not-finalized cell awaiting expansion.
type frontierEntry[C comparable] struct {
	cell  C
	gCost float64 // accumulated cost from the nearest start
	fCost float64 // gCost + heuristic estimate to the cheapest goal
	seq   uint64  // stable insertion order, the final tie-break
}

// frontier is a min-heap of frontierEntry ordered by estimated total cost.
//
// Ordering is fully deterministic: fCost ascending, then gCost ascending,
// then the optional caller Comparer, then insertion sequence. The engine
// uses lazy decrease-key: improved cells are re-pushed and stale entries
// are skipped against the closed set when popped.
type frontier[C comparable] struct {
	entries []*frontierEntry[C]
	cmp     Comparer[C]
	nextSeq uint64
}

func newFrontier[C comparable](cmp Comparer[C], capacity int) *frontier[C] {
	f := &frontier[C]{
		entries: make([]*frontierEntry[C], 0, capacity),
		cmp:     cmp,
	}
	heap.Init(f)
	return f
}

// push inserts a new entry, assigning its insertion sequence.
func (f *frontier[C]) push(e *frontierEntry[C]) {
	e.seq = f.nextSeq
	f.nextSeq++
	heap.Push(f, e)
}

// pop removes and returns the minimum entry.
func (f *frontier[C]) pop() *frontierEntry[C] {
	return heap.Pop(f).(*frontierEntry[C])
}

func (f *frontier[C]) Len() int { return len(f.entries) }

func (f *frontier[C]) Less(i, j int) bool {
	a, b := f.entries[i], f.entries[j]
	if a.fCost != b.fCost {
		return a.fCost < b.fCost
	}
	if a.gCost != b.gCost {
		return a.gCost < b.gCost
	}
	if f.cmp != nil {
		if c := f.cmp(a.cell, b.cell); c != 0 {
			return c < 0
		}
	}
	return a.seq < b.seq
}

func (f *frontier[C]) Swap(i, j int) {
	f.entries[i], f.entries[j] = f.entries[j], f.entries[i]
}

func (f *frontier[C]) Push(x any) {
	f.entries = append(f.entries, x.(*frontierEntry[C]))
}

func (f *frontier[C]) Pop() any {
	old := f.entries
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	f.entries = old[:n-1]
	return e
}

// reset empties the frontier while keeping the backing array, so a reused
// Finder does not reallocate.
func (f *frontier[C]) reset() {
	for i := range f.entries {
		f.entries[i] = nil
	}
	f.entries = f.entries[:0]
	f.nextSeq = 0
}
