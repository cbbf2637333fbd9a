package search

import "iter"

// GraphID identifies a graph instance for deferred-disposal bookkeeping.
// The engine never inspects the value; it only needs distinct graphs to
// carry distinct IDs so DisposeGraph can select the handles that depend on
// a particular graph's memory.
type GraphID string

// Neighbor is one directed edge out of a cell, carrying the base traversal
// cost before any CostModifier runs.
type Neighbor[C comparable] struct {
	Cell C
	Cost float64
}

// Graph is the capability set a topology must expose to be searchable.
//
// Implementations must be structurally immutable for the duration of any
// search that references them. The owner may mutate cell data only when no
// Finder referencing the graph is Running or holds an unresolved Handle
// (single-writer / many-readers discipline); the engine does not enforce
// this. Use Engine.DisposeGraph to release backing memory once the graph is
// no longer needed; never free it directly while handles may be in flight.
type Graph[C comparable] interface {
	// Contains reports whether the cell exists in the graph.
	Contains(cell C) bool

	// Neighbors enumerates the directed edges out of cell. The returned
	// slice must have a deterministic order for a given graph snapshot;
	// result determinism depends on it.
	Neighbors(cell C) []Neighbor[C]
}

// CostModifier adjusts the cost of a single edge for one request. It may
// raise, lower or veto traversal: returning false skips the edge entirely.
//
// A modifier shared between concurrently running Finders must be safe for
// concurrent calls; modifiers holding mutable state must not be shared.
// Lowering a cost below what the heuristic assumes silently breaks A*
// optimality; admissibility is the caller's obligation.
type CostModifier[C comparable] func(from, to C, cost *float64) bool

// Heuristic estimates the remaining cost from cell to goal. It must be
// non-negative; to preserve A* optimality it must also never overestimate
// the true remaining cost (admissible). Same sharing contract as
// CostModifier.
type Heuristic[C comparable] func(cell, goal C) float64

// Validator filters goal acceptance: when a goal cell is popped from the
// frontier the search terminates on it only if the validator accepts it.
// A nil validator accepts every goal.
type Validator[C comparable] func(goal C) bool

// Comparer is an optional deterministic tie-break between frontier entries
// whose estimated-total and accumulated costs are both equal. It runs before
// the final insertion-order tie-break. Must define a strict weak ordering.
type Comparer[C comparable] func(a, b C) int

// Reserver claims the cells of a found path on behalf of the requester,
// e.g. so concurrent agents do not plan through each other. It is invoked
// once per successful goal-directed search with the start→goal sequence.
type Reserver[C comparable] interface {
	Reserve(path iter.Seq[C])
}

// ReserverFunc adapts a plain function to the Reserver interface.
type ReserverFunc[C comparable] func(path iter.Seq[C])

// Reserve implements Reserver.
func (f ReserverFunc[C]) Reserve(path iter.Seq[C]) { f(path) }
