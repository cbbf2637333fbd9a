package search

import (
	"context"
	"iter"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// gridCell is the cell type used by the test grids.
type gridCell struct {
	X, Y int
}

// gridGraph is a four-connected uniform-cost grid. Neighbor order is fixed
// (+x, -x, +y, -y) so searches over it are deterministic.
type gridGraph struct {
	w, h    int
	blocked map[gridCell]bool
}

func newGrid(w, h int) *gridGraph {
	return &gridGraph{w: w, h: h, blocked: make(map[gridCell]bool)}
}

func (g *gridGraph) Contains(c gridCell) bool {
	return c.X >= 0 && c.X < g.w && c.Y >= 0 && c.Y < g.h && !g.blocked[c]
}

func (g *gridGraph) Neighbors(c gridCell) []Neighbor[gridCell] {
	candidates := [4]gridCell{
		{c.X + 1, c.Y},
		{c.X - 1, c.Y},
		{c.X, c.Y + 1},
		{c.X, c.Y - 1},
	}
	var out []Neighbor[gridCell]
	for _, n := range candidates {
		if g.Contains(n) {
			out = append(out, Neighbor[gridCell]{Cell: n, Cost: 1})
		}
	}
	return out
}

func euclidean(cell, goal gridCell) float64 {
	dx := float64(cell.X - goal.X)
	dy := float64(cell.Y - goal.Y)
	return math.Hypot(dx, dy)
}

func collectPath(res *Result[gridCell], goal gridCell, reversed bool) []gridCell {
	var path []gridCell
	for c := range res.Path(goal, reversed) {
		path = append(path, c)
	}
	return path
}

func collectGoals(res *Result[gridCell]) map[gridCell]float64 {
	out := make(map[gridCell]float64)
	for c, cost := range res.Goals() {
		out[c] = cost
	}
	return out
}

func newTestEngine(t *testing.T, opts ...Option) *Engine[gridCell] {
	t.Helper()
	eng := New[gridCell](opts...)
	t.Cleanup(func() {
		if err := eng.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	})
	return eng
}

func TestDijkstraReachWithinBudget(t *testing.T) {
	eng := newTestEngine(t)
	f := eng.NewFinder()
	if err := f.SetGraph(newGrid(3, 3), "grid"); err != nil {
		t.Fatalf("SetGraph() error = %v", err)
	}
	if err := f.SetStarts(gridCell{1, 1}); err != nil {
		t.Fatalf("SetStarts() error = %v", err)
	}
	if err := f.SetMode(ModeReach); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}
	if err := f.SetBudget(1); err != nil {
		t.Fatalf("SetBudget() error = %v", err)
	}
	if err := f.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	res, err := f.Result()
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	want := map[gridCell]float64{
		{1, 1}: 0,
		{0, 1}: 1,
		{2, 1}: 1,
		{1, 0}: 1,
		{1, 2}: 1,
	}
	got := collectGoals(res)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reach set mismatch (-want +got):\n%s", diff)
	}
}

func TestAStarFindsShortestPath(t *testing.T) {
	eng := newTestEngine(t)
	f := eng.NewFinder()
	goal := gridCell{2, 2}
	_ = f.SetGraph(newGrid(3, 3), "grid")
	_ = f.SetStarts(gridCell{0, 0})
	_ = f.SetGoals(goal)
	_ = f.SetHeuristic(euclidean)
	if err := f.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	res, err := f.Result()
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if !res.HasPath(goal) {
		t.Fatal("HasPath(goal) = false, want true")
	}
	if got := res.Cost(goal); got != 4 {
		t.Errorf("Cost(goal) = %v, want 4", got)
	}

	path := collectPath(res, goal, false)
	if len(path) != 5 {
		t.Fatalf("path has %d cells, want 5: %v", len(path), path)
	}
	if path[0] != (gridCell{0, 0}) {
		t.Errorf("path starts at %v, want (0,0)", path[0])
	}
	if path[len(path)-1] != goal {
		t.Errorf("path ends at %v, want (2,2)", path[len(path)-1])
	}

	reversed := collectPath(res, goal, true)
	if len(reversed) != 5 {
		t.Fatalf("reversed path has %d cells, want 5", len(reversed))
	}
	for i := range path {
		if path[i] != reversed[len(reversed)-1-i] {
			t.Errorf("reversed path is not the mirror of the forward path:\nforward:  %v\nreversed: %v", path, reversed)
			break
		}
	}
}

func TestCostModifierVeto(t *testing.T) {
	eng := newTestEngine(t)
	f := eng.NewFinder()
	goal := gridCell{2, 2}
	center := gridCell{1, 1}
	_ = f.SetGraph(newGrid(3, 3), "grid")
	_ = f.SetStarts(gridCell{0, 0})
	_ = f.SetGoals(goal)
	_ = f.SetHeuristic(euclidean)
	_ = f.SetCostModifier(func(from, to gridCell, cost *float64) bool {
		return to != center
	})
	if err := f.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	res, err := f.Result()
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if !res.HasPath(goal) {
		t.Fatal("HasPath(goal) = false, want route around the vetoed cell")
	}
	path := collectPath(res, goal, false)
	for _, c := range path {
		if c == center {
			t.Fatalf("path traverses vetoed cell %v: %v", center, path)
		}
	}
	if got := res.Cost(goal); got != 4 {
		t.Errorf("Cost(goal) = %v, want 4 (perimeter detour)", got)
	}
}

func TestCostModifierVetoMakesGoalUnreachable(t *testing.T) {
	eng := newTestEngine(t)
	f := eng.NewFinder()
	goal := gridCell{2, 2}
	_ = f.SetGraph(newGrid(3, 3), "grid")
	_ = f.SetStarts(gridCell{0, 0})
	_ = f.SetGoals(goal)
	_ = f.SetCostModifier(func(from, to gridCell, cost *float64) bool {
		return to != goal
	})
	if err := f.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v (no path must be data, not an error)", err)
	}

	res, err := f.Result()
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if res.HasPath(goal) {
		t.Error("HasPath(goal) = true, want false")
	}
	if got := res.Cost(goal); !math.IsInf(got, 1) {
		t.Errorf("Cost(goal) = %v, want +Inf", got)
	}
	if path := collectPath(res, goal, false); len(path) != 0 {
		t.Errorf("Path(goal) yielded %v, want empty sequence", path)
	}
}

func TestCostModifierRaisesCost(t *testing.T) {
	eng := newTestEngine(t)
	f := eng.NewFinder()
	goal := gridCell{2, 0}
	center := gridCell{1, 0}
	_ = f.SetGraph(newGrid(3, 3), "grid")
	_ = f.SetStarts(gridCell{0, 0})
	_ = f.SetGoals(goal)
	_ = f.SetCostModifier(func(from, to gridCell, cost *float64) bool {
		if to == center {
			*cost += 10
		}
		return true
	})
	if err := f.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	res, _ := f.Result()
	if got := res.Cost(goal); got != 4 {
		t.Errorf("Cost(goal) = %v, want 4 (detour around the expensive cell)", got)
	}
	for _, c := range collectPath(res, goal, false) {
		if c == center {
			t.Errorf("path traverses the expensive cell despite a cheaper detour")
		}
	}
}

func TestZeroBudgetYieldsOnlyStarts(t *testing.T) {
	for name, budget := range map[string]float64{"zero": 0, "negative": -3} {
		t.Run(name, func(t *testing.T) {
			eng := newTestEngine(t)
			f := eng.NewFinder()
			_ = f.SetGraph(newGrid(3, 3), "grid")
			_ = f.SetStarts(gridCell{0, 0}, gridCell{2, 2})
			_ = f.SetMode(ModeReach)
			_ = f.SetBudget(budget)
			if err := f.Run(context.Background()); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			res, _ := f.Result()
			want := map[gridCell]float64{{0, 0}: 0, {2, 2}: 0}
			if diff := cmp.Diff(want, collectGoals(res)); diff != "" {
				t.Errorf("reach set mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMultiSourceSearch(t *testing.T) {
	eng := newTestEngine(t)
	f := eng.NewFinder()
	goal := gridCell{2, 1}
	_ = f.SetGraph(newGrid(3, 3), "grid")
	_ = f.SetStarts(gridCell{0, 0}, gridCell{2, 0})
	_ = f.SetGoals(goal)
	if err := f.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	res, _ := f.Result()
	// (2,0) is one step away; the (0,0) source must not win.
	if got := res.Cost(goal); got != 1 {
		t.Errorf("Cost(goal) = %v, want 1", got)
	}
	path := collectPath(res, goal, false)
	if len(path) != 2 || path[0] != (gridCell{2, 0}) {
		t.Errorf("path = %v, want [(2,0) (2,1)]", path)
	}
}

func TestReachWithUnlimitedBudget(t *testing.T) {
	eng := newTestEngine(t)
	f := eng.NewFinder()
	_ = f.SetGraph(newGrid(3, 3), "grid")
	_ = f.SetStarts(gridCell{0, 0})
	_ = f.SetMode(ModeReach)
	if err := f.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	res, _ := f.Result()
	if got := res.Len(); got != 9 {
		t.Errorf("Len() = %d, want all 9 cells reached", got)
	}
	if got := res.Cost(gridCell{2, 2}); got != 4 {
		t.Errorf("Cost((2,2)) = %v, want 4", got)
	}
}

func TestGoalValidatorRejectsGoal(t *testing.T) {
	eng := newTestEngine(t)
	f := eng.NewFinder()
	near := gridCell{1, 0}
	far := gridCell{2, 2}
	_ = f.SetGraph(newGrid(3, 3), "grid")
	_ = f.SetStarts(gridCell{0, 0})
	_ = f.SetGoals(near, far)
	_ = f.SetValidator(func(goal gridCell) bool {
		return goal != near
	})
	if err := f.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got, found := f.Goal()
	if !found {
		t.Fatal("Goal() found = false, want the far goal")
	}
	if got != far {
		t.Errorf("Goal() = %v, want %v (near goal rejected by validator)", got, far)
	}
}

func TestReserverReceivesFinalPath(t *testing.T) {
	eng := newTestEngine(t)
	f := eng.NewFinder()
	goal := gridCell{2, 0}
	var reserved []gridCell
	_ = f.SetGraph(newGrid(3, 3), "grid")
	_ = f.SetStarts(gridCell{0, 0})
	_ = f.SetGoals(goal)
	_ = f.SetReserver(ReserverFunc[gridCell](func(path iter.Seq[gridCell]) {
		for c := range path {
			reserved = append(reserved, c)
		}
	}))
	if err := f.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []gridCell{{0, 0}, {1, 0}, {2, 0}}
	if diff := cmp.Diff(want, reserved); diff != "" {
		t.Errorf("reserved path mismatch (-want +got):\n%s", diff)
	}
}

func TestDeterministicAcrossReuse(t *testing.T) {
	eng := newTestEngine(t)
	f := eng.NewFinder()
	goal := gridCell{2, 2}
	_ = f.SetGraph(newGrid(3, 3), "grid")
	_ = f.SetStarts(gridCell{0, 0})
	_ = f.SetGoals(goal)
	_ = f.SetHeuristic(euclidean)

	type snapshot struct {
		Path  []gridCell
		Goals map[gridCell]float64
		Cost  float64
	}
	capture := func() snapshot {
		t.Helper()
		if err := f.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		res, err := f.Result()
		if err != nil {
			t.Fatalf("Result() error = %v", err)
		}
		return snapshot{
			Path:  collectPath(res, goal, false),
			Goals: collectGoals(res),
			Cost:  res.Cost(goal),
		}
	}

	first := capture()
	if err := f.Clear(KeepGraph | KeepNodes | KeepHeuristic); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	second := capture()

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("results differ across reuse (-first +second):\n%s", diff)
	}
}

func TestRunValidationErrors(t *testing.T) {
	tests := map[string]struct {
		configure func(*Finder[gridCell])
		wantErr   error
	}{
		"nil graph": {
			configure: func(f *Finder[gridCell]) {
				_ = f.SetStarts(gridCell{0, 0})
				_ = f.SetGoals(gridCell{1, 1})
			},
			wantErr: ErrNilGraph,
		},
		"no starts": {
			configure: func(f *Finder[gridCell]) {
				_ = f.SetGraph(newGrid(3, 3), "grid")
				_ = f.SetGoals(gridCell{1, 1})
			},
			wantErr: ErrNoStarts,
		},
		"goal mode without goals": {
			configure: func(f *Finder[gridCell]) {
				_ = f.SetGraph(newGrid(3, 3), "grid")
				_ = f.SetStarts(gridCell{0, 0})
			},
			wantErr: ErrNoGoals,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			eng := newTestEngine(t)
			f := eng.NewFinder()
			tc.configure(f)
			if err := f.Run(context.Background()); err != tc.wantErr {
				t.Errorf("Run() error = %v, want %v", err, tc.wantErr)
			}
			if got := f.State(); got != Idle {
				t.Errorf("State() after failed Run = %v, want Idle", got)
			}
		})
	}
}

func TestComparerBreaksTies(t *testing.T) {
	eng := newTestEngine(t)

	run := func(cmpFn Comparer[gridCell]) []gridCell {
		t.Helper()
		f := eng.NewFinder()
		_ = f.SetGraph(newGrid(3, 3), "grid")
		_ = f.SetStarts(gridCell{1, 1})
		_ = f.SetMode(ModeReach)
		_ = f.SetComparer(cmpFn)
		if err := f.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		res, _ := f.Result()
		var order []gridCell
		for c := range res.Goals() {
			order = append(order, c)
		}
		return order
	}

	// Prefer higher Y among equal-cost entries; the distance-1 ring must
	// settle in comparer order instead of insertion order.
	order := run(func(a, b gridCell) int {
		switch {
		case a.Y > b.Y:
			return -1
		case a.Y < b.Y:
			return 1
		default:
			return a.X - b.X
		}
	})
	ring := order[1:5] // order[0] is the start
	want := []gridCell{{1, 2}, {0, 1}, {2, 1}, {1, 0}}
	if diff := cmp.Diff(want, ring); diff != "" {
		t.Errorf("distance-1 settle order mismatch (-want +got):\n%s", diff)
	}
}
