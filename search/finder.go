package search

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/pathwise/pathwise-go/search/emit"
)

// State is the lifecycle position of a Finder.
type State int

const (
	// Idle accepts configuration. Finders start Idle and return to it via
	// Clear or Abort.
	Idle State = iota

	// Running has a search in flight; configuration is locked.
	Running

	// Completed holds a readable Result; configuration stays locked until
	// Clear.
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// ClearFlags selects which configuration survives Finder.Clear. Flags
// combine with bitwise OR; anything not kept is reset to its zero
// configuration. The Result is always discarded.
type ClearFlags uint32

const (
	// KeepGraph retains the graph and its GraphID.
	KeepGraph ClearFlags = 1 << iota

	// KeepHeuristic retains the heuristic.
	KeepHeuristic

	// KeepEdgeModifier retains the cost modifier.
	KeepEdgeModifier

	// KeepCompletedHandlers retains handlers registered via OnCompleted.
	KeepCompletedHandlers

	// KeepNodes retains the start and goal cell sets.
	KeepNodes

	// KeepValidator retains the goal validator.
	KeepValidator

	// KeepReserver retains the path reserver.
	KeepReserver

	// KeepComparer retains the tie-break comparer.
	KeepComparer

	// KeepNone discards all configuration.
	KeepNone ClearFlags = 0
)

// Finder configures and runs searches. It moves through a strict lifecycle:
//
//	Idle ──Run/Schedule──▶ Running ──▶ Completed ──Clear──▶ Idle
//	                          │
//	                        Abort ──▶ Idle
//
// Setters succeed only in Idle and fail with *ConfigLockedError otherwise.
// Run enters Completed synchronously; Schedule enters Completed only when a
// later Engine.Pump observes the finished handle. Abort discards the
// in-flight run's Result and returns to Idle immediately, while the worker
// and its Handle wind down in the background.
//
// A Finder is not safe for concurrent configuration; Abort and Handle reads
// are the only operations designed to race a running search.
type Finder[C comparable] struct {
	eng *Engine[C]

	mu        sync.Mutex
	state     State
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
	handlers  []func(*Result[C])

	res       *Result[C]
	handle    *Handle      // handle of the current scheduled run, nil when sync or idle
	abortFlag *atomic.Bool // abort signal of the current run
	outcome   searchOutcome[C]
}

func newFinder[C comparable](eng *Engine[C]) *Finder[C] {
	return &Finder[C]{
		eng:    eng,
		budget: math.Inf(1),
		res:    newResult[C](),
	}
}

// State returns the Finder's current lifecycle state.
func (f *Finder[C]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// SetGraph configures the graph to search and the ID used for disposal
// bookkeeping.
func (f *Finder[C]) SetGraph(g Graph[C], id GraphID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Idle {
		return lockedErr("graph", f.state)
	}
	f.graph = g
	f.graphID = id
	return nil
}

// SetStarts configures the start cells. Multi-source searches expand from
// every start at cost zero.
func (f *Finder[C]) SetStarts(starts ...C) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Idle {
		return lockedErr("starts", f.state)
	}
	f.starts = append(f.starts[:0], starts...)
	return nil
}

// SetGoals configures the goal cells. Required in ModeGoal, optional in
// ModeReach.
func (f *Finder[C]) SetGoals(goals ...C) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Idle {
		return lockedErr("goals", f.state)
	}
	f.goals = append(f.goals[:0], goals...)
	return nil
}

// SetMode selects goal-directed or reach search. Default is ModeGoal.
func (f *Finder[C]) SetMode(mode Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Idle {
		return lockedErr("mode", f.state)
	}
	f.mode = mode
	return nil
}

// SetBudget caps the accumulated cost a search may explore. Default is
// +Inf (unlimited); NaN is treated as unlimited.
func (f *Finder[C]) SetBudget(budget float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Idle {
		return lockedErr("budget", f.state)
	}
	f.budget = budget
	return nil
}

// SetCostModifier configures the per-edge cost modifier. Pass nil to clear.
func (f *Finder[C]) SetCostModifier(m CostModifier[C]) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Idle {
		return lockedErr("cost modifier", f.state)
	}
	f.modifier = m
	return nil
}

// SetHeuristic configures the A* heuristic. Ignored in ModeReach. Pass nil
// for Dijkstra behavior in ModeGoal.
func (f *Finder[C]) SetHeuristic(h Heuristic[C]) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Idle {
		return lockedErr("heuristic", f.state)
	}
	f.heuristic = h
	return nil
}

// SetValidator configures the goal acceptance filter. Pass nil to accept
// every goal.
func (f *Finder[C]) SetValidator(v Validator[C]) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Idle {
		return lockedErr("validator", f.state)
	}
	f.validator = v
	return nil
}

// SetComparer configures the deterministic tie-break between equal-cost
// frontier entries. Pass nil for insertion-order ties only.
func (f *Finder[C]) SetComparer(c Comparer[C]) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Idle {
		return lockedErr("comparer", f.state)
	}
	f.comparer = c
	return nil
}

// SetReserver configures the reserver invoked with the final path after a
// successful goal-directed run. Pass nil to disable.
func (f *Finder[C]) SetReserver(r Reserver[C]) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Idle {
		return lockedErr("reserver", f.state)
	}
	f.reserver = r
	return nil
}

// OnCompleted registers a handler invoked with the Result each time the
// Finder enters Completed. Handlers run on the completing goroutine: the
// caller's for Run, the pumping goroutine for Schedule.
func (f *Finder[C]) OnCompleted(handler func(*Result[C])) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Idle {
		return lockedErr("completion handler", f.state)
	}
	f.handlers = append(f.handlers, handler)
	return nil
}

// snapshotLocked freezes the current configuration into a searchSpec. The
// start and goal slices are copied so later Clear+reconfigure cannot race a
// worker still reading them. Caller holds f.mu.
func (f *Finder[C]) snapshotLocked() searchSpec[C] {
	starts := make([]C, len(f.starts))
	copy(starts, f.starts)
	goals := make([]C, len(f.goals))
	copy(goals, f.goals)
	return searchSpec[C]{
		graph:     f.graph,
		graphID:   f.graphID,
		starts:    starts,
		goals:     goals,
		budget:    f.budget,
		mode:      f.mode,
		modifier:  f.modifier,
		heuristic: f.heuristic,
		validator: f.validator,
		comparer:  f.comparer,
		reserver:  f.reserver,
	}
}

// Run executes the search synchronously on the calling goroutine. On
// success the Finder is Completed and its Result readable; on any error
// (validation, context cancellation, Abort from another goroutine) the
// Finder returns to Idle with no readable Result.
func (f *Finder[C]) Run(ctx context.Context) error {
	f.mu.Lock()
	if f.state != Idle {
		state := f.state
		f.mu.Unlock()
		return lockedErr("run", state)
	}
	spec := f.snapshotLocked()
	flag := new(atomic.Bool)
	f.abortFlag = flag
	f.res.Reset()
	res := f.res
	f.state = Running
	f.mu.Unlock()

	out, err := f.eng.execute(ctx, spec, res, flag)

	f.mu.Lock()
	if f.res != res {
		// Aborted mid-run; the result we wrote is orphaned and the Finder
		// has already returned to Idle.
		f.mu.Unlock()
		return ErrAborted
	}
	f.abortFlag = nil
	var handlers []func(*Result[C])
	if err != nil {
		f.state = Idle
	} else {
		f.outcome = out
		f.state = Completed
		handlers = append(handlers, f.handlers...)
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(res)
	}
	return err
}

// Schedule dispatches the search to the engine's worker pool and returns a
// Handle immediately. Configuration errors (nil graph, no starts, goal mode
// without goals) are returned synchronously and leave the Finder Idle.
//
// The Handle is registered with the disposal registry before the worker
// starts, so a DisposeGraph issued after Schedule returns is gated on this
// run. The Finder transitions to Completed only when Engine.Pump observes
// the finished handle.
func (f *Finder[C]) Schedule(ctx context.Context) (*Handle, error) {
	f.mu.Lock()
	if f.state != Idle {
		state := f.state
		f.mu.Unlock()
		return nil, lockedErr("schedule", state)
	}
	spec := f.snapshotLocked()
	if err := validateSpec(spec); err != nil {
		f.mu.Unlock()
		return nil, err
	}

	flag := new(atomic.Bool)
	h := newHandle()
	f.abortFlag = flag
	f.handle = h
	f.res.Reset()
	res := f.res
	f.state = Running
	f.mu.Unlock()

	run := &asyncRun[C]{finder: f, handle: h, res: res}
	f.eng.registry.Register(h, spec.graphID)

	err := f.eng.sched.submit(ctx, func() {
		out, rerr := f.eng.execute(ctx, spec, res, flag)
		run.outcome = out
		run.err = rerr
		h.markComplete(rerr)
	})
	if err != nil {
		f.eng.registry.Unregister(h)
		f.mu.Lock()
		f.state = Idle
		f.handle = nil
		f.abortFlag = nil
		f.mu.Unlock()
		return nil, err
	}

	f.eng.trackRun(run)
	return h, nil
}

// validateSpec rejects configurations runSearch would reject, so Schedule
// can fail fast instead of surfacing the error through the Handle.
func validateSpec[C comparable](spec searchSpec[C]) error {
	if spec.graph == nil {
		return ErrNilGraph
	}
	if len(spec.starts) == 0 {
		return ErrNoStarts
	}
	if spec.mode == ModeGoal && len(spec.goals) == 0 {
		return ErrNoGoals
	}
	return nil
}

// Abort cancels the in-flight search and returns the Finder to Idle
// immediately. The run's Result is discarded; the worker keeps running
// until its next abort poll, and its Handle stays tracked by the disposal
// registry until the pump cycle observes its completion. Waiters on the
// Handle are released with ErrAborted right away.
//
// Returns ErrNotRunning when no search is in flight.
func (f *Finder[C]) Abort() error {
	f.mu.Lock()
	if f.state != Running {
		f.mu.Unlock()
		return ErrNotRunning
	}
	if f.abortFlag != nil {
		f.abortFlag.Store(true)
	}
	h := f.handle
	gid := f.graphID

	// The worker owns the old Result now; swap in a fresh one so the next
	// run cannot race it.
	f.res = newResult[C]()
	f.handle = nil
	f.abortFlag = nil
	f.state = Idle
	f.mu.Unlock()

	if h != nil {
		f.eng.registry.MarkAborted(h)
		h.release(ErrAborted)
	}
	f.eng.metrics.searchAborted(string(gid))
	f.eng.emitEvent(emit.Event{GraphID: string(gid), Msg: "search_abort"})
	return nil
}

// Clear returns a Completed (or Idle) Finder to Idle. flags selects the
// configuration to retain; everything else, always including the Result,
// is discarded. Budget and mode reset to their defaults.
//
// Clearing a Running Finder fails with *ConfigLockedError; Abort first.
func (f *Finder[C]) Clear(flags ClearFlags) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Running {
		return lockedErr("clear", f.state)
	}

	if flags&KeepGraph == 0 {
		f.graph = nil
		f.graphID = ""
	}
	if flags&KeepNodes == 0 {
		f.starts = f.starts[:0]
		f.goals = f.goals[:0]
	}
	if flags&KeepHeuristic == 0 {
		f.heuristic = nil
	}
	if flags&KeepEdgeModifier == 0 {
		f.modifier = nil
	}
	if flags&KeepValidator == 0 {
		f.validator = nil
	}
	if flags&KeepReserver == 0 {
		f.reserver = nil
	}
	if flags&KeepComparer == 0 {
		f.comparer = nil
	}
	if flags&KeepCompletedHandlers == 0 {
		f.handlers = nil
	}
	f.budget = math.Inf(1)
	f.mode = ModeGoal
	f.outcome = searchOutcome[C]{}
	f.res.Reset()
	f.state = Idle
	return nil
}

// Result returns the outcome of the last run. It fails with ErrNotCompleted
// unless the Finder is Completed; read it before Clear discards it.
func (f *Finder[C]) Result() (*Result[C], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Completed {
		return nil, ErrNotCompleted
	}
	return f.res, nil
}

// Goal returns the goal cell the last run terminated on and whether one was
// found. Only meaningful while Completed.
func (f *Finder[C]) Goal() (C, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var zero C
	if f.state != Completed || !f.outcome.found {
		return zero, false
	}
	return f.outcome.goal, true
}

// finishAsync is the pump-cycle completion path for a scheduled run. It is
// a no-op when the Finder no longer owns the run's handle (the run was
// aborted and its result orphaned).
func (f *Finder[C]) finishAsync(run *asyncRun[C]) {
	f.mu.Lock()
	if f.handle != run.handle {
		f.mu.Unlock()
		return
	}
	f.handle = nil
	f.abortFlag = nil
	var handlers []func(*Result[C])
	if run.err != nil {
		f.state = Idle
	} else {
		f.outcome = run.outcome
		f.state = Completed
		handlers = append(handlers, f.handlers...)
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(run.res)
	}
}
