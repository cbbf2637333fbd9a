package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pathwise/pathwise-go/search/emit"
	"github.com/pathwise/pathwise-go/search/store"
)

// Engine is the host-facing coordinator. It owns the worker pool, the
// disposal registry and the observability plumbing shared by every Finder
// it creates.
//
// Hosts that use Finder.Schedule must drive Pump (or run Serve) regularly:
// the pump cycle is where finished scheduled searches transition their
// Finders to Completed and stop gating graph disposals.
//
// All Engine methods are safe for concurrent use.
type Engine[C comparable] struct {
	emitter  emit.Emitter
	metrics  *PrometheusMetrics
	journal  store.RunStore
	registry *Registry
	sched    *scheduler

	pumpInterval time.Duration

	mu       sync.Mutex
	inflight []*asyncRun[C]

	runSeq atomic.Uint64
	closed atomic.Bool
}

// asyncRun carries one scheduled search from submission through the pump
// cycle. The worker writes outcome and err before marking the handle
// complete; the pump reads them after observing completion.
type asyncRun[C comparable] struct {
	finder  *Finder[C]
	handle  *Handle
	res     *Result[C]
	outcome searchOutcome[C]
	err     error
}

// New creates an Engine with the given options. Zero options yields a
// working engine: NumCPU-sized worker pool, no-op emitter, no metrics, no
// journal.
func New[C comparable](opts ...Option) *Engine[C] {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Engine[C]{
		emitter:      cfg.emitter,
		metrics:      cfg.metrics,
		journal:      cfg.journal,
		registry:     NewRegistry(),
		sched:        newScheduler(cfg.workers, cfg.queueDepth),
		pumpInterval: cfg.pumpInterval,
	}
}

// NewFinder creates an Idle Finder bound to this engine.
func (e *Engine[C]) NewFinder() *Finder[C] {
	return newFinder(e)
}

// Registry exposes the disposal registry, for hosts that need handle
// accounting beyond DisposeGraph.
func (e *Engine[C]) Registry() *Registry {
	return e.registry
}

// trackRun adds a scheduled run to the pump's watch list.
func (e *Engine[C]) trackRun(run *asyncRun[C]) {
	e.mu.Lock()
	e.inflight = append(e.inflight, run)
	e.mu.Unlock()
}

// Pump completes finished scheduled searches: each run whose handle is done
// is unregistered from the disposal registry and its Finder transitioned
// out of Running (to Completed on success, back to Idle on error; aborted
// runs were already transitioned by Abort and are only swept here).
//
// Returns the number of runs completed this cycle.
func (e *Engine[C]) Pump() int {
	e.mu.Lock()
	var finished []*asyncRun[C]
	remaining := e.inflight[:0]
	for _, run := range e.inflight {
		if run.handle.Done() {
			finished = append(finished, run)
		} else {
			remaining = append(remaining, run)
		}
	}
	for i := len(remaining); i < len(e.inflight); i++ {
		e.inflight[i] = nil
	}
	e.inflight = remaining
	e.mu.Unlock()

	for _, run := range finished {
		e.registry.Unregister(run.handle)
		run.finder.finishAsync(run)
	}
	return len(finished)
}

// Serve drives Pump on the engine's pump interval until ctx is done. It
// always returns ctx's error; hosts that want explicit control call Pump
// themselves instead.
func (e *Engine[C]) Serve(ctx context.Context) error {
	ticker := time.NewTicker(e.pumpInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.Pump()
		}
	}
}

// DisposeGraph schedules release to run once every handle currently
// tracked against graphID has completed, and returns without blocking.
// Aborted-but-still-running searches gate the release like active ones.
//
// The returned Handle completes when the graph memory has actually been
// released; hosts that need to block on it can Wait.
func (e *Engine[C]) DisposeGraph(graphID GraphID, release func()) *Handle {
	pending := e.registry.PendingFor(graphID)
	begin := time.Now()
	e.metrics.disposalPending()
	e.emitEvent(emit.Event{
		GraphID: string(graphID),
		Msg:     "graph_dispose_pending",
		Meta:    map[string]interface{}{"handles": pending},
	})
	return e.registry.DisposeGraph(graphID, func() {
		if release != nil {
			release()
		}
		waited := time.Since(begin)
		e.metrics.disposalReleased(string(graphID), waited)
		e.emitEvent(emit.Event{
			GraphID: string(graphID),
			Msg:     "graph_disposed",
			Meta:    map[string]interface{}{"duration_ms": float64(waited) / float64(time.Millisecond)},
		})
	})
}

// Shutdown drains the engine: the scheduler stops accepting work and
// finishes queued searches, the registry waits out every tracked handle
// and pending disposal, and a final pump completes the remaining Finders.
// The run journal is owned by the host and is not closed.
//
// Shutdown is idempotent; later calls return nil immediately.
func (e *Engine[C]) Shutdown(ctx context.Context) error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := e.sched.shutdown(ctx); err != nil {
		return err
	}
	if err := e.registry.Shutdown(ctx); err != nil {
		return err
	}
	e.Pump()
	return nil
}

// execute runs one search with full instrumentation: run ID allocation,
// events, metrics, reserver invocation and journaling. Both Run and
// scheduled workers funnel through here.
func (e *Engine[C]) execute(ctx context.Context, spec searchSpec[C], res *Result[C], aborted *atomic.Bool) (searchOutcome[C], error) {
	runID := e.nextRunID()
	gid := string(spec.graphID)
	begin := time.Now()

	e.metrics.searchStarted()
	e.emitEvent(emit.Event{
		RunID:   runID,
		GraphID: gid,
		Msg:     "search_start",
		Meta: map[string]interface{}{
			"mode":   spec.mode.String(),
			"starts": len(spec.starts),
			"goals":  len(spec.goals),
		},
	})

	out, err := runSearch(ctx, spec, res, aborted)
	dur := time.Since(begin)
	status := runStatus(spec.mode, out, err)

	e.metrics.searchFinished(gid, spec.mode, status, dur, out.expanded, out.frontier)

	meta := map[string]interface{}{
		"mode":        spec.mode.String(),
		"status":      status,
		"expanded":    out.expanded,
		"duration_ms": float64(dur) / float64(time.Millisecond),
	}
	if out.found {
		meta["cost"] = res.Cost(out.goal)
	}
	if err != nil {
		meta["error"] = err.Error()
	}
	e.emitEvent(emit.Event{
		RunID:   runID,
		Step:    out.expanded,
		GraphID: gid,
		Msg:     "search_end",
		Meta:    meta,
	})

	if err == nil && out.found && spec.reserver != nil {
		spec.reserver.Reserve(res.Path(out.goal, false))
	}

	if e.journal != nil {
		rec := store.RunRecord{
			RunID:      runID,
			GraphID:    gid,
			Mode:       spec.mode.String(),
			Expanded:   out.expanded,
			Status:     status,
			StartedAt:  begin,
			FinishedAt: begin.Add(dur),
		}
		if len(spec.starts) > 0 {
			rec.Start = fmt.Sprintf("%v", spec.starts[0])
		}
		if out.found {
			rec.Goal = fmt.Sprintf("%v", out.goal)
			rec.Cost = res.Cost(out.goal)
		}
		// Best effort: journal failures never fail the search.
		_ = e.journal.SaveRun(context.WithoutCancel(ctx), rec)
	}

	return out, err
}

// runStatus maps a run outcome to its journal/metrics status label.
func runStatus[C comparable](mode Mode, out searchOutcome[C], err error) string {
	switch {
	case errors.Is(err, ErrAborted):
		return store.StatusAborted
	case err != nil:
		return store.StatusError
	case mode == ModeGoal && !out.found:
		return store.StatusNoPath
	default:
		return store.StatusCompleted
	}
}

func (e *Engine[C]) nextRunID() string {
	return fmt.Sprintf("run-%06d", e.runSeq.Add(1))
}

func (e *Engine[C]) emitEvent(event emit.Event) {
	if e.emitter != nil {
		e.emitter.Emit(event)
	}
}
