package search

import (
	"context"
	"sync"
)

// Registry tracks every scheduled Handle and gates graph disposal behind
// the handles that may still be reading the graph.
//
// A handle is tracked from Schedule until the pump cycle observes its
// completion and unregisters it. Aborted handles move to a separate set but
// stay tracked: Abort releases the caller's wait, not the worker, so the
// graph must survive until the worker actually returns.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	active    map[*Handle]GraphID
	aborted   map[*Handle]GraphID
	disposals sync.WaitGroup // in-flight deferred releases, drained by Shutdown
}

// NewRegistry creates an empty Registry. Engines create their own; exported
// for hosts that drive disposal without an Engine.
func NewRegistry() *Registry {
	return &Registry{
		active:  make(map[*Handle]GraphID),
		aborted: make(map[*Handle]GraphID),
	}
}

// Register starts tracking a handle against the graph its search reads.
func (r *Registry) Register(h *Handle, graphID GraphID) {
	r.mu.Lock()
	r.active[h] = graphID
	r.mu.Unlock()
}

// Unregister stops tracking a handle, whether active or aborted. Called by
// the pump cycle once the handle's work has observably finished.
func (r *Registry) Unregister(h *Handle) {
	r.mu.Lock()
	delete(r.active, h)
	delete(r.aborted, h)
	r.mu.Unlock()
}

// MarkAborted moves a handle from the active to the aborted set. The handle
// keeps gating disposals for its graph until Unregister.
func (r *Registry) MarkAborted(h *Handle) {
	r.mu.Lock()
	if gid, ok := r.active[h]; ok {
		delete(r.active, h)
		r.aborted[h] = gid
	}
	r.mu.Unlock()
}

// Tracked reports how many handles (active plus aborted) are being tracked.
func (r *Registry) Tracked() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active) + len(r.aborted)
}

// DisposeGraph schedules release to run once every handle currently tracked
// against graphID has completed. It never blocks: with no tracked handles
// release runs before DisposeGraph returns, otherwise a continuation fires
// it when the joint dependency completes.
//
// Snapshot semantics: handles registered after this call do not gate the
// release. Callers must stop scheduling searches against a graph before
// disposing it.
//
// The returned Handle completes when release has run.
func (r *Registry) DisposeGraph(graphID GraphID, release func()) *Handle {
	r.mu.Lock()
	var deps []*Handle
	for h, gid := range r.active {
		if gid == graphID {
			deps = append(deps, h)
		}
	}
	for h, gid := range r.aborted {
		if gid == graphID {
			deps = append(deps, h)
		}
	}
	r.disposals.Add(1)
	r.mu.Unlock()

	done := newHandle()
	if len(deps) == 0 {
		if release != nil {
			release()
		}
		done.markComplete(nil)
		r.disposals.Done()
		return done
	}

	joint := Combine(deps...)
	go func() {
		defer r.disposals.Done()
		<-joint.done
		if release != nil {
			release()
		}
		done.markComplete(nil)
	}()
	return done
}

// PendingFor reports how many tracked handles currently gate disposal of
// graphID.
func (r *Registry) PendingFor(graphID GraphID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, gid := range r.active {
		if gid == graphID {
			n++
		}
	}
	for _, gid := range r.aborted {
		if gid == graphID {
			n++
		}
	}
	return n
}

// Shutdown drains the registry: it waits for every tracked handle to
// complete and every deferred release to fire, or returns ctx.Err() if the
// context expires first.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	all := make([]*Handle, 0, len(r.active)+len(r.aborted))
	for h := range r.active {
		all = append(all, h)
	}
	for h := range r.aborted {
		all = append(all, h)
	}
	r.mu.Unlock()

	if err := Combine(all...).Wait(ctx); err != nil {
		return err
	}

	drained := make(chan struct{})
	go func() {
		r.disposals.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
