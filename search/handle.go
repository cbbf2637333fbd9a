package search

import (
	"context"
	"sync"
)

// Handle is an opaque token for one scheduled unit of work.
//
// A Handle distinguishes two events:
//
//   - completion: the underlying worker task has finished executing.
//     Done reports this, and it is what the Registry and Combine observe.
//   - release: the caller's wait is over. Release normally coincides with
//     completion, but Finder.Abort releases the caller immediately while
//     the worker may still be running.
//
// Done and Wait are safe to call from any goroutine; Handles are the only
// engine objects designed for cross-goroutine reads.
type Handle struct {
	done     chan struct{} // closed when the worker task finishes
	released chan struct{} // closed on completion or abort

	mu       sync.Mutex
	err      error
	complete bool
	freed    bool
}

func newHandle() *Handle {
	return &Handle{
		done:     make(chan struct{}),
		released: make(chan struct{}),
	}
}

// Done reports whether the underlying work has finished executing. An
// aborted-but-still-running search reports false until its worker returns.
func (h *Handle) Done() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the caller's wait is released: the work completed, the
// owning Finder aborted it, or ctx expired. It returns ErrAborted for an
// aborted search, the search error for a failed one, and nil otherwise.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.released:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// markComplete records the worker outcome and closes both channels.
// Idempotent with respect to an earlier release.
func (h *Handle) markComplete(err error) {
	h.mu.Lock()
	if !h.complete {
		h.complete = true
		if !h.freed {
			h.err = err
			h.freed = true
			close(h.released)
		}
		close(h.done)
	}
	h.mu.Unlock()
}

// release frees the caller's wait without marking the work complete.
// Used by Abort; the worker later calls markComplete as usual.
func (h *Handle) release(err error) {
	h.mu.Lock()
	if !h.freed {
		h.err = err
		h.freed = true
		close(h.released)
	}
	h.mu.Unlock()
}

// Combine builds a joint dependency: a Handle whose completion is observed
// only once every constituent handle has completed. The joint handle's Wait
// returns nil regardless of constituent errors; it models "all work
// observably finished", not success.
//
// Combining zero handles yields an already-complete Handle.
func Combine(handles ...*Handle) *Handle {
	joint := newHandle()
	if len(handles) == 0 {
		joint.markComplete(nil)
		return joint
	}
	// Snapshot semantics: only the handles passed here are covered.
	deps := make([]*Handle, len(handles))
	copy(deps, handles)
	go func() {
		for _, h := range deps {
			<-h.done
		}
		joint.markComplete(nil)
	}()
	return joint
}
