package search

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestDisposeGraphWaitsForDelayedHandle(t *testing.T) {
	reg := NewRegistry()
	finished := newHandle()
	delayed := newHandle()
	reg.Register(finished, "g1")
	reg.Register(delayed, "g1")
	finished.markComplete(nil)

	var delayedDone, releasedAfter atomic.Bool
	released := reg.DisposeGraph("g1", func() {
		releasedAfter.Store(delayedDone.Load())
	})

	// The release continuation must not have fired while the delayed
	// handle is outstanding.
	select {
	case <-released.done:
		t.Fatal("graph released before the delayed handle completed")
	case <-time.After(20 * time.Millisecond):
	}

	delayedDone.Store(true)
	delayed.markComplete(nil)

	if err := released.Wait(context.Background()); err != nil {
		t.Fatalf("disposal handle Wait() error = %v", err)
	}
	if !releasedAfter.Load() {
		t.Error("release fired before the delayed handle's completion")
	}
}

func TestDisposeGraphWithNoHandlesReleasesImmediately(t *testing.T) {
	reg := NewRegistry()
	releasedCount := 0
	done := reg.DisposeGraph("empty", func() { releasedCount++ })

	if !done.Done() {
		t.Error("disposal with no tracked handles must complete synchronously")
	}
	if releasedCount != 1 {
		t.Errorf("release ran %d times, want 1", releasedCount)
	}
}

func TestDisposeGraphIgnoresOtherGraphs(t *testing.T) {
	reg := NewRegistry()
	other := newHandle()
	reg.Register(other, "other-graph")

	done := reg.DisposeGraph("g1", nil)
	if !done.Done() {
		t.Error("handles of unrelated graphs must not gate the disposal")
	}
	other.markComplete(nil)
}

func TestAbortedHandleGatesDisposal(t *testing.T) {
	reg := NewRegistry()
	h := newHandle()
	reg.Register(h, "g1")
	reg.MarkAborted(h)

	if got := reg.Tracked(); got != 1 {
		t.Fatalf("Tracked() = %d after MarkAborted, want 1", got)
	}
	if got := reg.PendingFor("g1"); got != 1 {
		t.Fatalf("PendingFor(g1) = %d, want 1", got)
	}

	done := reg.DisposeGraph("g1", nil)
	if done.Done() {
		t.Fatal("aborted-but-unfinished handle must gate disposal")
	}

	h.markComplete(nil)
	if err := done.Wait(context.Background()); err != nil {
		t.Fatalf("disposal handle Wait() error = %v", err)
	}
}

func TestDisposeGraphSnapshotExcludesLaterRegistrations(t *testing.T) {
	reg := NewRegistry()
	before := newHandle()
	reg.Register(before, "g1")

	done := reg.DisposeGraph("g1", nil)

	// Registered after the snapshot: by contract, not covered.
	after := newHandle()
	reg.Register(after, "g1")

	before.markComplete(nil)
	if err := done.Wait(context.Background()); err != nil {
		t.Fatalf("disposal handle Wait() error = %v", err)
	}
	after.markComplete(nil)
}

func TestUnregisterStopsGating(t *testing.T) {
	reg := NewRegistry()
	h := newHandle()
	reg.Register(h, "g1")
	h.markComplete(nil)
	reg.Unregister(h)

	if got := reg.Tracked(); got != 0 {
		t.Fatalf("Tracked() = %d after Unregister, want 0", got)
	}
	if done := reg.DisposeGraph("g1", nil); !done.Done() {
		t.Error("unregistered handle must not gate disposal")
	}
}

func TestRegistryShutdownDrains(t *testing.T) {
	reg := NewRegistry()
	h := newHandle()
	reg.Register(h, "g1")

	var released atomic.Bool
	reg.DisposeGraph("g1", func() { released.Store(true) })

	go func() {
		time.Sleep(10 * time.Millisecond)
		h.markComplete(nil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := reg.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !released.Load() {
		t.Error("Shutdown returned before the pending disposal fired")
	}
}

func TestRegistryShutdownHonorsContext(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newHandle(), "g1") // never completes

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := reg.Shutdown(ctx); err != context.DeadlineExceeded {
		t.Errorf("Shutdown() error = %v, want DeadlineExceeded", err)
	}
}
