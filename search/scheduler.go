package search

import (
	"context"
	"sync"
)

// scheduler is the bounded worker pool that executes scheduled searches.
//
// Tasks are submitted to a buffered channel: when the queue is full, submit
// blocks until a worker frees capacity or the context expires, providing
// natural backpressure against hosts that schedule faster than they search.
type scheduler struct {
	tasks chan func()
	quit  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

func newScheduler(workers, queueDepth int) *scheduler {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < 0 {
		queueDepth = 0
	}
	s := &scheduler{
		tasks: make(chan func(), queueDepth),
		quit:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

func (s *scheduler) worker() {
	defer s.wg.Done()
	for {
		select {
		case task := <-s.tasks:
			task()
		case <-s.quit:
			// Drain queued tasks so accepted work always executes.
			for {
				select {
				case task := <-s.tasks:
					task()
				default:
					return
				}
			}
		}
	}
}

// submit enqueues a task. It blocks while the queue is full and fails with
// ErrSchedulerClosed once shutdown has begun.
func (s *scheduler) submit(ctx context.Context, task func()) error {
	select {
	case <-s.quit:
		return ErrSchedulerClosed
	default:
	}
	select {
	case s.tasks <- task:
		return nil
	case <-s.quit:
		return ErrSchedulerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shutdown stops accepting new tasks, lets workers drain the queue and
// finish in-flight tasks, and waits for them up to ctx.
func (s *scheduler) shutdown(ctx context.Context) error {
	s.once.Do(func() { close(s.quit) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
