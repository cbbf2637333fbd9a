package search

import (
	"runtime"
	"time"

	"github.com/pathwise/pathwise-go/search/emit"
	"github.com/pathwise/pathwise-go/search/store"
)

// Option configures an Engine at construction time.
//
// Example:
//
//	eng := search.New[Cell](
//	    search.WithWorkers(8),
//	    search.WithEmitter(emit.NewLogEmitter(os.Stderr, false)),
//	    search.WithMetrics(search.NewPrometheusMetrics(registry)),
//	)
type Option func(*engineConfig)

// engineConfig collects options before they are applied to an Engine.
type engineConfig struct {
	workers      int
	queueDepth   int
	emitter      emit.Emitter
	metrics      *PrometheusMetrics
	journal      store.RunStore
	pumpInterval time.Duration
}

func defaultConfig() engineConfig {
	return engineConfig{
		workers:      runtime.NumCPU(),
		queueDepth:   64,
		emitter:      &emit.NullEmitter{},
		pumpInterval: 25 * time.Millisecond,
	}
}

// WithWorkers sets the size of the worker pool executing scheduled
// searches. Default: runtime.NumCPU(). Values below 1 are clamped to 1.
//
// Searches are CPU-bound, so there is rarely a reason to exceed NumCPU;
// lower it to bound how much of the host a burst of schedules may consume.
func WithWorkers(n int) Option {
	return func(cfg *engineConfig) {
		cfg.workers = n
	}
}

// WithQueueDepth sets the capacity of the scheduled-search queue.
// Default: 64.
//
// When the queue is full, Finder.Schedule blocks until a worker frees
// capacity or its context expires. This backpressure bounds memory growth
// when hosts schedule faster than searches complete.
func WithQueueDepth(n int) Option {
	return func(cfg *engineConfig) {
		cfg.queueDepth = n
	}
}

// WithEmitter sets the observability event sink. Default: NullEmitter.
//
// The engine emits search_start, search_end, search_abort,
// graph_dispose_pending and graph_disposed events; see the emit package
// for the available sinks.
func WithEmitter(emitter emit.Emitter) Option {
	return func(cfg *engineConfig) {
		if emitter != nil {
			cfg.emitter = emitter
		}
	}
}

// WithMetrics enables Prometheus metrics collection. Default: disabled.
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	eng := search.New[Cell](search.WithMetrics(search.NewPrometheusMetrics(registry)))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
func WithMetrics(metrics *PrometheusMetrics) Option {
	return func(cfg *engineConfig) {
		cfg.metrics = metrics
	}
}

// WithRunJournal persists a summary record for every finished run. The
// journal is owned by the caller and is not closed by Engine.Shutdown.
// Default: no journal.
func WithRunJournal(journal store.RunStore) Option {
	return func(cfg *engineConfig) {
		cfg.journal = journal
	}
}

// WithPumpInterval sets the cadence Engine.Serve drives Pump at.
// Default: 25ms. Has no effect on hosts calling Pump directly.
func WithPumpInterval(d time.Duration) Option {
	return func(cfg *engineConfig) {
		if d > 0 {
			cfg.pumpInterval = d
		}
	}
}
