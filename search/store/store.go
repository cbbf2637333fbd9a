// Package store persists summaries of completed searches.
//
// The engine writes one RunRecord per finished run when a journal is
// configured via search.WithRunJournal. Records describe the request and
// its outcome; they never contain graph data, so journaling stays within
// the engine's in-process contract.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested run ID does not exist.
var ErrNotFound = errors.New("not found")

// Terminal statuses recorded in a RunRecord.
const (
	// StatusCompleted marks a goal-directed run that found a path, or a
	// reach run that exhausted its frontier/budget normally.
	StatusCompleted = "completed"

	// StatusNoPath marks a goal-directed run whose goals were unreachable.
	StatusNoPath = "no_path"

	// StatusAborted marks a run cancelled via Finder.Abort.
	StatusAborted = "aborted"

	// StatusError marks a run that failed validation or was cancelled by
	// its context.
	StatusError = "error"
)

// RunRecord summarizes one search run.
type RunRecord struct {
	// RunID uniquely identifies the run.
	RunID string

	// GraphID identifies the graph the run searched.
	GraphID string

	// Mode is "goal" or "reach".
	Mode string

	// Start and Goal are display forms of the first start cell and, for
	// goal mode, the reached goal. Goal is empty for reach runs and runs
	// that found no path.
	Start string
	Goal  string

	// Cost is the accumulated cost at the reached goal; zero when no goal
	// was reached.
	Cost float64

	// Expanded is the number of cells the run expanded.
	Expanded int

	// Status is one of the Status* constants.
	Status string

	StartedAt  time.Time
	FinishedAt time.Time
}

// RunStore persists run records.
//
// Implementations must be safe for concurrent use: scheduled searches
// journal their records from worker goroutines.
type RunStore interface {
	// SaveRun persists one record. Saving an existing RunID replaces it.
	SaveRun(ctx context.Context, rec RunRecord) error

	// LoadRun retrieves a record by run ID. Returns ErrNotFound if the
	// run was never journaled.
	LoadRun(ctx context.Context, runID string) (RunRecord, error)

	// ListRuns returns up to limit records for a graph, most recent
	// first. An empty graphID lists runs across all graphs.
	ListRuns(ctx context.Context, graphID string, limit int) ([]RunRecord, error)

	// Close releases backend resources. Operations after Close fail.
	Close() error
}
