package search

import (
	"errors"
	"fmt"
)

// ErrNilGraph indicates a Finder was run without a graph configured.
var ErrNilGraph = errors.New("pathwise: no graph configured")

// ErrNoStarts indicates a Finder was run without any start cell.
var ErrNoStarts = errors.New("pathwise: no start cells configured")

// ErrNoGoals indicates a goal-directed (ModeGoal) search was run with an
// empty goal set. Reach-mode searches accept an empty goal set.
var ErrNoGoals = errors.New("pathwise: goal-directed search requires at least one goal")

// ErrNotCompleted indicates the Finder's Result was read outside the
// Completed state.
var ErrNotCompleted = errors.New("pathwise: finder has no completed result")

// ErrNotRunning indicates Abort was called on a Finder that has no search
// in flight.
var ErrNotRunning = errors.New("pathwise: finder is not running")

// ErrAborted is returned from Handle.Wait when the owning Finder aborted
// the search before the worker finished.
var ErrAborted = errors.New("pathwise: search aborted")

// ErrSchedulerClosed indicates work was submitted after Engine.Shutdown.
var ErrSchedulerClosed = errors.New("pathwise: scheduler is closed")

// ConfigLockedError is returned by Finder setters invoked while the Finder
// is Running or Completed. It is always recoverable: call Clear to return
// the Finder to Idle, then retry the setter.
type ConfigLockedError struct {
	// Setting names the configuration field the caller attempted to mutate.
	Setting string

	// State is the Finder state at the time of the call.
	State State
}

func (e *ConfigLockedError) Error() string {
	return fmt.Sprintf("pathwise: cannot set %s while finder is %s", e.Setting, e.State)
}

// lockedErr builds the ConfigLockedError for a rejected setter call.
func lockedErr(setting string, state State) error {
	return &ConfigLockedError{Setting: setting, State: state}
}
