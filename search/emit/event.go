package emit

// Event is one observability event emitted during a search's lifecycle.
//
// The engine emits events for request-level milestones:
//   - "search_start" / "search_end" around each run
//   - "search_abort" when a Finder aborts an in-flight search
//   - "graph_dispose_pending" when a disposal is gated on live handles
//   - "graph_disposed" when the backing memory is actually released
type Event struct {
	// RunID identifies the search execution that emitted this event.
	// Empty for graph-level events (disposal).
	RunID string

	// Step is the number of cells expanded when the event fired.
	// Zero for events that precede expansion.
	Step int

	// GraphID identifies the graph the event concerns.
	GraphID string

	// Msg is a short machine-matchable event name.
	Msg string

	// Meta carries additional structured data. Common keys:
	//   - "mode": "goal" or "reach"
	//   - "status": terminal status of a run
	//   - "cost": accumulated cost at the found goal
	//   - "duration_ms": run duration in milliseconds
	//   - "handles": handle count gating a disposal
	Meta map[string]interface{}
}
