package emit

// Emitter receives observability events from the search engine.
//
// Implementations should be:
//   - Non-blocking: events fire on the search hot path and from workers
//   - Thread-safe: concurrent searches emit concurrently
//   - Resilient: an emitter failure must never fail a search
//
// Emit must not panic; backend errors should be handled internally.
type Emitter interface {
	Emit(event Event)
}
