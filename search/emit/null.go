package emit

// NullEmitter discards all events. It is the default when a host does not
// configure observability; it has zero overhead and is safe for concurrent
// use.
type NullEmitter struct{}

// NewNullEmitter creates a NullEmitter.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event.
func (n *NullEmitter) Emit(event Event) {}
