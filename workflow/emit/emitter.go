package emit

// Emitter receives observability events from workflow execution.
//
// Implementations must be safe for concurrent use, must not block the
// workflow, and must not panic; delivery failures are handled internally.
type Emitter interface {
	Emit(event Event)
}
