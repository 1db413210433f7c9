// Package emit provides observability events for workflow execution.
package emit

// Event is an observability event emitted during workflow execution:
// node completions, checkpoints, resumptions, and degradations.
type Event struct {
	// RunID identifies the workflow execution that emitted this event.
	RunID string

	// Step is the sequential step number (1-indexed). Zero for
	// run-level events.
	Step int

	// NodeID identifies the emitting node. Empty for run-level events.
	NodeID string

	// Msg is a short human-readable description.
	Msg string

	// Meta carries additional structured data. Common keys:
	// "duration_ms", "error", "fallback", "severity", "iteration".
	Meta map[string]interface{}
}
