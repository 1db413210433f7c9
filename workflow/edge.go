// Package workflow provides a staged, checkpointed workflow engine for
// multi-step report generation pipelines.
package workflow

// Edge is a possible transition between two nodes.
//
// Edges are evaluated in registration order when a node does not route
// explicitly. An edge with a nil predicate always matches; otherwise the
// edge is taken when its predicate returns true for the current state.
// First match wins.
//
// Type parameter S is the state type inspected by predicates.
type Edge[S any] struct {
	// From is the source node ID.
	From string

	// To is the destination node ID.
	To string

	// When guards the transition. Nil means unconditional.
	When Predicate[S]
}

// Predicate evaluates state to decide whether an edge is taken.
//
// Predicates must be pure: deterministic and side-effect free, since the
// engine may evaluate several of them per step.
type Predicate[S any] func(state S) bool
