package workflow

import "context"

// Node is a processing stage in a workflow.
//
// A node receives the current state, performs its work (an LLM call, a
// data-collection round, a pure state transform) and returns a NodeResult
// carrying a partial state update plus a routing decision.
//
// Nodes must be total: failures of external collaborators are expected to
// degrade into a well-formed Delta, not into Err. Err is reserved for
// programming errors that should abort the run.
//
// Type parameter S is the state type shared across the workflow.
type Node[S any] interface {
	// Run executes the node against the given state. The context carries
	// the per-node deadline configured on the engine.
	Run(ctx context.Context, state S) NodeResult[S]
}

// NodeResult is the output of one node execution.
type NodeResult[S any] struct {
	// Delta is the partial state update produced by this node. It is
	// merged into the current state by the engine's reducer.
	Delta S

	// Route selects the next hop. Use Stop() for terminal nodes,
	// Goto(id) for explicit routing, or the zero value to defer to the
	// engine's conditional edges.
	Route Next

	// Err aborts the run. Degraded outcomes belong in Delta, not here.
	Err error
}

// Next is a routing decision made by a node.
//
// The zero value defers routing to edge evaluation.
type Next struct {
	// To names the next node to execute.
	To string

	// Terminal stops the workflow.
	Terminal bool
}

// Stop returns a Next that terminates the workflow.
func Stop() Next {
	return Next{Terminal: true}
}

// Goto returns a Next that routes to the named node.
func Goto(nodeID string) Next {
	return Next{To: nodeID}
}

// NodeFunc adapts a plain function to the Node interface.
type NodeFunc[S any] func(ctx context.Context, state S) NodeResult[S]

// Run implements Node.
func (f NodeFunc[S]) Run(ctx context.Context, state S) NodeResult[S] {
	return f(ctx, state)
}
