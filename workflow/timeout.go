package workflow

import (
	"context"
	"time"
)

// runWithTimeout executes a node under the engine's per-node deadline.
//
// A timeout of zero runs the node with the caller's context unchanged.
// Deadline expiry is not turned into an engine error here: the node sees
// the cancelled context on its blocking calls and is expected to return
// its documented fallback delta, which keeps the workflow total.
func runWithTimeout[S any](ctx context.Context, node Node[S], state S, timeout time.Duration) NodeResult[S] {
	if timeout == 0 {
		return node.Run(ctx, state)
	}

	nodeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return node.Run(nodeCtx, state)
}
