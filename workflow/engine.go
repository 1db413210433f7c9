package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/reportflow/workflow/emit"
	"github.com/dshills/reportflow/workflow/store"
)

// Reducer merges a partial state update into the current state.
//
// The reducer decides the merge semantics per field: set-once fields ignore
// later writes, sticky flags never reset, accumulating maps merge keys, and
// so on. It must be deterministic.
type Reducer[S any] func(prev, delta S) S

// Engine drives a workflow of nodes connected by conditional edges.
//
// Execution is strictly sequential per run: a node completes, its delta is
// merged, the state is checkpointed, and only then is the next transition
// evaluated. Distinct runs may execute concurrently; the engine itself
// holds no per-run mutable state.
//
// Example:
//
//	eng := workflow.New(reducer, store.NewMemStore[State](), emitter, workflow.Options{
//		MaxSteps:           32,
//		DefaultNodeTimeout: 30 * time.Second,
//	})
//	eng.Add("screen", screenNode)
//	eng.StartAt("screen")
//	final, err := eng.Run(ctx, "thread-42", initial)
type Engine[S any] struct {
	mu sync.RWMutex

	reducer   Reducer[S]
	nodes     map[string]Node[S]
	edges     []Edge[S]
	startNode string

	store   store.Store[S]
	emitter emit.Emitter
	opts    Options
}

// Options configures engine execution.
type Options struct {
	// MaxSteps caps the number of node executions per run. Zero disables
	// the cap. This is a backstop against routing mistakes; well-formed
	// workflows terminate on their own.
	MaxSteps int

	// DefaultNodeTimeout bounds each node execution. Zero means no
	// per-node deadline. Nodes observe expiry through their context and
	// are expected to degrade to their fallback output.
	DefaultNodeTimeout time.Duration

	// Metrics, when non-nil, records step latency and run outcomes.
	Metrics *Metrics
}

// New creates an Engine.
//
// The reducer and store are required for Run; the emitter is optional.
// Validation happens on Run so construction order stays flexible.
func New[S any](reducer Reducer[S], st store.Store[S], emitter emit.Emitter, opts Options) *Engine[S] {
	return &Engine[S]{
		reducer: reducer,
		nodes:   make(map[string]Node[S]),
		store:   st,
		emitter: emitter,
		opts:    opts,
	}
}

// Add registers a node under a unique ID.
func (e *Engine[S]) Add(nodeID string, node Node[S]) error {
	if nodeID == "" {
		return &EngineError{Message: "node ID cannot be empty"}
	}
	if node == nil {
		return &EngineError{Message: "node cannot be nil"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; exists {
		return &EngineError{Message: "duplicate node ID: " + nodeID, Code: CodeDuplicateNode}
	}
	e.nodes[nodeID] = node
	return nil
}

// StartAt sets the entry node. The node must already be registered.
func (e *Engine[S]) StartAt(nodeID string) error {
	if nodeID == "" {
		return &EngineError{Message: "start node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; !exists {
		return &EngineError{Message: "start node does not exist: " + nodeID, Code: CodeNodeNotFound}
	}
	e.startNode = nodeID
	return nil
}

// Connect adds an edge from one node to another. A nil predicate makes the
// edge unconditional. Edges are evaluated in registration order; node
// explicit routing takes precedence.
func (e *Engine[S]) Connect(from, to string, predicate Predicate[S]) error {
	if from == "" {
		return &EngineError{Message: "from node ID cannot be empty"}
	}
	if to == "" {
		return &EngineError{Message: "to node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.edges = append(e.edges, Edge[S]{From: from, To: to, When: predicate})
	return nil
}

// Run executes the workflow from the start node until a terminal route.
//
// After every node the merged state is persisted under runID, so the latest
// state of an interrupted run can be recovered via the store.
func (e *Engine[S]) Run(ctx context.Context, runID string, initial S) (S, error) {
	var zero S

	if e.reducer == nil {
		return zero, &EngineError{Message: "reducer is required", Code: CodeMissingReducer}
	}
	if e.store == nil {
		return zero, &EngineError{Message: "store is required", Code: CodeMissingStore}
	}

	e.mu.RLock()
	startNode := e.startNode
	_, startExists := e.nodes[startNode]
	e.mu.RUnlock()

	if startNode == "" {
		return zero, &EngineError{Message: "start node not set (call StartAt before Run)", Code: CodeNoStartNode}
	}
	if !startExists {
		return zero, &EngineError{Message: "start node does not exist: " + startNode, Code: CodeNodeNotFound}
	}

	currentState := initial
	currentNode := startNode
	step := 0

	for {
		step++

		if e.opts.MaxSteps > 0 && step > e.opts.MaxSteps {
			e.recordRun("max_steps")
			return zero, &EngineError{Message: "workflow exceeded MaxSteps limit", Code: CodeMaxStepsExceeded}
		}

		select {
		case <-ctx.Done():
			e.recordRun("canceled")
			return zero, ctx.Err()
		default:
		}

		e.mu.RLock()
		nodeImpl, exists := e.nodes[currentNode]
		e.mu.RUnlock()

		if !exists {
			return zero, &EngineError{Message: "node not found during execution: " + currentNode, Code: CodeNodeNotFound}
		}

		started := time.Now()
		result := runWithTimeout(ctx, nodeImpl, currentState, e.opts.DefaultNodeTimeout)
		elapsed := time.Since(started)

		if result.Err != nil {
			if e.opts.Metrics != nil {
				e.opts.Metrics.ObserveStep(currentNode, elapsed, "error")
			}
			e.recordRun("error")
			return zero, result.Err
		}
		if e.opts.Metrics != nil {
			e.opts.Metrics.ObserveStep(currentNode, elapsed, "success")
		}

		currentState = e.reducer(currentState, result.Delta)

		if err := e.store.SaveStep(ctx, runID, step, currentNode, currentState); err != nil {
			return zero, &EngineError{Message: "failed to save step: " + err.Error(), Code: CodeStoreFailure}
		}

		if e.emitter != nil {
			e.emitter.Emit(emit.Event{
				RunID:  runID,
				Step:   step,
				NodeID: currentNode,
				Msg:    "node completed",
				Meta:   map[string]interface{}{"duration_ms": elapsed.Milliseconds()},
			})
		}

		if result.Route.Terminal {
			e.recordRun("completed")
			return currentState, nil
		}
		if result.Route.To != "" {
			currentNode = result.Route.To
			continue
		}

		nextNode := e.evaluateEdges(currentNode, currentState)
		if nextNode == "" {
			e.recordRun("no_route")
			return zero, &EngineError{Message: "no valid route from node: " + currentNode, Code: CodeNoRoute}
		}
		currentNode = nextNode
	}
}

// Resume loads the latest persisted state for runID and continues execution
// at the given node under a new run ID.
func (e *Engine[S]) Resume(ctx context.Context, runID, newRunID, startNode string) (S, error) {
	var zero S

	latest, _, err := e.store.LoadLatest(ctx, runID)
	if err != nil {
		return zero, &EngineError{Message: "cannot resume: run state not found: " + err.Error(), Code: CodeNodeNotFound}
	}

	e.mu.RLock()
	_, exists := e.nodes[startNode]
	e.mu.RUnlock()
	if !exists {
		return zero, &EngineError{Message: "resume start node does not exist: " + startNode, Code: CodeNodeNotFound}
	}

	if e.emitter != nil {
		e.emitter.Emit(emit.Event{
			RunID:  newRunID,
			NodeID: startNode,
			Msg:    "resuming from run: " + runID,
		})
	}

	saved := e.startNode
	e.mu.Lock()
	e.startNode = startNode
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.startNode = saved
		e.mu.Unlock()
	}()

	return e.Run(ctx, newRunID, latest)
}

// evaluateEdges returns the destination of the first matching edge out of
// fromNode, or "" when none match.
func (e *Engine[S]) evaluateEdges(fromNode string, state S) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, edge := range e.edges {
		if edge.From != fromNode {
			continue
		}
		if edge.When == nil || edge.When(state) {
			return edge.To
		}
	}
	return ""
}

func (e *Engine[S]) recordRun(outcome string) {
	if e.opts.Metrics != nil {
		e.opts.Metrics.IncRun(outcome)
	}
}
