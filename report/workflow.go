package report

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/reportflow/collect"
	"github.com/dshills/reportflow/llm"
	"github.com/dshills/reportflow/workflow"
	"github.com/dshills/reportflow/workflow/emit"
	"github.com/dshills/reportflow/workflow/store"
)

// Node IDs of the report workflow.
const (
	NodeSecurity    = "security_check"
	NodeOrchestrate = "orchestrate"
	NodeCollect     = "collect"
	NodeDraft       = "draft"
	NodeReview      = "review"
	NodeReflect     = "reflect"
	NodeFinalize    = "finalize"
)

// DefaultMaxSteps bounds a single run. A well-formed run needs at most
// 3 + 2*maxIterations + 2 node executions plus orchestrator passes; 64
// leaves generous headroom without allowing a runaway loop.
const DefaultMaxSteps = 64

// Deps carries everything needed to assemble the report workflow.
type Deps struct {
	// Gateway is the LLM client shared by all reasoning nodes. A nil
	// gateway runs every node on its deterministic fallback, which keeps
	// the workflow usable in tests and degraded deployments.
	Gateway llm.Client

	// Collectors run unconditionally during the collect stage.
	Collectors []collect.Collector

	// Optional collectors run only when their activation predicate
	// matches the query.
	Optional []OptionalCollector

	// Store persists state after every node transition.
	Store store.Store[State]

	// Emitter receives progress events. Nil disables emission.
	Emitter emit.Emitter

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics, when non-nil, records step latency, run outcomes, and
	// node fallbacks.
	Metrics *workflow.Metrics

	// MaxSteps overrides DefaultMaxSteps when positive.
	MaxSteps int

	// NodeTimeout bounds each node execution. Zero means no deadline.
	NodeTimeout time.Duration
}

// Build assembles the report workflow engine.
//
// The security screener is the entry point; its outcome routes either
// straight to finalization (flagged) or into the orchestrator loop. Work
// nodes return to the orchestrator, which routes by its NextAction decision
// until finalization stops the run.
func Build(deps Deps) (*workflow.Engine[State], error) {
	if deps.Store == nil {
		deps.Store = store.NewMemStore[State]()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	maxSteps := deps.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	eng := workflow.New(Reduce, deps.Store, deps.Emitter, workflow.Options{
		MaxSteps:           maxSteps,
		DefaultNodeTimeout: deps.NodeTimeout,
		Metrics:            deps.Metrics,
	})

	nodes := map[string]workflow.Node[State]{
		NodeSecurity:    NewScreener(deps.Gateway, deps.Logger, deps.Metrics),
		NodeOrchestrate: NewOrchestrator(deps.Gateway, deps.Logger, deps.Metrics),
		NodeCollect:     NewCollect(deps.Collectors, deps.Optional, deps.Logger),
		NodeDraft:       NewDrafter(deps.Gateway, deps.Logger, deps.Metrics),
		NodeReview:      NewReviewer(deps.Gateway, deps.Logger, deps.Metrics),
		NodeReflect:     NewReflector(deps.Gateway, deps.Logger, deps.Metrics),
		NodeFinalize:    NewFinalizer(deps.Gateway, deps.Logger, deps.Metrics),
	}
	for id, node := range nodes {
		if err := eng.Add(id, node); err != nil {
			return nil, fmt.Errorf("failed to add node %s: %w", id, err)
		}
	}
	if err := eng.StartAt(NodeSecurity); err != nil {
		return nil, err
	}

	// Binary routing after security: flagged requests skip everything.
	edges := []struct {
		from, to string
		when     workflow.Predicate[State]
	}{
		{NodeSecurity, NodeFinalize, func(s State) bool { return s.SecurityFlag }},
		{NodeSecurity, NodeOrchestrate, nil},

		{NodeOrchestrate, NodeCollect, actionIs(ActionCollect)},
		{NodeOrchestrate, NodeDraft, actionIs(ActionDraft)},
		{NodeOrchestrate, NodeReview, actionIs(ActionReview)},
		{NodeOrchestrate, NodeReflect, actionIs(ActionReflect)},
		{NodeOrchestrate, NodeFinalize, nil},
	}
	for _, e := range edges {
		if err := eng.Connect(e.from, e.to, e.when); err != nil {
			return nil, fmt.Errorf("failed to connect %s -> %s: %w", e.from, e.to, err)
		}
	}

	return eng, nil
}

func actionIs(action Action) workflow.Predicate[State] {
	return func(s State) bool { return s.NextAction == action }
}
