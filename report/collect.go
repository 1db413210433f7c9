package report

import (
	"context"
	"log/slog"

	"github.com/dshills/reportflow/collect"
	"github.com/dshills/reportflow/workflow"
)

// OptionalCollector is a collector that opts in per query.
type OptionalCollector interface {
	collect.Collector
	Activates(query string) bool
}

// Collect runs the data collectors and accumulates their results.
//
// Base collectors run unconditionally; optional collectors run only when
// their activation predicate matches the query. Collector results are total,
// so this node never errors.
type Collect struct {
	base     []collect.Collector
	optional []OptionalCollector
	logger   *slog.Logger
}

// NewCollect creates the collection node.
func NewCollect(base []collect.Collector, optional []OptionalCollector, logger *slog.Logger) *Collect {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collect{base: base, optional: optional, logger: logger}
}

// Run implements workflow.Node.
func (n *Collect) Run(ctx context.Context, state State) workflow.NodeResult[State] {
	results := make(map[string]collect.Result)

	for _, c := range n.base {
		result := c.Collect(ctx, state.Query, nil)
		results[result.Source] = result
		if result.Empty {
			n.logger.Info("collector returned no data", "source", result.Source)
		}
	}

	for _, c := range n.optional {
		if !c.Activates(state.Query) {
			continue
		}
		result := c.Collect(ctx, state.Query, nil)
		results[result.Source] = result
	}

	return workflow.NodeResult[State]{
		Delta: State{RetrievedData: results},
		Route: workflow.Goto(NodeOrchestrate),
	}
}
