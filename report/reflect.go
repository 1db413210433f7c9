package report

import (
	"context"
	"log/slog"

	"github.com/dshills/reportflow/llm"
	"github.com/dshills/reportflow/workflow"
)

// Reflector rewrites the draft to address the pending critiques.
//
// Its delta always clears the review notes (empty non-nil slice), forcing
// the orchestrator to schedule a fresh review of the new draft rather than
// re-finalizing stale criticism. Gateway failure passes the draft through
// unchanged but still clears the notes so the loop re-reviews instead of
// stalling.
type Reflector struct {
	gateway llm.Client
	logger  *slog.Logger
	metrics *workflow.Metrics
}

// NewReflector creates the reflection node.
func NewReflector(gateway llm.Client, logger *slog.Logger, metrics *workflow.Metrics) *Reflector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reflector{gateway: gateway, logger: logger, metrics: metrics}
}

// Run implements workflow.Node.
func (n *Reflector) Run(ctx context.Context, state State) workflow.NodeResult[State] {
	cleared := []string{}

	if n.gateway != nil {
		patch, err := llm.Invoke[ReflectionPatch](ctx, n.gateway, reflectPrompt(state.ReportDraft, state.ReviewNotes))
		if err == nil && patch.ImprovedDraft != "" {
			return workflow.NodeResult[State]{
				Delta: State{ReportDraft: patch.ImprovedDraft, ReviewNotes: cleared},
				Route: workflow.Goto(NodeOrchestrate),
			}
		}
		if err != nil {
			n.logger.Warn("reflection failed, passing draft through", "error", err)
		}
		n.metrics.IncFallback(NodeReflect, "gateway")
	}

	return workflow.NodeResult[State]{
		Delta: State{ReportDraft: state.ReportDraft, ReviewNotes: cleared},
		Route: workflow.Goto(NodeOrchestrate),
	}
}
