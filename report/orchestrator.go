package report

import (
	"context"
	"log/slog"

	"github.com/dshills/reportflow/llm"
	"github.com/dshills/reportflow/workflow"
)

// Orchestrator is the decision core: it inspects the state and selects the
// next stage, enforcing the iteration budget.
//
// The transition rule is deterministic. An optional gateway consult exists
// for auditability, but a gateway answer inconsistent with the rule is
// discarded: the state machine's correctness never depends on model
// availability.
type Orchestrator struct {
	gateway llm.Client
	logger  *slog.Logger
	metrics *workflow.Metrics
}

// NewOrchestrator creates the orchestration node. A nil gateway skips the
// advisory consult entirely.
func NewOrchestrator(gateway llm.Client, logger *slog.Logger, metrics *workflow.Metrics) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{gateway: gateway, logger: logger, metrics: metrics}
}

// Run implements workflow.Node. Routing to the chosen stage happens through
// the engine's conditional edges on NextAction.
func (n *Orchestrator) Run(ctx context.Context, state State) workflow.NodeResult[State] {
	action, increment := decide(state)

	if n.gateway != nil {
		decision, err := llm.Invoke[orchestratorDecision](ctx, n.gateway, orchestratorPrompt(state, action))
		if err != nil {
			n.logger.Warn("orchestrator consult failed, using rule", "error", err, "action", action)
		} else if decision.NextAction != action {
			n.logger.Warn("orchestrator consult disagreed with rule, discarding",
				"consult", decision.NextAction, "rule", action)
		}
	}

	delta := State{NextAction: action}
	if increment {
		delta.IterationCount = state.IterationCount + 1
	}
	if action == ActionFinalize {
		n.metrics.ObserveIterations(state.IterationCount)
	}
	return workflow.NodeResult[State]{Delta: delta}
}

// decide applies the transition table, in strict priority order. The second
// return value reports whether choosing reflect consumed an iteration.
func decide(s State) (Action, bool) {
	switch {
	case !s.Collected():
		return ActionCollect, false
	case s.ReportDraft == "":
		return ActionDraft, false
	case len(s.ReviewNotes) == 0:
		return ActionReview, false
	case s.ReviewSeverity == SeverityLow:
		return ActionFinalize, false
	case s.IterationCount < s.MaxIterations:
		return ActionReflect, true
	default:
		return ActionFinalize, false
	}
}
