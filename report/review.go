package report

import (
	"context"
	"log/slog"

	"github.com/dshills/reportflow/llm"
	"github.com/dshills/reportflow/workflow"
)

// fallbackCritiques are emitted when the gateway is unavailable. Generic by
// design and always low severity, so a gateway outage can never trap the
// workflow in a reflect loop.
var fallbackCritiques = []string{
	"Verify whether sales spikes reflect anomalies or expected seasonality.",
	"Add period-over-period context where figures allow it.",
	"Confirm that highlighted products or customers show recurring activity.",
}

// Reviewer critiques the current draft adversarially, assigning a severity
// that drives whether the orchestrator schedules a reflection pass.
type Reviewer struct {
	gateway llm.Client
	logger  *slog.Logger
	metrics *workflow.Metrics
}

// NewReviewer creates the adversarial review node.
func NewReviewer(gateway llm.Client, logger *slog.Logger, metrics *workflow.Metrics) *Reviewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reviewer{gateway: gateway, logger: logger, metrics: metrics}
}

// Run implements workflow.Node. The review always yields at least one note
// so the orchestrator can tell "reviewed" from "awaiting review".
func (n *Reviewer) Run(ctx context.Context, state State) workflow.NodeResult[State] {
	if n.gateway != nil {
		review, err := llm.Invoke[AdversarialReview](ctx, n.gateway, reviewPrompt(state.Query, state.ReportDraft, state.HasData()))
		if err == nil {
			notes := review.ReviewNotes
			if len(notes) == 0 {
				notes = []string{"No blocking issues found."}
			}
			return workflow.NodeResult[State]{
				Delta: State{ReviewNotes: notes, ReviewSeverity: normalizeSeverity(review.Severity)},
				Route: workflow.Goto(NodeOrchestrate),
			}
		}
		n.logger.Warn("adversarial review failed, using generic critiques", "error", err)
		n.metrics.IncFallback(NodeReview, "gateway")
	}

	notes := make([]string, len(fallbackCritiques))
	copy(notes, fallbackCritiques)
	return workflow.NodeResult[State]{
		Delta: State{ReviewNotes: notes, ReviewSeverity: SeverityLow},
		Route: workflow.Goto(NodeOrchestrate),
	}
}

// normalizeSeverity maps unknown severities to low. Escalation requires an
// explicit, recognized verdict.
func normalizeSeverity(s Severity) Severity {
	switch s {
	case SeverityMedium, SeverityHigh:
		return s
	default:
		return SeverityLow
	}
}
