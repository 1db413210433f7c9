package report

import (
	"context"
	"log/slog"

	"github.com/dshills/reportflow/llm"
	"github.com/dshills/reportflow/workflow"
)

// RefusalText is the fixed answer for flagged requests. It is the only
// user-visible failure the workflow produces.
const RefusalText = "This request appears unsafe. I cannot proceed. Please rephrase your question safely."

// fallbackRecommendation is appended to the draft when the gateway cannot
// polish the final report but reviewer notes are still pending.
const fallbackRecommendation = " Recommendation: consider seasonality and customer recurrence when acting on these figures."

// Finalizer produces the user-facing answer. It is the terminal node and
// never fails: a flagged request gets the fixed refusal, a gateway outage
// gets the current draft.
type Finalizer struct {
	gateway llm.Client
	logger  *slog.Logger
	metrics *workflow.Metrics
}

// NewFinalizer creates the finalization node.
func NewFinalizer(gateway llm.Client, logger *slog.Logger, metrics *workflow.Metrics) *Finalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finalizer{gateway: gateway, logger: logger, metrics: metrics}
}

// Run implements workflow.Node.
func (n *Finalizer) Run(ctx context.Context, state State) workflow.NodeResult[State] {
	if state.SecurityFlag {
		return workflow.NodeResult[State]{
			Delta: State{FinalReport: RefusalText},
			Route: workflow.Stop(),
		}
	}

	if n.gateway != nil {
		result, err := llm.Invoke[struct {
			FinalReport string `json:"final_report"`
		}](ctx, n.gateway, finalizePrompt(state.Query, state.ReportDraft, state.ReviewNotes))
		if err == nil && result.FinalReport != "" {
			return workflow.NodeResult[State]{
				Delta: State{FinalReport: result.FinalReport},
				Route: workflow.Stop(),
			}
		}
		if err != nil {
			n.logger.Warn("final synthesis failed, returning draft", "error", err)
		}
		n.metrics.IncFallback(NodeFinalize, "gateway")
	}

	final := state.ReportDraft
	if len(state.ReviewNotes) > 0 {
		final += fallbackRecommendation
	}
	if final == "" {
		final = "No report could be generated for this request."
	}
	return workflow.NodeResult[State]{
		Delta: State{FinalReport: final},
		Route: workflow.Stop(),
	}
}
