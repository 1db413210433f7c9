package report

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dshills/reportflow/llm"
	"github.com/dshills/reportflow/workflow"
)

// denyList drives the deterministic fallback scan when the gateway is
// unavailable. Matched case-insensitively as substrings.
var denyList = []string{
	"drop table",
	";--",
	"jailbreak",
	"ignore instructions",
	"bypass",
	"hack",
}

// Screener classifies the incoming query as safe or unsafe. It is the entry
// node of the workflow; a flagged query routes straight to finalization.
type Screener struct {
	gateway llm.Client
	logger  *slog.Logger
	metrics *workflow.Metrics
}

// NewScreener creates the security screening node.
func NewScreener(gateway llm.Client, logger *slog.Logger, metrics *workflow.Metrics) *Screener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Screener{gateway: gateway, logger: logger, metrics: metrics}
}

// Run implements workflow.Node. An empty query short-circuits safe without a
// gateway call. Gateway failure degrades to the deny-list scan; the node
// never errors.
func (n *Screener) Run(ctx context.Context, state State) workflow.NodeResult[State] {
	if strings.TrimSpace(state.Query) == "" {
		return workflow.NodeResult[State]{
			Delta: State{SecurityNotes: "Empty query; nothing to screen."},
		}
	}

	if n.gateway != nil {
		assessment, err := llm.Invoke[SecurityAssessment](ctx, n.gateway, securityPrompt(state.Query))
		if err == nil {
			notes := assessment.Reasoning
			if notes == "" {
				notes = "Input appears safe."
			}
			if assessment.Blocked() && len(assessment.ThreatsDetected) > 0 {
				notes += " Threats: " + strings.Join(assessment.ThreatsDetected, ", ")
			}
			return workflow.NodeResult[State]{
				Delta: State{SecurityFlag: assessment.Blocked(), SecurityNotes: notes},
			}
		}
		n.logger.Warn("security assessment failed, using deny-list scan", "error", err)
		n.metrics.IncFallback(NodeSecurity, "gateway")
	}

	flagged, notes := denyListScan(state.Query)
	return workflow.NodeResult[State]{
		Delta: State{SecurityFlag: flagged, SecurityNotes: notes},
	}
}

// denyListScan is the deterministic fallback screener. Total: always
// produces a verdict and a note.
func denyListScan(query string) (bool, string) {
	lower := strings.ToLower(query)
	for _, marker := range denyList {
		if strings.Contains(lower, marker) {
			return true, "Potential prompt injection or jailbreak indicators detected."
		}
	}
	return false, "Input appears safe."
}
