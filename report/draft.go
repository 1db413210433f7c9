package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dshills/reportflow/collect"
	"github.com/dshills/reportflow/llm"
	"github.com/dshills/reportflow/workflow"
)

// Drafter turns collected data into a prose report draft with key points.
type Drafter struct {
	gateway llm.Client
	logger  *slog.Logger
	metrics *workflow.Metrics
}

// NewDrafter creates the drafting node.
func NewDrafter(gateway llm.Client, logger *slog.Logger, metrics *workflow.Metrics) *Drafter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Drafter{gateway: gateway, logger: logger, metrics: metrics}
}

// Run implements workflow.Node. Gateway failure degrades to a template that
// interpolates whatever figures the collectors produced.
func (n *Drafter) Run(ctx context.Context, state State) workflow.NodeResult[State] {
	if n.gateway != nil {
		data := make(map[string]any, len(state.RetrievedData))
		for source, result := range state.RetrievedData {
			data[source] = result
		}

		assessment, err := llm.Invoke[DraftAssessment](ctx, n.gateway, draftPrompt(state.Query, data, state.HasData()))
		if err == nil && assessment.ReportDraft != "" {
			return workflow.NodeResult[State]{
				Delta: State{ReportDraft: assessment.ReportDraft, KeyPoints: assessment.KeyPoints},
				Route: workflow.Goto(NodeOrchestrate),
			}
		}
		if err != nil {
			n.logger.Warn("draft generation failed, using template", "error", err)
		}
		n.metrics.IncFallback(NodeDraft, "gateway")
	}

	return workflow.NodeResult[State]{
		Delta: State{ReportDraft: templateDraft(state), KeyPoints: []string{}},
		Route: workflow.Goto(NodeOrchestrate),
	}
}

// templateDraft is the deterministic fallback draft. It interpolates the
// analytics figures and graph summary that are actually present, and says so
// plainly when nothing was found.
func templateDraft(state State) string {
	var sb strings.Builder

	if state.Query != "" {
		sb.WriteString(fmt.Sprintf("Report for request: %q. ", state.Query))
	} else {
		sb.WriteString("General business report. ")
	}

	if analytics, ok := state.RetrievedData[collect.AnalyticsSource]; ok && !analytics.Empty {
		orders := analytics.Fields["orders"]
		revenue := analytics.Fields["revenue"]
		sb.WriteString(fmt.Sprintf("The period recorded %v orders with revenue of $%v. ", orders, formatRevenue(revenue)))

		if products, ok := analytics.Fields["top_products"].([]map[string]any); ok && len(products) > 0 {
			var names []string
			for _, p := range products {
				if name, ok := p["product"].(string); ok {
					names = append(names, name)
				}
			}
			if len(names) > 0 {
				sb.WriteString("Top products: " + strings.Join(names, ", ") + ". ")
			}
		}
	}

	if graph, ok := state.RetrievedData[collect.GraphSource]; ok && !graph.Empty {
		sb.WriteString("Relationship context: " + graph.Summary + ". ")
	}

	if advanced, ok := state.RetrievedData[collect.AdvancedSource]; ok && !advanced.Empty {
		if insights, ok := advanced.Fields["insights"].([]string); ok && len(insights) > 0 {
			sb.WriteString("Notable findings: " + strings.Join(insights, "; ") + ". ")
		}
	}

	if !state.HasData() {
		sb.WriteString("No sales or relationship data was found for the requested period; figures will appear here once data is recorded.")
	}

	return strings.TrimSpace(sb.String())
}

// formatRevenue renders a revenue value without losing precision on mixed
// numeric types coming out of map[string]any.
func formatRevenue(v any) string {
	switch value := v.(type) {
	case float64:
		return fmt.Sprintf("%.2f", value)
	case int:
		return fmt.Sprintf("%d", value)
	default:
		return fmt.Sprintf("%v", value)
	}
}
