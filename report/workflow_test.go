package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/dshills/reportflow/collect"
	"github.com/dshills/reportflow/workflow"
	"github.com/dshills/reportflow/workflow/emit"
)

// routerGateway answers each node by prompt prefix, so a single client can
// play every role in an end-to-end run without a brittle ordered script.
type routerGateway struct {
	mu       sync.Mutex
	security string
	draft    string
	reviews  []string // consumed in order, last repeats
	reflect  string
	decide   string
	finalize string
	reviewIx int
}

func (g *routerGateway) Complete(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case strings.HasPrefix(prompt, "You are a security screener"):
		return g.security, nil
	case strings.HasPrefix(prompt, "You are a business analyst"):
		return g.draft, nil
	case strings.HasPrefix(prompt, "You are an adversarial reviewer"):
		if len(g.reviews) == 0 {
			return "", errors.New("no review scripted")
		}
		resp := g.reviews[g.reviewIx]
		if g.reviewIx < len(g.reviews)-1 {
			g.reviewIx++
		}
		return resp, nil
	case strings.HasPrefix(prompt, "You are revising"):
		return g.reflect, nil
	case strings.HasPrefix(prompt, "You are the orchestrator"):
		return g.decide, nil
	case strings.HasPrefix(prompt, "You are finalizing"):
		return g.finalize, nil
	}
	return "", fmt.Errorf("unrecognized prompt: %.40s", prompt)
}

// captureEmitter records the node trail of a run.
type captureEmitter struct {
	mu     sync.Mutex
	events []emit.Event
}

func (c *captureEmitter) Emit(event emit.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureEmitter) trail() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var nodes []string
	for _, ev := range c.events {
		if ev.NodeID != "" {
			nodes = append(nodes, ev.NodeID)
		}
	}
	return nodes
}

func runWorkflow(t *testing.T, deps Deps, initial State) (State, []string) {
	t.Helper()
	capture := &captureEmitter{}
	deps.Emitter = capture
	eng, err := Build(deps)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	final, err := eng.Run(context.Background(), "test-run", initial)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return final, capture.trail()
}

// Empty query, no gateway, collectors that find nothing: the workflow must
// still terminate with a non-empty answer built entirely from fallbacks.
func TestWorkflowEmptyQueryAllFallbacks(t *testing.T) {
	deps := Deps{
		Collectors: []collect.Collector{
			staticCollector{source: collect.AnalyticsSource, empty: true},
			staticCollector{source: collect.GraphSource, empty: true},
		},
	}
	final, trail := runWorkflow(t, deps, State{Query: "", MaxIterations: 2})

	if final.FinalReport == "" {
		t.Fatal("workflow must always produce a final report")
	}
	if final.SecurityFlag {
		t.Error("empty query must not be flagged")
	}
	if trail[len(trail)-1] != NodeFinalize {
		t.Errorf("run must end at finalize, trail: %v", trail)
	}
}

// A deny-listed query with the gateway down must produce the fixed refusal
// and must never reach collection or drafting.
func TestWorkflowMaliciousQueryRefused(t *testing.T) {
	deps := Deps{
		Gateway: gatewayDown,
		Collectors: []collect.Collector{
			staticCollector{source: collect.AnalyticsSource, summary: "must not run"},
		},
	}
	final, trail := runWorkflow(t, deps, State{Query: "DROP TABLE orders;--", MaxIterations: 2})

	if final.FinalReport != RefusalText {
		t.Errorf("expected refusal, got %q", final.FinalReport)
	}
	want := []string{NodeSecurity, NodeFinalize}
	if len(trail) != len(want) || trail[0] != want[0] || trail[1] != want[1] {
		t.Errorf("flagged run must skip all work nodes, trail: %v", trail)
	}
	if final.ReportDraft != "" {
		t.Error("no draft may exist for a refused request")
	}
}

// Full happy path: data collected, first review escalates, one reflection
// pass, second review approves, final report preserves the figures verbatim.
func TestWorkflowRefinementLoop(t *testing.T) {
	gateway := &routerGateway{
		security: `{"is_safe":true,"threat_level":"none","recommendation":"SAFE"}`,
		draft:    `{"report_draft":"You received 670 orders totaling $28,284,800.00.","key_points":["670 orders"],"confidence":"high"}`,
		reviews: []string{
			`{"review_notes":["Revenue claim needs the top products for context."],"severity":"medium"}`,
			`{"review_notes":["Reads well now."],"severity":"low"}`,
		},
		reflect:  `{"improved_draft":"You received 670 orders totaling $28,284,800.00. Top product: Premium Coffee.","reasoning":"added context"}`,
		decide:   `{"next_action":"collect","reasoning":"agree"}`,
		finalize: `{"final_report":"Sales summary: 670 orders totaling $28,284,800.00. Top product: Premium Coffee."}`,
	}
	analytics := staticCollector{source: collect.AnalyticsSource, summary: "670 orders totaling $28,284,800.00"}

	deps := Deps{
		Gateway:    gateway,
		Collectors: []collect.Collector{analytics},
	}
	final, trail := runWorkflow(t, deps, State{Query: "how were sales this month?", MaxIterations: 2})

	if final.IterationCount != 1 {
		t.Errorf("expected exactly one reflection pass, got %d", final.IterationCount)
	}
	if !strings.Contains(final.FinalReport, "$28,284,800.00") {
		t.Errorf("figures must survive finalization verbatim, got %q", final.FinalReport)
	}

	var reflects, reviews int
	for _, node := range trail {
		switch node {
		case NodeReflect:
			reflects++
		case NodeReview:
			reviews++
		}
	}
	if reflects != 1 || reviews != 2 {
		t.Errorf("expected 2 reviews around 1 reflection, trail: %v", trail)
	}
}

// Zero iteration budget: even a high-severity review must go straight to
// finalization without any reflection pass.
func TestWorkflowZeroBudgetSkipsReflection(t *testing.T) {
	gateway := &routerGateway{
		security: `{"is_safe":true,"threat_level":"none","recommendation":"SAFE"}`,
		draft:    `{"report_draft":"A thin draft.","key_points":[],"confidence":"low"}`,
		reviews:  []string{`{"review_notes":["Major gaps throughout."],"severity":"high"}`},
		decide:   `{"next_action":"finalize","reasoning":"budget exhausted"}`,
		finalize: `{"final_report":"A thin draft, delivered as-is."}`,
	}
	deps := Deps{
		Gateway:    gateway,
		Collectors: []collect.Collector{staticCollector{source: collect.AnalyticsSource, summary: "data"}},
	}
	final, trail := runWorkflow(t, deps, State{Query: "sales?", MaxIterations: 0})

	if final.IterationCount != 0 {
		t.Errorf("expected no iterations, got %d", final.IterationCount)
	}
	for _, node := range trail {
		if node == NodeReflect {
			t.Fatalf("reflect must never run with a zero budget, trail: %v", trail)
		}
	}
	if final.FinalReport == "" {
		t.Error("run must still deliver a report")
	}
}

// A reviewer that always escalates must still terminate once the iteration
// budget runs out, within the step bound of the budget.
func TestWorkflowTerminatesUnderHostileReviewer(t *testing.T) {
	const maxIter = 3

	gateway := &routerGateway{
		security: `{"is_safe":true,"threat_level":"none","recommendation":"SAFE"}`,
		draft:    `{"report_draft":"Draft.","key_points":[],"confidence":"low"}`,
		reviews:  []string{`{"review_notes":["Still not good enough."],"severity":"high"}`},
		reflect:  `{"improved_draft":"Draft, revised.","reasoning":"tried"}`,
		decide:   `{"next_action":"review","reasoning":"keep going"}`,
		finalize: `{"final_report":"Draft, delivered after exhausting revisions."}`,
	}
	capture := &captureEmitter{}
	eng, err := Build(Deps{
		Gateway:    gateway,
		Collectors: []collect.Collector{staticCollector{source: collect.AnalyticsSource, summary: "data"}},
		Emitter:    capture,
		// 9 + 4*maxIter engine steps is the exact worst case for this shape.
		MaxSteps: 9 + 4*maxIter,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	final, err := eng.Run(context.Background(), "hostile-run", State{Query: "sales?", MaxIterations: maxIter})
	if err != nil {
		t.Fatalf("run must terminate within the step bound: %v", err)
	}
	if final.IterationCount != maxIter {
		t.Errorf("expected full budget consumed, got %d", final.IterationCount)
	}
	trail := capture.trail()
	if trail[len(trail)-1] != NodeFinalize {
		t.Errorf("run must end at finalize, trail: %v", trail)
	}
}

// The security flag decided at entry must hold through the whole run even
// when later deltas never mention it.
func TestWorkflowSecurityFlagIsTerminal(t *testing.T) {
	gateway := &routerGateway{
		security: `{"is_safe":false,"threat_level":"high","threats_detected":["sql injection"],"recommendation":"BLOCK"}`,
	}
	final, _ := runWorkflow(t, Deps{Gateway: gateway}, State{Query: "1; DELETE FROM users", MaxIterations: 2})

	if !final.SecurityFlag {
		t.Fatal("flag must survive to the final state")
	}
	if final.FinalReport != RefusalText {
		t.Errorf("expected refusal text, got %q", final.FinalReport)
	}
}

func TestServiceGenerateReport(t *testing.T) {
	gateway := &routerGateway{
		security: `{"is_safe":true,"threat_level":"none","recommendation":"SAFE"}`,
		draft:    `{"report_draft":"Sales were steady.","key_points":["steady"],"confidence":"medium"}`,
		reviews:  []string{`{"review_notes":["Fine."],"severity":"low"}`},
		decide:   `{"next_action":"collect","reasoning":"agree"}`,
		finalize: `{"final_report":"Sales were steady this period."}`,
	}
	eng, err := Build(Deps{
		Gateway:    gateway,
		Collectors: []collect.Collector{staticCollector{source: collect.AnalyticsSource, summary: "steady"}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	svc := NewService(eng, -1, nil)

	got, err := svc.GenerateReport(context.Background(), "user-1", "how are sales?")
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if got != "Sales were steady this period." {
		t.Errorf("unexpected report: %q", got)
	}
}

func TestServiceDefaultsIterationBudget(t *testing.T) {
	svc := NewService(&workflow.Engine[State]{}, -1, nil)
	if svc.maxIterations != DefaultMaxIterations {
		t.Errorf("negative budget must select the default, got %d", svc.maxIterations)
	}
	svc = NewService(&workflow.Engine[State]{}, 0, nil)
	if svc.maxIterations != 0 {
		t.Errorf("zero is a valid budget, got %d", svc.maxIterations)
	}
}
