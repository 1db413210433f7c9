// Package report implements the report-generation workflow: security
// screening, data collection, drafting, adversarial review, reflection, and
// finalization, driven by an orchestrated state machine with an iteration
// budget.
package report

import "github.com/dshills/reportflow/collect"

// Action is the orchestrator's choice of next stage.
type Action string

// Orchestrator actions. ActionFinalize is terminal.
const (
	ActionCollect  Action = "collect"
	ActionDraft    Action = "draft"
	ActionReview   Action = "review"
	ActionReflect  Action = "reflect"
	ActionFinalize Action = "finalize"
)

// Severity is the reviewer's assessment of draft quality.
type Severity string

// Review severities. Low triggers finalization; medium and high trigger
// reflection while the iteration budget lasts.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// State is the workflow state for one report request.
//
// Nodes return partial States (deltas); Reduce merges them. Field semantics
// under the reducer:
//   - Query is set once and never overwritten.
//   - SecurityFlag is sticky: once true, no later delta can clear it.
//   - RetrievedData merges additively by source key, never cleared.
//   - ReportDraft is replaced by any non-empty delta value.
//   - ReviewNotes: nil means no change, non-nil replaces (an empty non-nil
//     slice clears the notes, which is how a reflect pass forces re-review).
//   - IterationCount only moves forward.
//   - FinalReport, once set, marks the run terminal.
type State struct {
	Query         string `json:"query"`
	SecurityFlag  bool   `json:"security_flag"`
	SecurityNotes string `json:"security_notes"`

	RetrievedData map[string]collect.Result `json:"retrieved_data"`

	ReportDraft string   `json:"report_draft"`
	KeyPoints   []string `json:"key_points"`

	ReviewNotes    []string `json:"review_notes"`
	ReviewSeverity Severity `json:"review_severity"`

	IterationCount int `json:"iteration_count"`
	MaxIterations  int `json:"max_iterations"`

	NextAction  Action `json:"next_action"`
	FinalReport string `json:"final_report"`
}

// HasData reports whether any collector produced non-empty content. This is
// an OR across sources: qualitative graph data alone counts.
func (s State) HasData() bool {
	for _, result := range s.RetrievedData {
		if !result.Empty {
			return true
		}
	}
	return false
}

// Collected reports whether a collection round has run at all, regardless of
// whether it found anything.
func (s State) Collected() bool {
	return len(s.RetrievedData) > 0
}

// Reduce merges a delta into the previous state per the field semantics
// documented on State. It is the workflow engine's reducer.
func Reduce(prev, delta State) State {
	out := prev

	if out.Query == "" && delta.Query != "" {
		out.Query = delta.Query
	}
	if delta.SecurityFlag {
		out.SecurityFlag = true
	}
	if delta.SecurityNotes != "" {
		out.SecurityNotes = delta.SecurityNotes
	}

	if len(delta.RetrievedData) > 0 {
		if out.RetrievedData == nil {
			out.RetrievedData = make(map[string]collect.Result, len(delta.RetrievedData))
		} else {
			merged := make(map[string]collect.Result, len(out.RetrievedData)+len(delta.RetrievedData))
			for k, v := range out.RetrievedData {
				merged[k] = v
			}
			out.RetrievedData = merged
		}
		for k, v := range delta.RetrievedData {
			out.RetrievedData[k] = v
		}
	}

	if delta.ReportDraft != "" {
		out.ReportDraft = delta.ReportDraft
	}
	if delta.KeyPoints != nil {
		out.KeyPoints = delta.KeyPoints
	}

	if delta.ReviewNotes != nil {
		out.ReviewNotes = delta.ReviewNotes
	}
	if delta.ReviewSeverity != "" {
		out.ReviewSeverity = delta.ReviewSeverity
	}

	if delta.IterationCount > out.IterationCount {
		out.IterationCount = delta.IterationCount
	}
	if delta.MaxIterations != 0 {
		out.MaxIterations = delta.MaxIterations
	}

	if delta.NextAction != "" {
		out.NextAction = delta.NextAction
	}
	if delta.FinalReport != "" {
		out.FinalReport = delta.FinalReport
	}

	return out
}
