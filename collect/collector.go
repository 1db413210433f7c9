// Package collect provides data collectors for report generation.
//
// A collector pulls facts from one backing system (sales database, knowledge
// graph, analytics warehouse) and summarizes them for the drafting stage.
// Collectors are total: backend failures degrade into an empty Result, never
// into an error, so a broken data source cannot stall a report run.
package collect

import "context"

// Collector gathers data from one source.
type Collector interface {
	// Name identifies the source, used as the key in retrieved data.
	Name() string

	// Collect queries the source. The query is the user's request text;
	// params carry collector-specific options such as the time period.
	// The returned Result is always well-formed.
	Collect(ctx context.Context, query string, params map[string]any) Result
}

// Result is the outcome of one collection round.
type Result struct {
	// Source names the collector that produced this result.
	Source string `json:"source"`

	// Summary is a short human-readable description of what was found,
	// suitable for inclusion in a drafting prompt.
	Summary string `json:"summary"`

	// Fields holds the structured data keyed by metric name.
	Fields map[string]any `json:"fields"`

	// Empty reports that the source yielded no usable data, either
	// because nothing matched or because the backend failed.
	Empty bool `json:"empty"`
}

// emptyResult builds the degraded Result for a failed or dataless source.
func emptyResult(source, summary string, fields map[string]any) Result {
	if fields == nil {
		fields = map[string]any{}
	}
	return Result{Source: source, Summary: summary, Fields: fields, Empty: true}
}
