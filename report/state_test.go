package report

import (
	"testing"

	"github.com/dshills/reportflow/collect"
)

func TestReduceQuerySetOnce(t *testing.T) {
	s := Reduce(State{}, State{Query: "first"})
	if s.Query != "first" {
		t.Fatalf("expected query set, got %q", s.Query)
	}
	s = Reduce(s, State{Query: "second"})
	if s.Query != "first" {
		t.Errorf("query must be immutable once set, got %q", s.Query)
	}
}

func TestReduceSecurityFlagSticky(t *testing.T) {
	s := Reduce(State{}, State{SecurityFlag: true})
	if !s.SecurityFlag {
		t.Fatal("expected flag set")
	}
	// A later delta without the flag must not clear it.
	s = Reduce(s, State{SecurityNotes: "all clear"})
	if !s.SecurityFlag {
		t.Error("security flag must never reset")
	}
}

func TestReduceRetrievedDataAdditive(t *testing.T) {
	s := Reduce(State{}, State{RetrievedData: map[string]collect.Result{
		"analytics_store": {Source: "analytics_store", Summary: "a"},
	}})
	s = Reduce(s, State{RetrievedData: map[string]collect.Result{
		"graph_store": {Source: "graph_store", Summary: "g"},
	}})

	if len(s.RetrievedData) != 2 {
		t.Fatalf("expected 2 sources accumulated, got %d", len(s.RetrievedData))
	}
	if s.RetrievedData["analytics_store"].Summary != "a" {
		t.Error("earlier source lost during merge")
	}

	// An empty delta map must not clear accumulated data.
	s = Reduce(s, State{ReportDraft: "draft"})
	if len(s.RetrievedData) != 2 {
		t.Error("retrieved data must never be cleared")
	}
}

func TestReduceReviewNotesSemantics(t *testing.T) {
	s := Reduce(State{}, State{ReviewNotes: []string{"note one"}})
	if len(s.ReviewNotes) != 1 {
		t.Fatalf("expected notes set, got %v", s.ReviewNotes)
	}

	// nil delta leaves notes alone.
	s = Reduce(s, State{ReportDraft: "v2"})
	if len(s.ReviewNotes) != 1 {
		t.Error("nil delta must not change review notes")
	}

	// Empty non-nil slice clears them.
	s = Reduce(s, State{ReviewNotes: []string{}})
	if s.ReviewNotes == nil || len(s.ReviewNotes) != 0 {
		t.Errorf("expected cleared (empty non-nil) notes, got %v", s.ReviewNotes)
	}
}

func TestReduceIterationMonotonic(t *testing.T) {
	s := Reduce(State{}, State{IterationCount: 2})
	s = Reduce(s, State{IterationCount: 1})
	if s.IterationCount != 2 {
		t.Errorf("iteration count must only move forward, got %d", s.IterationCount)
	}
}

func TestReduceDraftLastWriteWins(t *testing.T) {
	s := Reduce(State{}, State{ReportDraft: "v1"})
	s = Reduce(s, State{ReportDraft: "v2"})
	if s.ReportDraft != "v2" {
		t.Errorf("expected latest draft, got %q", s.ReportDraft)
	}
	// Empty delta draft is a no-op, not a clear.
	s = Reduce(s, State{ReviewSeverity: SeverityLow})
	if s.ReportDraft != "v2" {
		t.Error("empty delta must not clear draft")
	}
}

func TestHasDataIsOrAcrossSources(t *testing.T) {
	s := State{RetrievedData: map[string]collect.Result{
		"analytics_store": {Empty: true},
		"graph_store":     {Empty: false},
	}}
	if !s.HasData() {
		t.Error("one non-empty source should satisfy HasData")
	}

	s.RetrievedData["graph_store"] = collect.Result{Empty: true}
	if s.HasData() {
		t.Error("all-empty sources should not satisfy HasData")
	}
	if !s.Collected() {
		t.Error("Collected should be true once any round ran")
	}
}
