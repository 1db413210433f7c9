// Package store provides checkpoint persistence for workflow state.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a run ID or checkpoint ID does not exist.
var ErrNotFound = errors.New("not found")

// Store persists workflow state step by step and as named checkpoints.
//
// The engine writes state after every node transition, keyed by run ID.
// The latest state per run supports resumption of interrupted workflows;
// named checkpoints support explicit save points.
//
// Implementations: MemStore (in-process), SQLiteStore (single file),
// MySQLStore (shared database).
//
// Type parameter S is the state type; it must be JSON-serializable for the
// database-backed implementations.
type Store[S any] interface {
	// SaveStep persists the state after one node execution. Steps are
	// identified by runID plus a 1-indexed step number.
	SaveStep(ctx context.Context, runID string, step int, nodeID string, state S) error

	// LoadLatest returns the most recent state for a run, or ErrNotFound
	// when the run has no persisted steps.
	LoadLatest(ctx context.Context, runID string) (state S, step int, err error)

	// SaveCheckpoint stores a named snapshot. An existing checkpoint with
	// the same ID is overwritten.
	SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error

	// LoadCheckpoint returns a named snapshot, or ErrNotFound.
	LoadCheckpoint(ctx context.Context, cpID string) (state S, step int, err error)
}

// StepRecord is one execution step in a run's history.
type StepRecord[S any] struct {
	Step   int    `json:"step"`
	NodeID string `json:"node_id"`
	State  S      `json:"state"`
}

// Checkpoint is a named snapshot of workflow state.
type Checkpoint[S any] struct {
	ID    string `json:"id"`
	State S      `json:"state"`
	Step  int    `json:"step"`
}
