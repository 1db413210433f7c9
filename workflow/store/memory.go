package store

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store.
//
// Suitable for tests, development, and single-process deployments where
// checkpoint durability across restarts is not required. Thread-safe.
type MemStore[S any] struct {
	mu          sync.RWMutex
	steps       map[string][]StepRecord[S]
	checkpoints map[string]Checkpoint[S]
}

// NewMemStore creates an empty in-memory store.
func NewMemStore[S any]() *MemStore[S] {
	return &MemStore[S]{
		steps:       make(map[string][]StepRecord[S]),
		checkpoints: make(map[string]Checkpoint[S]),
	}
}

// SaveStep appends a step record to the run's history.
func (m *MemStore[S]) SaveStep(_ context.Context, runID string, step int, nodeID string, state S) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.steps[runID] = append(m.steps[runID], StepRecord[S]{Step: step, NodeID: nodeID, State: state})
	return nil
}

// LoadLatest returns the record with the highest step number, which keeps
// the result correct even if steps were saved out of order.
func (m *MemStore[S]) LoadLatest(_ context.Context, runID string) (S, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.steps[runID]
	if len(records) == 0 {
		var zero S
		return zero, 0, ErrNotFound
	}

	latest := records[0]
	for _, record := range records[1:] {
		if record.Step > latest.Step {
			latest = record
		}
	}
	return latest.State, latest.Step, nil
}

// SaveCheckpoint stores a named snapshot, overwriting any existing one.
func (m *MemStore[S]) SaveCheckpoint(_ context.Context, cpID string, state S, step int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkpoints[cpID] = Checkpoint[S]{ID: cpID, State: state, Step: step}
	return nil
}

// LoadCheckpoint returns a named snapshot.
func (m *MemStore[S]) LoadCheckpoint(_ context.Context, cpID string) (S, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, exists := m.checkpoints[cpID]
	if !exists {
		var zero S
		return zero, 0, ErrNotFound
	}
	return cp.State, cp.Step, nil
}
