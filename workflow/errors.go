package workflow

// EngineError is returned for engine-level failures: misconfiguration,
// unknown nodes, exhausted step budgets, or checkpoint store errors.
//
// Node-level degradation never surfaces as an EngineError; nodes absorb
// collaborator failures into their state deltas.
type EngineError struct {
	Message string
	Code    string
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Error codes reported by the engine.
const (
	CodeDuplicateNode    = "DUPLICATE_NODE"
	CodeNodeNotFound     = "NODE_NOT_FOUND"
	CodeNoStartNode      = "NO_START_NODE"
	CodeMissingReducer   = "MISSING_REDUCER"
	CodeMissingStore     = "MISSING_STORE"
	CodeMaxStepsExceeded = "MAX_STEPS_EXCEEDED"
	CodeNoRoute          = "NO_ROUTE"
	CodeStoreFailure     = "STORE_ERROR"
)
