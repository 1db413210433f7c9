package llm

import "fmt"

// GenerationError reports a failed model call or an unparseable response.
//
// Raw carries the model output (when any) so callers can log what the model
// actually produced before falling back.
type GenerationError struct {
	// Op identifies the operation, e.g. "anthropic.complete" or "invoke.parse".
	Op string

	// Raw is the model output that failed to parse. Empty for transport errors.
	Raw string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("llm: %s: %v (raw output %d bytes)", e.Op, e.Err, len(e.Raw))
	}
	return fmt.Sprintf("llm: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause for errors.Is / errors.As.
func (e *GenerationError) Unwrap() error {
	return e.Err
}
