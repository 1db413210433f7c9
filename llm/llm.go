// Package llm provides provider-agnostic access to language model APIs.
//
// Workflow nodes depend only on the Client interface; concrete adapters wrap
// the Anthropic, OpenAI, and Google SDKs. The Invoke helper layers typed JSON
// extraction on top of raw completions so nodes can request structured output
// without knowing which provider is behind the client.
package llm

import "context"

// Client is a minimal completion interface over a language model.
//
// Implementations must be safe for concurrent use. Complete returns the raw
// model text; callers needing structured output go through Invoke.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
