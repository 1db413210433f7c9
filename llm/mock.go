package llm

import (
	"context"
	"sync"
)

// MockClient is a scripted Client for tests.
//
// Responses are returned in order; once exhausted, the last response repeats.
// A scripted error takes precedence over responses. Prompts are recorded for
// assertion.
type MockClient struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     []string
}

// NewMockClient creates a mock returning the given responses in order.
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{responses: responses}
}

// NewMockClientError creates a mock whose every call fails with err.
func NewMockClientError(err error) *MockClient {
	return &MockClient{err: err}
}

// Complete returns the next scripted response.
func (m *MockClient) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, prompt)

	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", nil
	}

	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

// Calls returns the prompts received so far.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times Complete was invoked.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
