package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider is a deterministic Provider for tests and offline runs.
// It returns canned responses in FIFO order and records all requests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate returns the next canned response or ErrProviderUnavailable if
// the queue is empty.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		return nil, &ErrProviderUnavailable{Err: nil}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return nil, resp.Err
	}

	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      m.ModelID(),
		StopReason: "end",
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockFactory hands out a single MockProvider and records every selection it
// was asked to build for.
type MockFactory struct {
	Provider *MockProvider
	Err      error

	mu         sync.Mutex
	Selections []Selection
}

// NewMockFactory creates a MockFactory around a MockProvider with the given
// canned responses.
func NewMockFactory(responses ...MockResponse) *MockFactory {
	return &MockFactory{Provider: NewMockProvider(responses...)}
}

// Build satisfies Factory.
func (f *MockFactory) Build(_ context.Context, sel Selection, _ string) (Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Selections = append(f.Selections, sel)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Provider, nil
}

// BuildCount returns how many providers were requested.
func (f *MockFactory) BuildCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Selections)
}
