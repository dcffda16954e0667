// internal/providers/testutil/mocks.go
package testutil

import (
	"context"
	"sync"

	"github.com/AI-Template-SDK/senso-visibility/internal/providers"
)

// MockProvider is a scriptable AIProvider for orchestrator and service tests.
type MockProvider struct {
	ProviderName string
	ExecuteFunc  func(ctx context.Context, queryText, model string) (*providers.Result, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records one Execute invocation.
type MockCall struct {
	QueryText string
	Model     string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{ProviderName: name}
}

func (m *MockProvider) Name() string {
	return m.ProviderName
}

func (m *MockProvider) Execute(ctx context.Context, queryText, model string) (*providers.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{QueryText: queryText, Model: model})
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, queryText, model)
	}
	return &providers.Result{
		Text:         "mock response for: " + queryText,
		InputTokens:  10,
		OutputTokens: 50,
	}, nil
}

// Calls returns a copy of every recorded invocation.
func (m *MockProvider) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times Execute was invoked.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// FailNTimes scripts the provider to return err for the first n calls and
// succeed afterwards.
func (m *MockProvider) FailNTimes(n int, err error, text string) {
	var mu sync.Mutex
	remaining := n
	m.ExecuteFunc = func(ctx context.Context, queryText, model string) (*providers.Result, error) {
		mu.Lock()
		defer mu.Unlock()
		if remaining > 0 {
			remaining--
			return nil, err
		}
		return &providers.Result{Text: text, InputTokens: 10, OutputTokens: 50}, nil
	}
}
