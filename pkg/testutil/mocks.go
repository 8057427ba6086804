package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// EvalCall records one call made to a MockEvaluator.
type EvalCall struct {
	JS   string
	Args []any
}

// MockEvaluator is a test double for page evaluators.
// Responses are keyed by script; EvalFunc, when set, takes precedence.
type MockEvaluator struct {
	EvalFunc  func(ctx context.Context, js string, args ...any) (string, error)
	Responses map[string]string

	mu    sync.Mutex
	Calls []EvalCall
}

// Eval returns the canned response for js.
func (m *MockEvaluator) Eval(ctx context.Context, js string, args ...any) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, EvalCall{JS: js, Args: args})
	m.mu.Unlock()

	if m.EvalFunc != nil {
		return m.EvalFunc(ctx, js, args...)
	}
	resp, ok := m.Responses[js]
	if !ok {
		return "", fmt.Errorf("unexpected script: %.40q", js)
	}
	return resp, nil
}

// CallCount returns the number of Eval calls so far.
func (m *MockEvaluator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// ContainsDetail checks if any detail string contains the given substring.
func ContainsDetail(details []string, substr string) bool {
	for _, d := range details {
		if strings.Contains(d, substr) {
			return true
		}
	}
	return false
}
