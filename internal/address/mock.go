package address

import (
	"context"
	"sync"
)

// MockFetcher is a test implementation of Fetcher.
type MockFetcher struct {
	FetchFunc func(ctx context.Context, cep string) (*Address, error)
	PingFunc  func(ctx context.Context) (bool, error)

	mu         sync.Mutex
	fetchCalls []string
}

// NewMockFetcher creates a mock that knows nothing and reports the API as up.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{}
}

// Fetch delegates to FetchFunc, or reports the CEP as unknown.
func (m *MockFetcher) Fetch(ctx context.Context, cep string) (*Address, error) {
	m.mu.Lock()
	m.fetchCalls = append(m.fetchCalls, cep)
	m.mu.Unlock()

	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, cep)
	}
	return nil, nil
}

// Ping delegates to PingFunc, or reports the API as available.
func (m *MockFetcher) Ping(ctx context.Context) (bool, error) {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return true, nil
}

// FetchCalls returns the CEPs passed to Fetch, in call order.
func (m *MockFetcher) FetchCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetchCalls...)
}
