package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Cache for tests; it ignores TTL expiry since test
// cases complete well within any realistic TTL.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemory constructs an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *Memory) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Close() error { return nil }
