package localstore

import (
	"context"
	"strings"
	"sync"
)

// Memory keeps state for the life of the process only.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: map[string][]byte{}}
}

func (m *Memory) Load(_ context.Context, name string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[strings.TrimSpace(name)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (m *Memory) Save(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	m.data[strings.TrimSpace(name)] = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	delete(m.data, strings.TrimSpace(name))
	m.mu.Unlock()
	return nil
}
