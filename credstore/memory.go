package credstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store for tests and ephemeral applications.
type Memory struct {
	mu     sync.Mutex
	record *Record
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load implements Store.
func (m *Memory) Load(ctx context.Context) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.record == nil {
		return nil, ErrNotFound
	}

	record := *m.record
	return &record, nil
}

// Save implements Store.
func (m *Memory) Save(ctx context.Context, record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record = &record
	return nil
}

// Clear implements Store.
func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record = nil
	return nil
}
