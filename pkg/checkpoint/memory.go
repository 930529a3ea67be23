package checkpoint

import (
	"context"
	"sync"

	"github.com/ajitpratap0/flightsync/pkg/connector/core"
)

// MemoryStore keeps the state in process. It records every write so tests
// can assert on checkpoint behaviour.
type MemoryStore struct {
	mu     sync.Mutex
	state  core.State
	writes []core.State

	readErr  error
	writeErr error
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Seed sets the stored state without counting a write
func (m *MemoryStore) Seed(state core.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state.Clone()
}

// FailReads makes Read return err
func (m *MemoryStore) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// FailWrites makes Write return err
func (m *MemoryStore) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Read returns a copy of the stored state
func (m *MemoryStore) Read(context.Context) (core.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.state.Clone(), nil
}

// Write replaces the stored state
func (m *MemoryStore) Write(_ context.Context, state core.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.state = state.Clone()
	m.writes = append(m.writes, state.Clone())
	return nil
}

// Writes returns every successfully written state in order
func (m *MemoryStore) Writes() []core.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.State(nil), m.writes...)
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}
