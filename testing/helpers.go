// Package noematest provides test utilities for noema.
package noematest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/zoobzio/noema"
	"github.com/zoobzio/zyn"
)

// MockSnapshotStore implements noema.SnapshotStore in memory.
type MockSnapshotStore struct {
	snapshots map[string][]*noema.Snapshot
	failing   bool
	mu        sync.RWMutex
}

// NewMockSnapshotStore creates an empty in-memory snapshot store.
func NewMockSnapshotStore() *MockSnapshotStore {
	return &MockSnapshotStore{
		snapshots: make(map[string][]*noema.Snapshot),
	}
}

// SetFailing toggles unavailability: every call errors while set.
func (m *MockSnapshotStore) SetFailing(failing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = failing
}

// Save stores a snapshot, newest last.
func (m *MockSnapshotStore) Save(_ context.Context, snap *noema.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failing {
		return fmt.Errorf("snapshot store unavailable")
	}
	snap.ID = uuid.New().String()
	m.snapshots[snap.ConductorID] = append(m.snapshots[snap.ConductorID], snap)
	return nil
}

// Latest returns the most recently saved snapshot for a conductor.
func (m *MockSnapshotStore) Latest(_ context.Context, conductorID string) (*noema.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failing {
		return nil, fmt.Errorf("snapshot store unavailable")
	}
	snaps := m.snapshots[conductorID]
	if len(snaps) == 0 {
		return nil, fmt.Errorf("no snapshot for conductor %s", conductorID)
	}
	return snaps[len(snaps)-1], nil
}

// Count returns the number of stored snapshots for a conductor.
func (m *MockSnapshotStore) Count(conductorID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshots[conductorID])
}

// MockAnalogyProvider implements noema.AnalogyProvider with fixed output.
type MockAnalogyProvider struct {
	Solution   noema.Content
	Confidence float64
	Matches    []string
	Err        error
	Calls      int
}

// Reason returns the configured analogy or error.
func (m *MockAnalogyProvider) Reason(_ context.Context, _ noema.Content) (noema.Analogy, error) {
	m.Calls++
	if m.Err != nil {
		return noema.Analogy{}, m.Err
	}
	return noema.Analogy{
		Solution:   m.Solution,
		Confidence: m.Confidence,
		Matches:    m.Matches,
	}, nil
}

// MockReasoningProvider implements noema.ReasoningProvider with fixed output.
type MockReasoningProvider struct {
	Solution   noema.Content
	Confidence float64
	Trace      []string
	Err        error
	Calls      int
}

// Deliberate returns the configured deliberation or error.
func (m *MockReasoningProvider) Deliberate(_ context.Context, _ noema.Content) (noema.Deliberation, error) {
	m.Calls++
	if m.Err != nil {
		return noema.Deliberation{}, m.Err
	}
	return noema.Deliberation{
		Solution:   m.Solution,
		Confidence: m.Confidence,
		Trace:      m.Trace,
	}, nil
}

// MockLLMProvider implements noema.Provider (the zyn-compatible interface)
// with a canned response.
type MockLLMProvider struct {
	Response string
	Err      error
	Calls    int
}

// Call returns the canned provider response.
func (m *MockLLMProvider) Call(_ context.Context, _ []zyn.Message, _ float32) (*zyn.ProviderResponse, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return &zyn.ProviderResponse{
		Content: m.Response,
		Usage: zyn.TokenUsage{
			Prompt:     10,
			Completion: 5,
			Total:      15,
		},
	}, nil
}

// Name identifies the mock.
func (m *MockLLMProvider) Name() string {
	return "mock"
}
