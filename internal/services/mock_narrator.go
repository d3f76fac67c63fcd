package services

import (
	"context"
	"sync"

	"github.com/kmarlowe/frontier-engine/pkg/narrative"
)

// MockNarrator is a mock implementation of Narrator for testing
type MockNarrator struct {
	NarrateFunc func(ctx context.Context, state narrative.NarrativeState, playerInput string) (*NarrationResult, error)

	// Track calls for testing
	NarrateCalls []string

	mu sync.Mutex
}

// Ensure MockNarrator implements Narrator
var _ Narrator = (*MockNarrator)(nil)

// NewMockNarrator creates a new mock narrator
func NewMockNarrator() *MockNarrator {
	return &MockNarrator{
		NarrateCalls: make([]string, 0),
	}
}

func (m *MockNarrator) Narrate(ctx context.Context, state narrative.NarrativeState, playerInput string) (*NarrationResult, error) {
	m.mu.Lock()
	m.NarrateCalls = append(m.NarrateCalls, playerInput)
	fn := m.NarrateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, state, playerInput)
	}

	// Default behavior - echo a fixed line
	return &NarrationResult{Narrative: "The wind kicks up dust along the main street."}, nil
}
