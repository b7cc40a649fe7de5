package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/ragline/pkg/eventstream"
)

// MockPublisher records published events.
type MockPublisher struct {
	// Err is returned by Publish when set.
	Err error

	mu     sync.Mutex
	events []*eventstream.DocumentEvent
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(_ context.Context, event *eventstream.DocumentEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// Events returns a copy of the published events.
func (m *MockPublisher) Events() []*eventstream.DocumentEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*eventstream.DocumentEvent(nil), m.events...)
}
