package events

import (
	"context"
	"sync"
)

// Published records a single Publish call.
type Published struct {
	Subject string
	Payload any
}

// MockPublisher records published events for assertions in tests.
type MockPublisher struct {
	mu     sync.Mutex
	Events []Published
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(_ context.Context, subject string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, Published{Subject: subject, Payload: payload})
}

func (m *MockPublisher) Close() {}

// BySubject returns the events published on subject.
func (m *MockPublisher) BySubject(subject string) []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Published
	for _, e := range m.Events {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	return out
}
