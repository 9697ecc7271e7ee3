package testutil

import (
	"sync"

	"github.com/input-output-hk/s3mv/aws/s3/s3types"
)

// MockReporter is a MoveReporter that records every call for assertions.
type MockReporter struct {
	mu sync.Mutex

	PlannedFiles int
	PlannedParts int
	PlannedCalls int
	Parts        int
	Events       []s3types.MoveEvent
}

var _ s3types.MoveReporter = (*MockReporter)(nil)

// Planned records the totals.
func (m *MockReporter) Planned(files, parts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlannedCalls++
	m.PlannedFiles = files
	m.PlannedParts = parts
}

// PartDone counts a completed part.
func (m *MockReporter) PartDone() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Parts++
}

// Done records a finished move.
func (m *MockReporter) Done(event s3types.MoveEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

// EventFor returns the event whose source is src.
func (m *MockReporter) EventFor(src string) (s3types.MoveEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.Src == src {
			return e, true
		}
	}
	return s3types.MoveEvent{}, false
}

// PartsDone returns the number of completed parts.
func (m *MockReporter) PartsDone() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Parts
}

// Reset clears the recorded state.
func (m *MockReporter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlannedFiles = 0
	m.PlannedParts = 0
	m.PlannedCalls = 0
	m.Parts = 0
	m.Events = nil
}
