package voice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avasquez/festa-agent/internal/domain"
)

// MockProvider simulates calls for local development: every call
// "succeeds" with a short canned transcript.
type MockProvider struct {
	mu      sync.Mutex
	counter int
	records map[domain.CallSessionID]*domain.CallRecord
}

func NewMockProvider() *MockProvider {
	return &MockProvider{records: make(map[domain.CallSessionID]*domain.CallRecord)}
}

func (m *MockProvider) Initiate(_ context.Context, _ string, target domain.Place) (domain.CallSessionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	id := domain.CallSessionID(fmt.Sprintf("mock-call-%d", m.counter))
	m.records[id] = &domain.CallRecord{
		Status: "done",
		Transcript: []domain.TranscriptItem{
			{Role: "agent", Message: "Hello, I would like to make a reservation at " + target.Name + "."},
			{Role: "user", Message: "Of course, you are booked. Confirmed, see you then!"},
		},
	}
	return id, nil
}

func (m *MockProvider) AwaitCompletion(_ context.Context, id domain.CallSessionID, _ time.Duration) (*domain.CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("unknown call session %s", id)
	}
	return record, nil
}
