package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/avasquez/festa-agent/internal/domain"
)

// MockClient is a canned language model for local development and tests.
// Scripted replies are consumed in order; once the script runs out it
// falls back to recognizing the kind of prompt it was given.
type MockClient struct {
	mu       sync.Mutex
	scripted []string
}

func NewMockClient(scripted ...string) *MockClient {
	return &MockClient{scripted: scripted}
}

func (m *MockClient) Generate(_ context.Context, req domain.GenerateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.scripted) > 0 {
		reply := m.scripted[0]
		m.scripted = m.scripted[1:]
		return reply, nil
	}

	switch {
	case strings.Contains(req.Prompt, "event and party organizer"),
		strings.Contains(req.Prompt, "professional event organizer"):
		return "EVENT PLAN\n\n1. Reserve a venue\n   - Room for the group\n   - Order a birthday cake\n\n-------------------------\nWould you like to adjust anything, or do you confirm the plan?", nil
	case strings.Contains(req.System, "collecting the details"):
		return "```json\n{\"full_name\": \"Test User\", \"phone\": \"+1 555 0100\", \"date\": \"2025-01-01\", \"time\": \"18:00\", \"location\": \"Springfield\"}\n```", nil
	case strings.Contains(req.Prompt, "Extract the places"):
		return `[{"name": "Mock Bistro", "phone": "+1 555 0101", "website": null}]`, nil
	case strings.Contains(req.Prompt, "judging AI phone calls"):
		return `{"success": true, "should_continue": false, "reason": "Booking confirmed.", "confidence": 0.9, "appointment_details": {}}`, nil
	default:
		return fmt.Sprintf("I hear you. You said %q. Tell me more.", req.Prompt), nil
	}
}
