package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avasquez/festa-agent/internal/domain"
)

// fakeProvider scripts per-phone call behavior.
type fakeProvider struct {
	mu        sync.Mutex
	initiated []string // phones dialed, in order

	failInitiate map[string]bool // phone -> Initiate fails
	failAwait    map[string]bool // phone -> AwaitCompletion fails
	emptyRecord  map[string]bool // phone -> record with no usable content
}

func (f *fakeProvider) Initiate(_ context.Context, _ string, target domain.Place) (domain.CallSessionID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initiated = append(f.initiated, target.Phone)
	if f.failInitiate[target.Phone] {
		return "", errors.New("provider rejected the call")
	}
	return domain.CallSessionID("call-" + target.Phone), nil
}

func (f *fakeProvider) AwaitCompletion(_ context.Context, id domain.CallSessionID, _ time.Duration) (*domain.CallRecord, error) {
	phone := string(id)[len("call-"):]
	if f.failAwait[phone] {
		return nil, errors.New("deadline exceeded")
	}
	if f.emptyRecord[phone] {
		return &domain.CallRecord{Status: "done"}, nil
	}
	return &domain.CallRecord{
		Status: "done",
		Transcript: []domain.TranscriptItem{
			{Role: "agent", Message: "I would like to book a table."},
			{Role: "user", Message: "Noted, thanks for calling."},
		},
	}, nil
}

// scriptedEvaluatorLLM returns pre-baked outcome JSONs, one per Evaluate.
type scriptedEvaluatorLLM struct {
	mu      sync.Mutex
	replies []string
}

func (s *scriptedEvaluatorLLM) Generate(context.Context, domain.GenerateRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply left")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func outcomeJSON(success, cont bool, reason string) string {
	return fmt.Sprintf(`{"success": %t, "should_continue": %t, "reason": %q, "confidence": 0.9}`, success, cont, reason)
}

func taskFixture(places ...domain.Place) *domain.Task {
	return &domain.Task{
		ID:           "task-1",
		PlanID:       "plan-1",
		Instructions: "Reserve a room for the event described below.",
		Places:       places,
	}
}

func newTestEngine(provider *fakeProvider, evalLLM domain.LLMClient, opts Options) (*Engine, *int) {
	e := NewEngine(provider, NewEvaluator(evalLLM), opts)
	pauses := 0
	e.sleep = func(context.Context, time.Duration) { pauses++ }
	return e, &pauses
}

type event struct{ step, text string }

func collect(events *[]event) Reporter {
	return func(step, text string) {
		*events = append(*events, event{step, text})
	}
}

func steps(events []event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.step)
	}
	return out
}

func TestExecuteAllFirstCandidateSucceeds(t *testing.T) {
	provider := &fakeProvider{}
	e, pauses := newTestEngine(provider, &scriptedEvaluatorLLM{
		replies: []string{outcomeJSON(true, false, "Table booked for 18:00.")},
	}, Options{})

	task := taskFixture(
		domain.Place{Name: "La Terraza", Phone: "+34 910 000 001"},
		domain.Place{Name: "Sala Norte", Phone: "+34 910 000 002"},
	)

	var events []event
	summary := e.ExecuteAll(context.Background(), []*domain.Task{task}, collect(&events))

	assert.Equal(t, 1, summary.Successful)
	require.Len(t, summary.Tasks, 1)
	assert.True(t, summary.Tasks[0].Success)
	require.Len(t, summary.Tasks[0].Attempts, 1, "second candidate never tried")
	assert.Equal(t, []string{"+34 910 000 001"}, provider.initiated)
	assert.Zero(t, *pauses)

	assert.Equal(t, []string{StepTaskStart, StepCallAttempt, StepCallSuccess, StepSummary}, steps(events))
}

func TestExecuteAllFallsBackAfterEvaluatedFailure(t *testing.T) {
	provider := &fakeProvider{}
	e, pauses := newTestEngine(provider, &scriptedEvaluatorLLM{
		replies: []string{
			outcomeJSON(false, true, "Fully booked that evening."),
			outcomeJSON(true, false, "Booked at the second place."),
		},
	}, Options{})

	task := taskFixture(
		domain.Place{Name: "La Terraza", Phone: "+34 910 000 001"},
		domain.Place{Name: "Sala Norte", Phone: "+34 910 000 002"},
	)

	var events []event
	summary := e.ExecuteAll(context.Background(), []*domain.Task{task}, collect(&events))

	assert.Equal(t, 1, summary.Successful)
	require.Len(t, summary.Tasks[0].Attempts, 2)
	assert.Equal(t, 1, *pauses, "one pause between evaluated retries")

	assert.Equal(t, []string{
		StepTaskStart,
		StepCallAttempt, StepCallRetry,
		StepCallAttempt, StepCallSuccess,
		StepSummary,
	}, steps(events))
}

// Initiation, timeout and format failures skip straight to the next
// candidate with no retry pause.
func TestExecuteAllSkipsBrokenCandidatesWithoutPause(t *testing.T) {
	provider := &fakeProvider{
		failInitiate: map[string]bool{"+1": true},
		failAwait:    map[string]bool{"+2": true},
		emptyRecord:  map[string]bool{"+3": true},
	}
	e, pauses := newTestEngine(provider, &scriptedEvaluatorLLM{
		replies: []string{outcomeJSON(true, false, "Booked.")},
	}, Options{})

	task := taskFixture(
		domain.Place{Name: "A", Phone: "+1"},
		domain.Place{Name: "B", Phone: "+2"},
		domain.Place{Name: "C", Phone: "+3"},
		domain.Place{Name: "D", Phone: "+4"},
	)

	var events []event
	summary := e.ExecuteAll(context.Background(), []*domain.Task{task}, collect(&events))

	assert.Equal(t, 1, summary.Successful)
	assert.Zero(t, *pauses)

	res := summary.Tasks[0]
	require.Len(t, res.Attempts, 4)
	assert.Equal(t, "could not start the call", res.Attempts[0].Error)
	assert.Equal(t, "the call did not finish in time", res.Attempts[1].Error)
	assert.Equal(t, "the call produced no usable transcript", res.Attempts[2].Error)
	assert.True(t, res.Success)
}

// An exhausted task is reported and the batch moves on to the next task.
func TestExecuteAllExhaustedTaskDoesNotStopBatch(t *testing.T) {
	provider := &fakeProvider{}
	e, _ := newTestEngine(provider, &scriptedEvaluatorLLM{
		replies: []string{
			outcomeJSON(false, true, "No availability."),
			outcomeJSON(false, true, "Closed for renovation."),
			outcomeJSON(true, false, "Cake ordered."),
		},
	}, Options{})

	exhausted := taskFixture(
		domain.Place{Name: "A", Phone: "+1"},
		domain.Place{Name: "B", Phone: "+2"},
	)
	second := &domain.Task{
		ID:           "task-2",
		PlanID:       "plan-1",
		Instructions: "Order the cake described below.",
		Places:       []domain.Place{{Name: "Dulce Horno", Phone: "+3"}},
	}

	var events []event
	summary := e.ExecuteAll(context.Background(), []*domain.Task{exhausted, second}, collect(&events))

	assert.Equal(t, 1, summary.Successful)
	require.Len(t, summary.Tasks, 2)
	assert.False(t, summary.Tasks[0].Success)
	assert.True(t, summary.Tasks[1].Success)

	labels := steps(events)
	assert.Contains(t, labels, StepTaskExhausted)
	assert.Equal(t, StepSummary, labels[len(labels)-1])
}

// The sandbox number is dialed, but the candidate keeps its real handle
// in the report.
func TestSandboxPhoneOverridesDialOnly(t *testing.T) {
	provider := &fakeProvider{}
	e, _ := newTestEngine(provider, &scriptedEvaluatorLLM{
		replies: []string{outcomeJSON(true, false, "Booked.")},
	}, Options{SandboxPhone: "+00 TEST LINE"})

	task := taskFixture(domain.Place{Name: "La Terraza", Phone: "+34 910 000 001"})

	summary := e.ExecuteAll(context.Background(), []*domain.Task{task}, nil)

	assert.Equal(t, []string{"+00 TEST LINE"}, provider.initiated)
	require.Len(t, summary.Tasks[0].Attempts, 1)
	assert.Equal(t, "+34 910 000 001", summary.Tasks[0].Attempts[0].Place.Phone)
}

func TestExecuteAllEmptyBatch(t *testing.T) {
	e, _ := newTestEngine(&fakeProvider{}, &scriptedEvaluatorLLM{}, Options{})

	var events []event
	summary := e.ExecuteAll(context.Background(), nil, collect(&events))

	assert.Zero(t, summary.Successful)
	assert.Empty(t, summary.Tasks)
	assert.Equal(t, []string{StepSummary}, steps(events))
}
