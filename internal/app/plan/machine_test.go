package plan_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avasquez/festa-agent/internal/adapters/llm"
	"github.com/avasquez/festa-agent/internal/app/gather"
	"github.com/avasquez/festa-agent/internal/app/intent"
	"github.com/avasquez/festa-agent/internal/app/plan"
	"github.com/avasquez/festa-agent/internal/domain"
)

type failingLLM struct{}

func (failingLLM) Generate(context.Context, domain.GenerateRequest) (string, error) {
	return "", errors.New("model unavailable")
}

func newMachine(client domain.LLMClient) *plan.Machine {
	return plan.NewMachine(client, gather.NewService(client), intent.NewClassifier(intent.Default()))
}

func freshPlan() domain.Plan {
	return domain.Plan{
		ID:             "plan-1",
		ConversationID: "conv-1",
		State:          domain.StateInitial,
	}
}

func TestStepInitialGeneratesPlan(t *testing.T) {
	ctx := context.Background()
	m := newMachine(llm.NewMockClient("EVENT PLAN\n\n1. Reserve a venue\n   - Room for 20"))

	res, err := m.Step(ctx, freshPlan(), "organize a birthday party for 20 people")
	require.NoError(t, err)

	assert.Equal(t, domain.StatePlanning, res.Plan.State)
	assert.Equal(t, "organize a birthday party for 20 people", res.Plan.Request)
	assert.Contains(t, res.Reply, "EVENT PLAN")
	assert.False(t, res.GatheringComplete)
}

// A generation failure must be survivable: the plan stays in INITIAL so
// the next message retries, and the user gets an apology instead of an
// error.
func TestStepInitialLLMFailureStaysInitial(t *testing.T) {
	ctx := context.Background()
	m := newMachine(failingLLM{})

	res, err := m.Step(ctx, freshPlan(), "organize a party")
	require.NoError(t, err)

	assert.Equal(t, domain.StateInitial, res.Plan.State)
	assert.Contains(t, res.Reply, "could not generate a plan")
}

// Anything that is not a confirmation is modification feedback; there is
// no dead "unclear" state.
func TestStepReviewFeedbackRefines(t *testing.T) {
	ctx := context.Background()
	m := newMachine(llm.NewMockClient("EVENT PLAN\n\n1. Reserve a venue\n   - Superhero theme"))

	p := freshPlan()
	p.State = domain.StatePlanning
	p.Text = "EVENT PLAN\n\n1. Reserve a venue"

	res, err := m.Step(ctx, p, "add a superhero theme")
	require.NoError(t, err)

	assert.Equal(t, domain.StateRefinement, res.Plan.State)
	assert.Equal(t, []string{"add a superhero theme"}, res.Plan.Feedback)
	assert.Contains(t, res.Plan.Text, "Superhero theme")
}

func TestStepReviewRepeatedFeedbackAccumulates(t *testing.T) {
	ctx := context.Background()
	m := newMachine(llm.NewMockClient("plan v2", "plan v3"))

	p := freshPlan()
	p.State = domain.StatePlanning
	p.Text = "plan v1"

	res, err := m.Step(ctx, p, "cheaper")
	require.NoError(t, err)
	res, err = m.Step(ctx, res.Plan, "and add balloons")
	require.NoError(t, err)

	assert.Equal(t, domain.StateRefinement, res.Plan.State)
	assert.Equal(t, []string{"cheaper", "and add balloons"}, res.Plan.Feedback)
	assert.Equal(t, "plan v3", res.Plan.Text)
}

func TestStepReviewConfirmationStartsGathering(t *testing.T) {
	ctx := context.Background()
	m := newMachine(llm.NewMockClient("What is your full name?"))

	p := freshPlan()
	p.State = domain.StatePlanning
	p.Text = "EVENT PLAN\n\n1. Reserve a venue"

	res, err := m.Step(ctx, p, "I confirm the plan")
	require.NoError(t, err)

	assert.Equal(t, domain.StateGathering, res.Plan.State)
	assert.Contains(t, res.Reply, "Plan confirmed!")
	assert.Contains(t, res.Reply, "What is your full name?")
	require.Len(t, res.Plan.GatherLog, 1)
	assert.Equal(t, domain.RoleAssistant, res.Plan.GatherLog[0].Role)
}

func TestStepGatheringRecordsTurns(t *testing.T) {
	ctx := context.Background()
	m := newMachine(llm.NewMockClient("And your phone number?"))

	p := freshPlan()
	p.State = domain.StateGathering
	p.GatherLog = []domain.GatherTurn{{Role: domain.RoleAssistant, Text: "Your full name?"}}

	res, err := m.Step(ctx, p, "Ana Gomez")
	require.NoError(t, err)

	assert.Equal(t, domain.StateGathering, res.Plan.State)
	assert.Equal(t, "And your phone number?", res.Reply)
	require.Len(t, res.Plan.GatherLog, 3)
	assert.Equal(t, "Ana Gomez", res.Plan.GatherLog[1].Text)
}

func TestStepGatheringCompletionMovesToSearching(t *testing.T) {
	ctx := context.Background()
	m := newMachine(llm.NewMockClient(
		"```json\n{\"full_name\": \"Ana Gomez\", \"phone\": \"+34 600 000 001\", \"date\": \"2025-11-02\", \"time\": \"18:00\", \"location\": \"Madrid\"}\n```",
	))

	p := freshPlan()
	p.State = domain.StateGathering

	res, err := m.Step(ctx, p, "Madrid")
	require.NoError(t, err)

	assert.Equal(t, domain.StateSearching, res.Plan.State)
	assert.True(t, res.GatheringComplete)
	assert.Equal(t, "Ana Gomez", res.Plan.Gathered["full_name"])
	assert.Contains(t, res.Reply, "Ana Gomez")
}

// A message arriving while the plan is mid-pipeline means a previous run
// stopped there; the caller should re-enter the pipeline.
func TestStepMidPipelineRequestsResume(t *testing.T) {
	ctx := context.Background()
	m := newMachine(llm.NewMockClient())

	for _, state := range []domain.PlanState{
		domain.StateSearching,
		domain.StateTaskGeneration,
		domain.StateExecuting,
	} {
		p := freshPlan()
		p.State = state

		res, err := m.Step(ctx, p, "how is it going?")
		require.NoError(t, err)
		assert.True(t, res.ResumePipeline, "state %s", state)
		assert.Equal(t, state, res.Plan.State)
	}
}

func TestStepCompleteRepliesTerminal(t *testing.T) {
	ctx := context.Background()
	m := newMachine(llm.NewMockClient())

	p := freshPlan()
	p.State = domain.StateComplete

	res, err := m.Step(ctx, p, "hello?")
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "already finished")
	assert.Equal(t, domain.StateComplete, res.Plan.State)
}

func TestStepUnknownStateErrors(t *testing.T) {
	ctx := context.Background()
	m := newMachine(llm.NewMockClient())

	p := freshPlan()
	p.State = domain.PlanState("bogus")

	_, err := m.Step(ctx, p, "hi")
	assert.Error(t, err)
}
