// Package plan implements the planning workflow state machine. Steps are
// pure with respect to the Plan: the caller passes the current value in
// and persists the returned one, so no planner state is shared across
// conversations.
package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/avasquez/festa-agent/internal/app/gather"
	"github.com/avasquez/festa-agent/internal/app/intent"
	"github.com/avasquez/festa-agent/internal/domain"
	"github.com/avasquez/festa-agent/internal/observability"
)

const completeReply = "This plan is already finished! Start a new conversation to plan something else."

// StepResult is the effect of feeding one user message into the machine.
type StepResult struct {
	// Plan is the updated plan value; the caller persists it.
	Plan domain.Plan
	// Reply is the assistant text for this turn, empty when the
	// automatic pipeline will produce the next messages itself.
	Reply string
	// GatheringComplete is true when this step crossed the
	// GATHERING -> SEARCHING boundary, which triggers the automatic
	// search/generate/execute pipeline.
	GatheringComplete bool
	// ResumePipeline is true when the plan was found mid-pipeline
	// (after a crash) and the caller should re-enter it.
	ResumePipeline bool
}

type Machine struct {
	writer   writer
	gatherer *gather.Service
	intents  intent.Classifier
}

func NewMachine(llm domain.LLMClient, gatherer *gather.Service, intents intent.Classifier) *Machine {
	return &Machine{
		writer:   writer{llm: llm},
		gatherer: gatherer,
		intents:  intents,
	}
}

// Step advances the workflow by one user message.
func (m *Machine) Step(ctx context.Context, p domain.Plan, input string) (StepResult, error) {
	log := observability.LoggerFromContext(ctx).With(
		"plan_id", p.ID,
		"state", p.State,
	)
	log.Info("plan step", "input_len", len(input))

	switch p.State {
	case domain.StateInitial:
		return m.stepInitial(ctx, p, input)

	case domain.StatePlanning, domain.StateRefinement:
		return m.stepReview(ctx, p, input)

	case domain.StateGathering:
		return m.stepGathering(ctx, p, input)

	case domain.StateSearching, domain.StateTaskGeneration, domain.StateExecuting:
		// A message arriving here means a previous run stopped
		// mid-pipeline; the orchestrator re-enters it from the
		// persisted state.
		return StepResult{Plan: p, ResumePipeline: true}, nil

	case domain.StateComplete:
		return StepResult{Plan: p, Reply: completeReply}, nil

	default:
		return StepResult{Plan: p}, fmt.Errorf("unknown plan state %q", p.State)
	}
}

func (m *Machine) stepInitial(ctx context.Context, p domain.Plan, input string) (StepResult, error) {
	text, err := m.writer.generate(ctx, input)
	if err != nil {
		// Surfaced as assistant text; the plan stays in INITIAL so the
		// next message retries.
		observability.LoggerFromContext(ctx).Error("plan generation failed", "error", err)
		return StepResult{
			Plan:  p,
			Reply: "Sorry, I could not generate a plan right now. Please try again.",
		}, nil
	}

	p.Request = input
	p.Text = text
	p.State = domain.StatePlanning
	return StepResult{Plan: p, Reply: text}, nil
}

// stepReview handles PLANNING and REFINEMENT. Anything that is not a
// confirmation is treated as modification feedback; there is no "unclear"
// dead state.
func (m *Machine) stepReview(ctx context.Context, p domain.Plan, input string) (StepResult, error) {
	if m.intents.IsConfirmation(input) {
		p.State = domain.StateConfirmed

		question, err := m.gatherer.Start(ctx, p.Text, p.Request)
		if err != nil {
			observability.LoggerFromContext(ctx).Error("gathering start failed", "error", err)
			// Stay in CONFIRMED; the next user message re-enters the
			// sub-dialogue through stepGathering.
			p.State = domain.StateGathering
			return StepResult{
				Plan:  p,
				Reply: "Plan confirmed! I could not start collecting details, please send me your full name to begin.",
			}, nil
		}

		p.State = domain.StateGathering
		p.GatherLog = append(p.GatherLog, domain.GatherTurn{Role: domain.RoleAssistant, Text: question})
		reply := fmt.Sprintf("Plan confirmed!\n\nNow I need a few details to make it happen...\n\n%s", question)
		return StepResult{Plan: p, Reply: reply}, nil
	}

	text, err := m.writer.refine(ctx, p.Text, input)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("plan refinement failed", "error", err)
		return StepResult{
			Plan:  p,
			Reply: "Sorry, I could not update the plan right now. Please try again.",
		}, nil
	}

	p.Feedback = append(p.Feedback, input)
	p.Text = text
	p.State = domain.StateRefinement
	return StepResult{Plan: p, Reply: text}, nil
}

func (m *Machine) stepGathering(ctx context.Context, p domain.Plan, input string) (StepResult, error) {
	res, err := m.gatherer.Step(ctx, p.Text, p.Request, p.GatherLog, input)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("gathering step failed", "error", err)
		return StepResult{
			Plan:  p,
			Reply: "Sorry, I did not catch that. Could you repeat?",
		}, nil
	}

	if res.Complete {
		p.Gathered = res.Data
		p.State = domain.StateSearching
		return StepResult{
			Plan:              p,
			Reply:             gatheredSummary(res.Data),
			GatheringComplete: true,
		}, nil
	}

	p.GatherLog = append(p.GatherLog,
		domain.GatherTurn{Role: domain.RoleUser, Text: input},
		domain.GatherTurn{Role: domain.RoleAssistant, Text: res.Text},
	)
	return StepResult{Plan: p, Reply: res.Text}, nil
}

func gatheredSummary(data map[string]string) string {
	var b strings.Builder
	b.WriteString("Great, I have everything I need:\n\n")
	for _, key := range []string{"full_name", "phone", "date", "time", "location"} {
		if v, ok := data[key]; ok && v != "" {
			fmt.Fprintf(&b, "- %s: %s\n", key, v)
		}
	}
	b.WriteString("\nSearching for places now...")
	return b.String()
}
