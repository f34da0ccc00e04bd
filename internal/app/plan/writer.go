package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/avasquez/festa-agent/internal/domain"
)

const generationPromptTemplate = `You are a professional event and party organizer.

The user wants: "%s"

Generate a detailed event plan covering:
- All required reservations (venue, room)
- Orders (cake, decorations, catering)
- Additional services and details

Plan format (IMPORTANT - use exactly this shape):
EVENT PLAN

1. [Task name]
   - [Detail 1]
   - [Detail 2]
   - [Detail 3]

2. [Task name]
   - [Detail 1]
   - [Detail 2]

(etc...)

-------------------------
Would you like to adjust anything, or do you confirm the plan?`

const refinementPromptTemplate = `You are a professional event organizer.

CURRENT PLAN:
%s

USER FEEDBACK:
"%s"

Update the plan according to the feedback. Keep the same format:
EVENT PLAN

1. [Task name]
   - [Details]

(etc...)

-------------------------
Would you like to adjust anything, or do you confirm the plan?`

// writer produces and revises plan text through the language model.
type writer struct {
	llm domain.LLMClient
}

func (w writer) generate(ctx context.Context, request string) (string, error) {
	reply, err := w.llm.Generate(ctx, domain.GenerateRequest{
		Prompt: fmt.Sprintf(generationPromptTemplate, request),
	})
	if err != nil {
		return "", fmt.Errorf("generating plan: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

func (w writer) refine(ctx context.Context, current, feedback string) (string, error) {
	reply, err := w.llm.Generate(ctx, domain.GenerateRequest{
		Prompt: fmt.Sprintf(refinementPromptTemplate, current, feedback),
	})
	if err != nil {
		return "", fmt.Errorf("refining plan: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
